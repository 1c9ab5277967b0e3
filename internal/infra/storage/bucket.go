package storage

import (
	"context"
	"strings"
	"time"
)

// Attrs are the attributes written alongside an object.
type Attrs struct {
	ContentType string
	Metadata    map[string]string
}

// Object describes a stored object. Listing may leave ContentType and Metadata empty;
// Stat always fills them when the backend has them.
type Object struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Bucket is the minimal object-store surface the Store needs. Backends report a missing
// bucket with documents.ErrBucketNotFound and a missing key with documents.ErrNotFound.
type Bucket interface {
	Name() string
	Location(key string) string
	Put(ctx context.Context, key string, data []byte, attrs Attrs) error
	List(ctx context.Context, prefix string) ([]Object, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Stat(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// metaValue looks a metadata key up case-insensitively. S3-compatible servers hand back
// canonicalized header names ("Original-Name", "X-Amz-Meta-Original-Name").
func metaValue(md map[string]string, key string) (string, bool) {
	if v, ok := md[key]; ok {
		return v, true
	}
	for k, v := range md {
		k = strings.TrimPrefix(strings.ToLower(k), "x-amz-meta-")
		if k == key {
			return v, true
		}
	}
	return "", false
}
