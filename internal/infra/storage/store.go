package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/rfp-analyzer/internal/domain/documents"
)

const (
	// DefaultPrefix is the key namespace for uploaded documents.
	DefaultPrefix = "uploads"

	metaOriginalName = "original-name"
)

// Options configures a Store.
type Options struct {
	Prefix   string // default "uploads"
	BasePath string // HTTP mount point, used to build retrieval URLs
	Logger   *slog.Logger
	Now      func() time.Time
}

// Store implements documents.BlobStore on top of any Bucket.
type Store struct {
	bucket   Bucket
	prefix   string
	basePath string
	log      *slog.Logger
	now      func() time.Time
}

var _ documents.BlobStore = (*Store)(nil)

// NewStore wraps a bucket backend.
func NewStore(b Bucket, opts Options) *Store {
	prefix := strings.Trim(opts.Prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		bucket:   b,
		prefix:   prefix,
		basePath: strings.TrimRight(opts.BasePath, "/"),
		log:      logger,
		now:      now,
	}
}

func (s *Store) Bucket() string { return s.bucket.Name() }

// RetrievalPath is where GET /files/{id} serves an identifier.
func (s *Store) RetrievalPath(id string) string {
	return s.basePath + "/files/" + id
}

func (s *Store) key(id, name string) string {
	return s.prefix + "/" + id + path.Ext(name)
}

// Save writes the bytes under a fresh identifier. The identifier never depends on content,
// so the same file uploaded twice gets two objects. UploadedAt is the backend's
// modification time, the same value ReadMetadata reports later.
func (s *Store) Save(ctx context.Context, data []byte, name, mediaType string) (documents.FileMetadata, error) {
	id := uuid.NewString()
	key := s.key(id, name)

	mt := documents.BaseMediaType(mediaType)
	if mt == "" {
		mt = documents.MediaTypeByExtension(path.Ext(name))
	}

	attrs := Attrs{
		ContentType: mt,
		Metadata:    map[string]string{metaOriginalName: url.PathEscape(name)},
	}
	if err := s.bucket.Put(ctx, key, data, attrs); err != nil {
		return documents.FileMetadata{}, documents.NewStorageError("write", s.bucket.Name(), key, err)
	}

	s.log.Info("file stored", "id", id, "bucket", s.bucket.Name(), "key", key, "size", len(data))

	// objek sudah tersimpan; gagal Stat tidak menggagalkan Save
	uploadedAt := s.now()
	if obj, err := s.bucket.Stat(ctx, key); err != nil {
		s.log.Warn("stat after write failed, using local clock", "key", key, "err", err)
	} else if !obj.LastModified.IsZero() {
		uploadedAt = obj.LastModified
	}

	return documents.FileMetadata{
		ID:           id,
		OriginalName: name,
		MimeType:     mt,
		Size:         int64(len(data)),
		UploadedAt:   uploadedAt.UTC(),
		FilePath:     s.bucket.Location(key),
		URL:          s.RetrievalPath(id),
	}, nil
}

// lookup resolves an identifier to its single object key.
func (s *Store) lookup(ctx context.Context, id string) (string, error) {
	prefix := s.prefix + "/" + id
	objs, err := s.bucket.List(ctx, prefix)
	if err != nil {
		return "", documents.NewStorageError("read", s.bucket.Name(), prefix, err)
	}

	var keys []string
	for _, o := range objs {
		rest := strings.TrimPrefix(o.Key, prefix)
		// <id> atau <id>.<ext>, bukan <id>X...
		if rest == "" || strings.HasPrefix(rest, ".") {
			keys = append(keys, o.Key)
		}
	}

	switch len(keys) {
	case 0:
		return "", fmt.Errorf("%w: %s", documents.ErrNotFound, id)
	case 1:
		return keys[0], nil
	default:
		sort.Strings(keys)
		err := fmt.Errorf("%w: %s -> %s", documents.ErrAmbiguousID, id, strings.Join(keys, ", "))
		return "", documents.NewStorageError("read", s.bucket.Name(), prefix, err)
	}
}

func (s *Store) ReadBytes(ctx context.Context, id string) ([]byte, error) {
	key, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := s.bucket.Get(ctx, key)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", documents.ErrNotFound, id)
		}
		return nil, documents.NewStorageError("read", s.bucket.Name(), key, err)
	}
	return data, nil
}

func (s *Store) ReadMetadata(ctx context.Context, id string) (documents.FileMetadata, error) {
	key, err := s.lookup(ctx, id)
	if err != nil {
		return documents.FileMetadata{}, err
	}
	return s.metadata(ctx, id, key)
}

func (s *Store) metadata(ctx context.Context, id, key string) (documents.FileMetadata, error) {
	obj, err := s.bucket.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return documents.FileMetadata{}, fmt.Errorf("%w: %s", documents.ErrNotFound, id)
		}
		return documents.FileMetadata{}, documents.NewStorageError("read", s.bucket.Name(), key, err)
	}

	mt := documents.BaseMediaType(obj.ContentType)
	if mt == "" {
		mt = documents.MediaTypeByExtension(path.Ext(key))
	}

	name := path.Base(key)
	if v, ok := metaValue(obj.Metadata, metaOriginalName); ok && v != "" {
		if unescaped, err := url.PathUnescape(v); err == nil {
			name = unescaped
		} else {
			name = v
		}
	}

	return documents.FileMetadata{
		ID:           id,
		OriginalName: name,
		MimeType:     mt,
		Size:         obj.Size,
		UploadedAt:   obj.LastModified.UTC(),
		FilePath:     s.bucket.Location(key),
		URL:          s.RetrievalPath(id),
	}, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	key, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	if err := s.bucket.Delete(ctx, key); err != nil {
		return documents.NewStorageError("delete", s.bucket.Name(), key, err)
	}
	s.log.Info("file deleted", "id", id, "key", key)
	return nil
}

// List returns metadata for every stored upload, oldest first.
func (s *Store) List(ctx context.Context) ([]documents.FileMetadata, error) {
	objs, err := s.bucket.List(ctx, s.prefix+"/")
	if err != nil {
		return nil, documents.NewStorageError("list", s.bucket.Name(), s.prefix, err)
	}

	out := make([]documents.FileMetadata, 0, len(objs))
	for _, o := range objs {
		base := strings.TrimPrefix(o.Key, s.prefix+"/")
		id := strings.SplitN(base, ".", 2)[0]
		if strings.Contains(id, "/") || id == "" {
			continue
		}
		md, err := s.metadata(ctx, id, o.Key)
		if err != nil {
			if errors.Is(err, documents.ErrNotFound) {
				continue // dihapus di tengah listing
			}
			return nil, err
		}
		out = append(out, md)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.bucket.Ping(ctx); err != nil {
		return documents.NewStorageError("read", s.bucket.Name(), "", err)
	}
	return nil
}
