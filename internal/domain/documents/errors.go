package documents

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no stored object matches an identifier.
var ErrNotFound = errors.New("file not found")

// ErrBucketNotFound is returned by storage backends when the configured bucket does not exist.
var ErrBucketNotFound = errors.New("bucket not found")

// ErrAmbiguousID means more than one object matched an identifier prefix. Identifiers are
// UUIDs so this is an invariant violation, not something to resolve.
var ErrAmbiguousID = errors.New("identifier matches more than one object")

// StorageErrorKind separates configuration problems from transient failures; they need
// different operator action.
type StorageErrorKind string

const (
	KindBucketMissing StorageErrorKind = "bucket_missing"
	KindTransient     StorageErrorKind = "transient"
	KindInvariant     StorageErrorKind = "invariant"
)

// StorageError wraps a blob store failure with the bucket and object path involved.
type StorageError struct {
	Op     string // write | read | list | delete
	Bucket string
	Path   string
	Kind   StorageErrorKind
	Err    error
}

func (e *StorageError) Error() string {
	msg := fmt.Sprintf("storage %s failed (bucket=%q path=%q kind=%s): %v", e.Op, e.Bucket, e.Path, e.Kind, e.Err)
	if e.Kind == KindBucketMissing {
		msg += fmt.Sprintf(". Bucket %q does not exist or the configured bucket name is wrong; create it or fix storage.bucket", e.Bucket)
	}
	return msg
}

func (e *StorageError) Unwrap() error { return e.Err }

// Name is the taxonomy name reported to operators.
func (e *StorageError) Name() string {
	if e.Op == "write" {
		return "StorageWriteError"
	}
	return "StorageReadError"
}

// NewStorageError classifies err into a StorageError.
func NewStorageError(op, bucket, path string, err error) *StorageError {
	kind := KindTransient
	switch {
	case errors.Is(err, ErrBucketNotFound):
		kind = KindBucketMissing
	case errors.Is(err, ErrAmbiguousID):
		kind = KindInvariant
	}
	return &StorageError{Op: op, Bucket: bucket, Path: path, Kind: kind, Err: err}
}
