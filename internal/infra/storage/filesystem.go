package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bryanwahyu/rfp-analyzer/internal/domain/documents"
)

const attrsSuffix = ".attrs.json"

// FilesystemBucket stores objects as files under a root directory. Each object's
// attributes sit next to it in "<key>.attrs.json".
type FilesystemBucket struct {
	root string
}

type fileAttrs struct {
	ContentType string            `json:"contentType"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// NewFilesystem creates the root directory if it is missing.
func NewFilesystem(root string) (*FilesystemBucket, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FilesystemBucket{root: abs}, nil
}

func (b *FilesystemBucket) Name() string { return b.root }

func (b *FilesystemBucket) Location(key string) string { return "file://" + b.path(key) }

func (b *FilesystemBucket) path(key string) string {
	return filepath.Join(b.root, filepath.FromSlash(key))
}

func (b *FilesystemBucket) checkRoot() error {
	info, err := os.Stat(b.root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", documents.ErrBucketNotFound, b.root)
	}
	return nil
}

func (b *FilesystemBucket) Put(_ context.Context, key string, data []byte, attrs Attrs) error {
	if err := b.checkRoot(); err != nil {
		return err
	}
	p := b.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	meta, err := json.Marshal(fileAttrs{ContentType: attrs.ContentType, Metadata: attrs.Metadata})
	if err != nil {
		return err
	}
	if err := os.WriteFile(p+attrsSuffix, meta, 0o644); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

func (b *FilesystemBucket) List(_ context.Context, prefix string) ([]Object, error) {
	if err := b.checkRoot(); err != nil {
		return nil, err
	}
	var out []Object
	err := filepath.WalkDir(b.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, attrsSuffix) {
			return nil
		}
		rel, err := filepath.Rel(b.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, Object{Key: key, Size: info.Size(), LastModified: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (b *FilesystemBucket) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", documents.ErrNotFound, key)
	}
	return data, err
}

func (b *FilesystemBucket) Stat(_ context.Context, key string) (Object, error) {
	p := b.path(key)
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return Object{}, fmt.Errorf("%w: %s", documents.ErrNotFound, key)
	}
	if err != nil {
		return Object{}, err
	}

	obj := Object{Key: key, Size: info.Size(), LastModified: info.ModTime()}

	// sidecar boleh tidak ada (file ditaruh manual)
	raw, err := os.ReadFile(p + attrsSuffix)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return obj, nil
		}
		return Object{}, err
	}
	var attrs fileAttrs
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return Object{}, fmt.Errorf("corrupt attributes for %s: %w", key, err)
	}
	obj.ContentType = attrs.ContentType
	obj.Metadata = attrs.Metadata
	return obj, nil
}

func (b *FilesystemBucket) Delete(_ context.Context, key string) error {
	p := b.path(key)
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.Remove(p + attrsSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (b *FilesystemBucket) Ping(context.Context) error { return b.checkRoot() }
