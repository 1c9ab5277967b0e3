package storage

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bryanwahyu/rfp-analyzer/internal/domain/documents"
)

// MemoryBucket keeps objects in process. Used for local runs and tests.
type MemoryBucket struct {
	name string
	now  func() time.Time

	mu      sync.RWMutex
	objects map[string]memObject
	missing bool
}

type memObject struct {
	data     []byte
	attrs    Attrs
	modified time.Time
}

func NewMemory(name string) *MemoryBucket {
	if name == "" {
		name = "memory"
	}
	return &MemoryBucket{name: name, now: time.Now, objects: make(map[string]memObject)}
}

// SetMissing makes every call behave as if the bucket did not exist.
func (m *MemoryBucket) SetMissing(missing bool) {
	m.mu.Lock()
	m.missing = missing
	m.mu.Unlock()
}

func (m *MemoryBucket) Name() string { return m.name }

func (m *MemoryBucket) Location(key string) string { return "mem://" + m.name + "/" + key }

func (m *MemoryBucket) errMissing() error {
	return fmt.Errorf("%w: %s", documents.ErrBucketNotFound, m.name)
}

func (m *MemoryBucket) Put(_ context.Context, key string, data []byte, attrs Attrs) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.missing {
		return m.errMissing()
	}
	m.objects[key] = memObject{
		data:     append([]byte(nil), data...),
		attrs:    Attrs{ContentType: attrs.ContentType, Metadata: maps.Clone(attrs.Metadata)},
		modified: m.now(),
	}
	return nil
}

func (m *MemoryBucket) List(_ context.Context, prefix string) ([]Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.missing {
		return nil, m.errMissing()
	}
	var out []Object
	for k, o := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, Object{Key: k, Size: int64(len(o.data)), LastModified: o.modified})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryBucket) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.missing {
		return nil, m.errMissing()
	}
	o, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", documents.ErrNotFound, key)
	}
	return append([]byte(nil), o.data...), nil
}

func (m *MemoryBucket) Stat(_ context.Context, key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.missing {
		return Object{}, m.errMissing()
	}
	o, ok := m.objects[key]
	if !ok {
		return Object{}, fmt.Errorf("%w: %s", documents.ErrNotFound, key)
	}
	return Object{
		Key:          key,
		Size:         int64(len(o.data)),
		ContentType:  o.attrs.ContentType,
		LastModified: o.modified,
		Metadata:     maps.Clone(o.attrs.Metadata),
	}, nil
}

func (m *MemoryBucket) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.missing {
		return m.errMissing()
	}
	delete(m.objects, key)
	return nil
}

func (m *MemoryBucket) Ping(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.missing {
		return m.errMissing()
	}
	return nil
}
