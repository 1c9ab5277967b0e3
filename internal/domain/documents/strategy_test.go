package documents

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		mediaType string
		want      Strategy
	}{
		{"application/pdf", StrategyInline},
		{"Application/PDF", StrategyInline},
		{"application/pdf; name=rfp.pdf", StrategyInline},
		{MediaTypeDOCX, StrategyStructuredExtract},
		{MediaTypeDOC, StrategyStructuredExtract},
		{MediaTypeODT, StrategyStructuredExtract},
		{"text/html; charset=utf-8", StrategyStructuredExtract},
		{"text/plain", StrategyRawText},
		{"text/markdown", StrategyRawText},
		{"", StrategyRawText},
		{"application/octet-stream", StrategyRawText},
	}

	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectStrategy(tt.mediaType))
		})
	}
}

func TestMediaTypeByExtension(t *testing.T) {
	assert.Equal(t, MediaTypePDF, MediaTypeByExtension(".PDF"))
	assert.Equal(t, MediaTypeMarkdown, MediaTypeByExtension(".md"))
	assert.Equal(t, MediaTypeOctet, MediaTypeByExtension(".bin"))
	assert.Equal(t, MediaTypeOctet, MediaTypeByExtension(""))
}

func TestStorageErrorClassification(t *testing.T) {
	missing := NewStorageError("write", "rfp-uploads", "uploads/x.pdf", fmt.Errorf("put: %w", ErrBucketNotFound))
	assert.Equal(t, KindBucketMissing, missing.Kind)
	assert.Equal(t, "StorageWriteError", missing.Name())
	assert.Contains(t, missing.Error(), `bucket="rfp-uploads"`)
	assert.Contains(t, missing.Error(), "uploads/x.pdf")
	assert.True(t, errors.Is(missing, ErrBucketNotFound))

	transient := NewStorageError("read", "rfp-uploads", "uploads/x", errors.New("connection reset"))
	assert.Equal(t, KindTransient, transient.Kind)
	assert.Equal(t, "StorageReadError", transient.Name())
	assert.NotContains(t, transient.Error(), "does not exist")
}

func TestUploadEmpty(t *testing.T) {
	assert.True(t, Upload{}.Empty())
	assert.False(t, Upload{Name: "empty.txt"}.Empty())
}
