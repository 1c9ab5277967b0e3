package documents

import "context"

// BlobStore port (interface untuk penyimpanan file upload)
type BlobStore interface {
	Save(ctx context.Context, data []byte, name, mediaType string) (FileMetadata, error)
	ReadBytes(ctx context.Context, id string) ([]byte, error)
	ReadMetadata(ctx context.Context, id string) (FileMetadata, error)

	// administrative, not used by the analysis path
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]FileMetadata, error)

	Ping(ctx context.Context) error
	Bucket() string
}

// TextExtractor port for format-specific text extraction.
type TextExtractor interface {
	Extract(ctx context.Context, mediaType string, data []byte) (string, error)
}
