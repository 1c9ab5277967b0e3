package files

import (
	"context"
	"errors"
	"fmt"

	"github.com/bryanwahyu/rfp-analyzer/internal/domain/documents"
)

var (
	// ErrFileNotFound: no bytes stored under the identifier.
	ErrFileNotFound = fmt.Errorf("stored bytes: %w", documents.ErrNotFound)
	// ErrMetadataNotFound: bytes exist but their attributes do not.
	ErrMetadataNotFound = fmt.Errorf("metadata: %w", documents.ErrNotFound)
)

// File is a stored document ready to be served.
type File struct {
	Data     []byte
	Metadata documents.FileMetadata
}

type Service struct {
	Store documents.BlobStore
}

// Retrieve reads the bytes, then the metadata. Nothing is returned unless both exist.
func (s *Service) Retrieve(ctx context.Context, id string) (File, error) {
	data, err := s.Store.ReadBytes(ctx, id)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return File{}, ErrFileNotFound
		}
		return File{}, err
	}

	md, err := s.Store.ReadMetadata(ctx, id)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return File{}, ErrMetadataNotFound
		}
		return File{}, err
	}
	return File{Data: data, Metadata: md}, nil
}

// List returns metadata for every stored upload.
func (s *Service) List(ctx context.Context) ([]documents.FileMetadata, error) {
	return s.Store.List(ctx)
}

// Delete removes one stored upload.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.Store.Delete(ctx, id)
	if errors.Is(err, documents.ErrNotFound) {
		return ErrFileNotFound
	}
	return err
}
