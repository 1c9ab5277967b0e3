package files

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/rfp-analyzer/internal/domain/documents"
	"github.com/bryanwahyu/rfp-analyzer/internal/infra/storage"
)

// metadataless hides metadata to simulate bytes without attributes.
type metadataless struct {
	documents.BlobStore
}

func (metadataless) ReadMetadata(context.Context, string) (documents.FileMetadata, error) {
	return documents.FileMetadata{}, documents.ErrNotFound
}

func TestRetrieveRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewStore(storage.NewMemory("b"), storage.Options{BasePath: "/api"})
	svc := &Service{Store: store}

	data := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff, 0x10}
	saved, err := store.Save(ctx, data, "Scope & Fees.pdf", "application/pdf")
	require.NoError(t, err)

	f, err := svc.Retrieve(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, data, f.Data)
	assert.Equal(t, saved.ID, f.Metadata.ID)
	assert.Equal(t, saved.OriginalName, f.Metadata.OriginalName)
	assert.Equal(t, saved.MimeType, f.Metadata.MimeType)
	assert.Equal(t, saved.Size, f.Metadata.Size)
	assert.Equal(t, "/api/files/"+saved.ID, f.Metadata.URL)
}

func TestRetrieveMissing(t *testing.T) {
	svc := &Service{Store: storage.NewStore(storage.NewMemory("b"), storage.Options{})}

	_, err := svc.Retrieve(context.Background(), "2f1c4b0e-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.ErrorIs(t, err, documents.ErrNotFound)
}

func TestRetrieveMetadataMissing(t *testing.T) {
	ctx := context.Background()
	store := storage.NewStore(storage.NewMemory("b"), storage.Options{})
	saved, err := store.Save(ctx, []byte("x"), "a.txt", "text/plain")
	require.NoError(t, err)

	svc := &Service{Store: metadataless{store}}
	f, err := svc.Retrieve(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrMetadataNotFound)
	assert.Nil(t, f.Data, "no partial result")
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := storage.NewStore(storage.NewMemory("b"), storage.Options{})
	svc := &Service{Store: store}
	saved, err := store.Save(ctx, []byte("x"), "a.txt", "text/plain")
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, saved.ID))
	assert.ErrorIs(t, svc.Delete(ctx, saved.ID), ErrFileNotFound)
}
