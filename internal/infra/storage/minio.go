package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/rfp-analyzer/internal/domain/documents"
)

// MinioOptions for NewMinio.
type MinioOptions struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	CreateBucket bool
}

// MinioBucket is a Bucket backed by MinIO (or any S3-compatible server minio-go speaks to).
type MinioBucket struct {
	client     *minio.Client
	bucketName string
	region     string
}

// NewMinio buat koneksi MinIO
func NewMinio(ctx context.Context, opts MinioOptions) (*MinioBucket, error) {
	cli, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}

	if opts.CreateBucket {
		// pastikan bucket ada
		exists, err := cli.BucketExists(ctx, opts.Bucket)
		if err != nil {
			return nil, err
		}
		if !exists {
			if err := cli.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
				return nil, err
			}
		}
	}

	return &MinioBucket{client: cli, bucketName: opts.Bucket, region: opts.Region}, nil
}

func (b *MinioBucket) Name() string { return b.bucketName }

// Location URL objek (hanya bisa diakses langsung kalau bucket public)
func (b *MinioBucket) Location(key string) string {
	return fmt.Sprintf("%s/%s/%s", b.client.EndpointURL().String(), b.bucketName, key)
}

func (b *MinioBucket) Put(ctx context.Context, key string, data []byte, attrs Attrs) error {
	_, err := b.client.PutObject(ctx, b.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  attrs.ContentType,
		UserMetadata: attrs.Metadata,
	})
	return b.translate(err)
}

func (b *MinioBucket) List(ctx context.Context, prefix string) ([]Object, error) {
	var out []Object
	for info := range b.client.ListObjects(ctx, b.bucketName, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, b.translate(info.Err)
		}
		out = append(out, Object{Key: info.Key, Size: info.Size, LastModified: info.LastModified})
	}
	return out, nil
}

func (b *MinioBucket) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := b.client.GetObject(ctx, b.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, b.translate(err)
	}
	defer obj.Close()

	// error GetObject baru muncul saat dibaca
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, b.translate(err)
	}
	return data, nil
}

func (b *MinioBucket) Stat(ctx context.Context, key string) (Object, error) {
	info, err := b.client.StatObject(ctx, b.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		return Object{}, b.translate(err)
	}
	return Object{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
		Metadata:     info.UserMetadata,
	}, nil
}

func (b *MinioBucket) Delete(ctx context.Context, key string) error {
	return b.translate(b.client.RemoveObject(ctx, b.bucketName, key, minio.RemoveObjectOptions{}))
}

func (b *MinioBucket) Ping(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucketName)
	if err != nil {
		return b.translate(err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", documents.ErrBucketNotFound, b.bucketName)
	}
	return nil
}

// translate maps MinIO error codes onto the domain sentinels.
func (b *MinioBucket) translate(err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchBucket":
		return fmt.Errorf("%w: %s: %v", documents.ErrBucketNotFound, b.bucketName, err)
	case "NoSuchKey", "NoSuchObject":
		return fmt.Errorf("%w: %v", documents.ErrNotFound, err)
	}
	return err
}
