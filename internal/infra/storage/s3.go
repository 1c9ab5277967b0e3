package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/bryanwahyu/rfp-analyzer/internal/domain/documents"
)

// S3Options for NewS3. Endpoint is only set for S3-compatible emulators (LocalStack);
// it switches the client to path-style addressing.
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// S3Bucket is a Bucket backed by Amazon S3.
type S3Bucket struct {
	client     *s3.Client
	bucketName string
}

// NewS3 loads the default AWS config chain; static keys override it when given.
func NewS3(ctx context.Context, opts S3Options) (*S3Bucket, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Bucket{client: client, bucketName: opts.Bucket}, nil
}

func (b *S3Bucket) Name() string { return b.bucketName }

func (b *S3Bucket) Location(key string) string { return "s3://" + b.bucketName + "/" + key }

func (b *S3Bucket) Put(ctx context.Context, key string, data []byte, attrs Attrs) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(attrs.ContentType),
		Metadata:      attrs.Metadata,
	})
	return b.translate(err, false)
}

func (b *S3Bucket) List(ctx context.Context, prefix string) ([]Object, error) {
	var out []Object
	p := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucketName),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, b.translate(err, true)
		}
		for _, o := range page.Contents {
			out = append(out, Object{
				Key:          aws.ToString(o.Key),
				Size:         aws.ToInt64(o.Size),
				LastModified: aws.ToTime(o.LastModified),
			})
		}
	}
	return out, nil
}

func (b *S3Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, b.translate(err, false)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (b *S3Bucket) Stat(ctx context.Context, key string) (Object, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return Object{}, b.translate(err, false)
	}
	return Object{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
		Metadata:     out.Metadata,
	}, nil
}

func (b *S3Bucket) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(key),
	})
	return b.translate(err, false)
}

func (b *S3Bucket) Ping(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.bucketName)})
	return b.translate(err, true)
}

// translate maps S3 errors onto the domain sentinels. HEAD requests carry no error body,
// so a bare NotFound means the bucket when bucketScoped and the key otherwise.
func (b *S3Bucket) translate(err error, bucketScoped bool) error {
	if err == nil {
		return nil
	}

	var (
		noBucket *types.NoSuchBucket
		noKey    *types.NoSuchKey
		notFound *types.NotFound
	)
	switch {
	case errors.As(err, &noBucket):
		return fmt.Errorf("%w: %s: %v", documents.ErrBucketNotFound, b.bucketName, err)
	case errors.As(err, &noKey):
		return fmt.Errorf("%w: %v", documents.ErrNotFound, err)
	case errors.As(err, &notFound):
		if bucketScoped {
			return fmt.Errorf("%w: %s: %v", documents.ErrBucketNotFound, b.bucketName, err)
		}
		return fmt.Errorf("%w: %v", documents.ErrNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucket" {
		return fmt.Errorf("%w: %s: %v", documents.ErrBucketNotFound, b.bucketName, err)
	}
	return err
}
