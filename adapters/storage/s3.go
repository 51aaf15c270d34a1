package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Skryldev/image-client/core"
	apperrors "github.com/Skryldev/image-client/errors"
)

// S3Config holds S3 connection parameters.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional: MinIO, R2, localstack, etc.
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// S3API is the subset of *s3.Client the store uses.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3 reads objects from AWS S3 or an S3-compatible store.
type S3 struct {
	client S3API
	bucket string
}

// NewS3 builds an aws-sdk-go-v2 client from cfg. Static credentials are used
// when both keys are set; otherwise the default AWS credential chain applies.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryConfig, "s3.config", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewS3WithClient(client, cfg.Bucket)
}

// NewS3WithClient wraps an existing client. client must not be nil.
func NewS3WithClient(client S3API, defaultBucket string) (*S3, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 storage: client must not be nil")
	}
	return &S3{client: client, bucket: strings.TrimSpace(defaultBucket)}, nil
}

func (s *S3) bucketFor(key core.StorageKey) string {
	if key.Bucket != "" {
		return key.Bucket
	}
	return s.bucket
}

func (s *S3) Get(ctx context.Context, key core.StorageKey) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "s3.get", err)
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketFor(key)),
		Key:    aws.String(key.Path),
	})
	if err != nil {
		return nil, s3Error("s3.get", key, err)
	}
	return out.Body, nil
}

func (s *S3) Stat(ctx context.Context, key core.StorageKey) (core.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return core.ObjectInfo{Size: -1}, apperrors.Wrap(apperrors.CategoryStorage, "s3.stat", err)
	}
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketFor(key)),
		Key:    aws.String(key.Path),
	})
	if err != nil {
		return core.ObjectInfo{Size: -1}, s3Error("s3.stat", key, err)
	}
	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return core.ObjectInfo{Size: size, ContentType: aws.ToString(out.ContentType)}, nil
}

func s3Error(op string, key core.StorageKey, err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return apperrors.New(apperrors.CategoryStorage, op,
			fmt.Errorf("%w: %s/%s", apperrors.ErrObjectNotFound, key.Bucket, key.Path))
	}
	return &apperrors.Fault{Category: apperrors.CategoryStorage, Op: op, Err: err, Retryable: true}
}
