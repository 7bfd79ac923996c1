package storage

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"docvault/internal/platform/config"
)

// ObjectStore is the boundary to the object storage backend: time-limited
// single-operation references plus the multipart bookkeeping the backend
// requires. The coordinator never inspects object bytes.
type ObjectStore interface {
	CreateMultipartUpload(ctx context.Context, bucket, key, contentType string) (string, error)
	PresignUploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int32) (string, error)
	CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts map[int32]string) error
	AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error
	PresignGet(ctx context.Context, bucket, key string) (string, error)
}

// S3Store implements ObjectStore against any S3-compatible backend.
type S3Store struct {
	cfg config.StorageConfig
}

func NewS3Store(cfg config.StorageConfig) *S3Store {
	return &S3Store{cfg: cfg}
}

func (s *S3Store) client(ctx context.Context) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKeyID,
			s.cfg.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
		}
	}), nil
}

func (s *S3Store) CreateMultipartUpload(ctx context.Context, bucket, key, contentType string) (string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	out, err := client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &contentType,
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.UploadId), nil
}

func (s *S3Store) PresignUploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int32) (string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	presigner := s3.NewPresignClient(client)
	req, err := presigner.PresignUploadPart(ctx, &s3.UploadPartInput{
		Bucket:     &bucket,
		Key:        &key,
		UploadId:   &uploadID,
		PartNumber: aws.Int32(partNumber),
	}, s3.WithPresignExpires(s.presignTTL()))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (s *S3Store) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts map[int32]string) error {
	client, err := s.client(ctx)
	if err != nil {
		return err
	}

	completed := make([]types.CompletedPart, 0, len(parts))
	for number, etag := range parts {
		completed = append(completed, types.CompletedPart{
			PartNumber: aws.Int32(number),
			ETag:       aws.String(etag),
		})
	}
	// S3 requires ascending part order.
	sort.Slice(completed, func(i, j int) bool {
		return aws.ToInt32(completed[i].PartNumber) < aws.ToInt32(completed[j].PartNumber)
	})

	_, err = client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   &bucket,
		Key:      &key,
		UploadId: &uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	return err
}

func (s *S3Store) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	client, err := s.client(ctx)
	if err != nil {
		return err
	}

	_, err = client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   &bucket,
		Key:      &key,
		UploadId: &uploadID,
	})
	return err
}

func (s *S3Store) PresignGet(ctx context.Context, bucket, key string) (string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	presigner := s3.NewPresignClient(client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.presignTTL()))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (s *S3Store) presignTTL() time.Duration {
	if s.cfg.PresignTTL > 0 {
		return s.cfg.PresignTTL
	}
	return time.Hour
}
