// Package storage guarda las imágenes originales de las facturas en S3 o en
// cualquier almacenamiento compatible (MinIO, R2).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/contablebot/portal-api/internal/application/ports"
	"github.com/contablebot/portal-api/pkg/config"
)

var _ ports.ObjectStorage = (*S3Storage)(nil)

// S3Storage implementa ports.ObjectStorage con aws-sdk-go-v2.
type S3Storage struct {
	client *s3.Client
	bucket string
}

// NewS3Storage crea el cliente a partir de la configuración. Sin credenciales
// explícitas se usa la cadena por defecto del SDK (env, perfil, rol IAM).
func NewS3Storage(ctx context.Context, cfg config.StorageConfig) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: S3_BUCKET es obligatorio")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3Storage{client: client, bucket: cfg.Bucket}, nil
}

// Put sube el objeto con su content type.
func (s *S3Storage) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}
	return nil
}
