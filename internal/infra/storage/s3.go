// Package storage writes uploaded asset bytes to an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"knowledgebase/internal/config"
	"knowledgebase/internal/observability/metrics"
	"knowledgebase/internal/resilience/circuitbreaker"
	"knowledgebase/internal/resilience/retry"
)

// S3 stores objects in one bucket and derives their public URLs.
type S3 struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	breaker       *circuitbreaker.CircuitBreaker
	retry         retry.Config
}

// NewS3 builds a client from cfg. With an empty access key the default AWS
// credential chain is used. A non-empty endpoint switches to path-style
// addressing for MinIO and friends.
func NewS3(ctx context.Context, cfg config.StorageConfig) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		// third-party stores reject the default trailing checksums
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.Retryer = aws.NopRetryer{}
	})

	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		if cfg.Endpoint != "" {
			base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	bc := circuitbreaker.StorageConfig()
	bc.OnStateChange = metrics.RecordCircuitState
	return &S3{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: base,
		breaker:       circuitbreaker.New(bc),
		retry:         retry.StorageConfig(),
	}, nil
}

// URL returns the public URL of key.
func (s *S3) URL(key string) string {
	return s.publicBaseURL + "/" + key
}

// Put uploads body under key and returns its public URL. A missing bucket is
// created once and the upload retried.
func (s *S3) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	err := s.putWithRetry(ctx, key, contentType, body)
	if err != nil && isNoSuchBucket(err) {
		slog.WarnContext(ctx, "asset bucket missing, creating it", slog.String("bucket", s.bucket))
		if _, cerr := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); cerr != nil {
			return "", fmt.Errorf("create bucket %s: %w", s.bucket, cerr)
		}
		err = s.putWithRetry(ctx, key, contentType, body)
	}
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.URL(key), nil
}

func (s *S3) putWithRetry(ctx context.Context, key, contentType string, body []byte) error {
	return retry.WithBackoff(ctx, s.retry, func(ctx context.Context) error {
		_, err := circuitbreaker.Do(s.breaker, func() (*s3.PutObjectOutput, error) {
			return s.client.PutObject(ctx, &s3.PutObjectInput{
				Bucket:        aws.String(s.bucket),
				Key:           aws.String(key),
				Body:          bytes.NewReader(body),
				ContentType:   aws.String(contentType),
				ContentLength: aws.Int64(int64(len(body))),
				ACL:           types.ObjectCannedACLPublicRead,
			})
		})
		if err == nil {
			return nil
		}
		if isNoSuchBucket(err) || circuitbreaker.IsRejected(err) {
			return retry.Permanent(err)
		}
		return classify(err)
	})
}

// Ping checks that the bucket is reachable.
func (s *S3) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

func isNoSuchBucket(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucket"
}

// classify exposes the HTTP status of an SDK response error to the retry loop.
func classify(err error) error {
	var sc interface{ HTTPStatusCode() int }
	if errors.As(err, &sc) && sc.HTTPStatusCode() != 0 {
		return fmt.Errorf("%w: %w", &retry.HTTPError{StatusCode: sc.HTTPStatusCode(), Message: http.StatusText(sc.HTTPStatusCode())}, err)
	}
	return err
}
