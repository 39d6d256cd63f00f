// Package evidence resolves verification evidence object keys to short-lived
// signed URLs served from S3-compatible object storage.
package evidence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/accessmate/accessrank/internal/tracing"
)

// Validation errors.
var (
	ErrInvalidKey = errors.New("invalid evidence key")
)

// evidenceKeyPrefix is the object key namespace for verification evidence.
// Keys outside this prefix are rejected so the resolver can never sign URLs
// for unrelated objects in the bucket.
const evidenceKeyPrefix = "evidence/"

// Resolver generates signed GET URLs for evidence objects.
type Resolver struct {
	presignClient *s3.PresignClient
	bucketName    string
	urlExpiry     time.Duration
	timeNow       func() time.Time // For testability
}

// ResolverConfig holds configuration for the evidence resolver.
type ResolverConfig struct {
	BucketName       string
	AccessKeyID      string
	SecretAccessKey  string
	Endpoint         string
	URLExpiryMinutes int // Default: 10 minutes
}

// NewResolver creates a new evidence resolver with the given configuration.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("bucket name is required")
	}
	if cfg.AccessKeyID == "" {
		return nil, errors.New("access key ID is required")
	}
	if cfg.SecretAccessKey == "" {
		return nil, errors.New("secret access key is required")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if cfg.URLExpiryMinutes <= 0 {
		cfg.URLExpiryMinutes = 10
	}

	s3Client := s3.New(s3.Options{
		Region: "auto",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		BaseEndpoint: aws.String(cfg.Endpoint),
		UsePathStyle: true,
	})

	return &Resolver{
		presignClient: s3.NewPresignClient(s3Client),
		bucketName:    cfg.BucketName,
		urlExpiry:     time.Duration(cfg.URLExpiryMinutes) * time.Minute,
		timeNow:       time.Now,
	}, nil
}

// ValidateKey checks that a key is a well-formed evidence object key.
func ValidateKey(key string) error {
	if key == "" || !strings.HasPrefix(key, evidenceKeyPrefix) {
		return ErrInvalidKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}

// SignedURL holds a resolved evidence URL and its expiry.
type SignedURL struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Resolve generates a signed GET URL for one evidence key.
func (r *Resolver) Resolve(ctx context.Context, key string) (*SignedURL, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	presigned, err := r.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.urlExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to presign evidence URL: %w", err)
	}

	return &SignedURL{
		Key:       key,
		URL:       presigned.URL,
		ExpiresAt: r.timeNow().Add(r.urlExpiry),
	}, nil
}

// ResolveAll generates signed URLs for a list of evidence keys, skipping
// invalid keys rather than failing the whole batch. Display code treats a
// missing URL as evidence that cannot be shown.
func (r *Resolver) ResolveAll(ctx context.Context, keys []string) (urls []SignedURL, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "evidence.resolve_all")
	defer func() { endSpan(err) }()

	urls = make([]SignedURL, 0, len(keys))
	for _, key := range keys {
		if ValidateKey(key) != nil {
			continue
		}
		signed, err := r.Resolve(ctx, key)
		if err != nil {
			return nil, err
		}
		urls = append(urls, *signed)
	}
	return urls, nil
}
