// Package storage archives raw crawled pages to S3-compatible object
// storage, keeping an audit trail of what each ingest run saw.
package storage

import (
	"context"
	"crypto/sha1"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/doculens-ai/doculens/internal/domain"
)

// SnapshotStoreConfig holds configuration for SnapshotStore
type SnapshotStoreConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
}

// SnapshotStore writes raw page snapshots to S3-compatible storage
// (e.g., MinIO, RustFS).
type SnapshotStore struct {
	client *s3.Client
	bucket string
}

// NewSnapshotStore creates a new SnapshotStore with the given configuration
func NewSnapshotStore(ctx context.Context, cfg SnapshotStoreConfig) (*SnapshotStore, error) {
	customResolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if cfg.Endpoint != "" {
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		},
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		config.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &SnapshotStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// ArchivePage stores the page's raw HTML under a key derived from the
// collection, crawl date, and URL. Re-archiving the same page on the same
// day overwrites the previous snapshot.
func (s *SnapshotStore) ArchivePage(ctx context.Context, collection string, page domain.CrawledPage) error {
	if page.RawContent == "" {
		return nil
	}

	key := snapshotKey(collection, page)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(page.RawContent),
		ContentType: aws.String("text/html"),
		Metadata: map[string]string{
			"source-url":  page.URL,
			"status-code": fmt.Sprintf("%d", page.StatusCode),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to archive page %s: %w", page.URL, err)
	}
	return nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *SnapshotStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// snapshotKey hashes the URL so keys stay valid regardless of what
// characters the URL contains.
func snapshotKey(collection string, page domain.CrawledPage) string {
	sum := sha1.Sum([]byte(page.URL))
	return fmt.Sprintf("%s/%s/%x.html", collection, page.CrawledAt.UTC().Format("2006-01-02"), sum)
}
