package npk

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/Stage2Sec/frenzy/internal/config"
	"github.com/Stage2Sec/frenzy/internal/errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gosimple/slug"
)

// FileKind selects which campaign bucket a file operation targets.
type FileKind string

const (
	FileHash     FileKind = "hash"
	FileWordlist FileKind = "wordlist"
	FileRule     FileKind = "rule"
)

// FileStore lists and uploads campaign files. Hash files live in the
// userdata bucket; wordlists and rules live in the per-region
// dictionary buckets.
type FileStore interface {
	// List returns the file names of a kind, optionally pinned to a
	// region.
	List(ctx context.Context, kind FileKind, forceRegion string) ([]string, error)

	// UploadHash stores a hash file under the upload prefix.
	UploadHash(ctx context.Context, name string, data []byte) error
}

// S3Store is the FileStore implementation over the campaign S3
// buckets.
type S3Store struct {
	client            *s3.Client
	defaultRegion     string
	userdataBucket    string
	dictionaryBuckets map[string]string
}

// NewS3Store creates a store using the ambient AWS credential chain.
func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return &S3Store{
		client:            s3.NewFromConfig(awsCfg),
		defaultRegion:     cfg.Region,
		userdataBucket:    cfg.UserdataBucket,
		dictionaryBuckets: cfg.DictionaryBuckets,
	}, nil
}

// location resolves a file kind to its bucket, key prefix and region.
func (s *S3Store) location(kind FileKind, forceRegion string) (bucket, prefix, region string, err error) {
	region = forceRegion
	if region == "" {
		region = s.defaultRegion
	}

	switch kind {
	case FileHash:
		return s.userdataBucket, "self/uploads", region, nil
	case FileWordlist:
		bucket, ok := s.dictionaryBuckets[region]
		if !ok {
			return "", "", "", &errors.NotFoundError{Kind: "dictionary bucket", ID: region}
		}
		return bucket, "wordlist", region, nil
	case FileRule:
		bucket, ok := s.dictionaryBuckets[region]
		if !ok {
			return "", "", "", &errors.NotFoundError{Kind: "dictionary bucket", ID: region}
		}
		return bucket, "rules", region, nil
	default:
		return "", "", "", fmt.Errorf("unknown file kind %q", kind)
	}
}

// List implements FileStore.
func (s *S3Store) List(ctx context.Context, kind FileKind, forceRegion string) ([]string, error) {
	bucket, prefix, region, err := s.location(kind, forceRegion)
	if err != nil {
		return nil, err
	}

	var names []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix + "/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx, func(o *s3.Options) {
			o.Region = region
		})
		if err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix+"/")
			// Skip the prefix placeholder and nested keys
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			names = append(names, name)
		}
	}
	return names, nil
}

// UploadHash implements FileStore.
func (s *S3Store) UploadHash(ctx context.Context, name string, data []byte) error {
	bucket, prefix, region, err := s.location(FileHash, "")
	if err != nil {
		return err
	}

	key := prefix + "/" + safeFileName(name)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}, func(o *s3.Options) {
		o.Region = region
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// safeFileName sanitizes an uploaded file name into an S3 key segment,
// keeping the extension.
func safeFileName(name string) string {
	ext := path.Ext(name)
	base := slug.Make(strings.TrimSuffix(name, ext))
	if base == "" {
		base = "upload"
	}
	return base + strings.ToLower(ext)
}
