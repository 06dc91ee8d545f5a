// Package s3 mirrors the local data directory into an S3 bucket.
//
// The mirror is additive and skip-based: an object that already exists under
// the destination key is never re-uploaded, so repeated runs only transfer
// files that appeared since the last one. Deletions are never propagated.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/couchcryptid/marine-risk-pipeline/internal/config"
)

// api is the subset of the S3 client the mirror needs.
type api interface {
	HeadBucket(ctx context.Context, params *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *awss3.CreateBucketInput, optFns ...func(*awss3.Options)) (*awss3.CreateBucketOutput, error)
	HeadObject(ctx context.Context, params *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
}

type uploader interface {
	Upload(ctx context.Context, input *awss3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Totals summarizes one mirror run.
type Totals struct {
	Uploaded int
	Skipped  int
	Failed   int
}

// Mirror uploads files under the local data directory to a bucket.
type Mirror struct {
	client   api
	uploader uploader
	bucket   string
	prefix   string
	region   string
	root     string
	exclude  []string
	logger   *slog.Logger
}

// New builds a Mirror from the ambient AWS credential chain.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Mirror, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := awss3.NewFromConfig(awsCfg)
	return &Mirror{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.S3Bucket,
		prefix:   cfg.S3Prefix,
		region:   cfg.S3Region,
		root:     cfg.RawDir(),
		exclude:  cfg.S3Exclude,
		logger:   logger,
	}, nil
}

// Run ensures the bucket exists, then walks the local tree uploading every
// file whose key is not already present. Individual upload failures are
// logged and counted; the walk continues.
func (m *Mirror) Run(ctx context.Context) (Totals, error) {
	var totals Totals

	if err := m.ensureBucket(ctx); err != nil {
		return totals, err
	}

	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if m.excluded(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if d.Name() == ".gitkeep" || m.excluded(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(m.root, path)
		if err != nil {
			return err
		}
		key := m.prefix + filepath.ToSlash(rel)

		switch uploaded, err := m.uploadIfAbsent(ctx, path, key); {
		case err != nil:
			totals.Failed++
			m.logger.Error("mirror upload failed", "key", key, "error", err)
		case uploaded:
			totals.Uploaded++
		default:
			totals.Skipped++
		}
		return ctx.Err()
	})
	if err != nil {
		return totals, fmt.Errorf("walking %s: %w", m.root, err)
	}

	m.logger.Info("mirror run complete",
		"bucket", m.bucket,
		"uploaded", totals.Uploaded,
		"skipped", totals.Skipped,
		"failed", totals.Failed)
	return totals, nil
}

func (m *Mirror) excluded(name string) bool {
	return slices.Contains(m.exclude, name)
}

func (m *Mirror) ensureBucket(ctx context.Context) error {
	_, err := m.client.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(m.bucket)})
	if err == nil {
		return nil
	}
	var nf *types.NotFound
	if !errors.As(err, &nf) {
		return fmt.Errorf("checking bucket %s: %w", m.bucket, err)
	}

	input := &awss3.CreateBucketInput{Bucket: aws.String(m.bucket)}
	// us-east-1 rejects an explicit location constraint.
	if m.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(m.region),
		}
	}
	if _, err := m.client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("creating bucket %s: %w", m.bucket, err)
	}
	m.logger.Info("created bucket", "bucket", m.bucket, "region", m.region)
	return nil
}

func (m *Mirror) uploadIfAbsent(ctx context.Context, path, key string) (bool, error) {
	_, err := m.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		m.logger.Debug("object exists, skipping", "key", key)
		return false, nil
	}
	var nf *types.NotFound
	if !errors.As(err, &nf) && !isNotFoundStatus(err) {
		return false, fmt.Errorf("checking object: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if _, err := m.uploader.Upload(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		return false, fmt.Errorf("uploading: %w", err)
	}
	m.logger.Info("uploaded", "key", key)
	return true, nil
}

// isNotFoundStatus catches HeadObject 404s that surface as a generic response
// error rather than types.NotFound.
func isNotFoundStatus(err error) bool {
	return strings.Contains(err.Error(), "StatusCode: 404") ||
		strings.Contains(err.Error(), "NotFound")
}
