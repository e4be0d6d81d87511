// Package archive moves ledger snapshots off-host: timestamped S3 backups
// plus a daily report email carrying the full CSV.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/core-coin/gutta/pkg/logger"
)

// S3Store uploads snapshots under backups/ with a timestamped key so no
// backup ever overwrites another.
type S3Store struct {
	logger   *logger.Logger
	uploader *manager.Uploader
	bucket   string
}

func NewS3Store(log *logger.Logger, cfg aws.Config, bucket string) *S3Store {
	return &S3Store{
		logger:   log,
		uploader: manager.NewUploader(s3.NewFromConfig(cfg)),
		bucket:   bucket,
	}
}

func (s *S3Store) Upload(ctx context.Context, snapshot []byte) (string, error) {
	key := fmt.Sprintf("backups/mint_records_%s.csv", time.Now().Format("20060102_150405"))

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(snapshot),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload backup to s3://%s/%s: %w", s.bucket, key, err)
	}

	s.logger.Infof("ledger backed up to s3://%s/%s", s.bucket, key)
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
