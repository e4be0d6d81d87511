package archive

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/core-coin/gutta/pkg/logger"
)

// Archive implements models.ArchiveSink by combining the S3 store with
// the SES emailer.
type Archive struct {
	store   *S3Store
	emailer *Emailer
}

func New(log *logger.Logger, cfg aws.Config, bucket, sender string) *Archive {
	return &Archive{
		store:   NewS3Store(log, cfg, bucket),
		emailer: NewEmailer(log, cfg, sender),
	}
}

func (a *Archive) Upload(ctx context.Context, snapshot []byte) (string, error) {
	return a.store.Upload(ctx, snapshot)
}

func (a *Archive) EmailReport(ctx context.Context, snapshot []byte, recipient string) error {
	return a.emailer.EmailReport(ctx, snapshot, recipient)
}
