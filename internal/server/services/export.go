package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kidsbank/internal/common"
	"github.com/dmitrijs2005/kidsbank/internal/dbx"
	"github.com/dmitrijs2005/kidsbank/internal/logging"
	"github.com/dmitrijs2005/kidsbank/internal/server/access"
	"github.com/dmitrijs2005/kidsbank/internal/server/auth"
	sc "github.com/dmitrijs2005/kidsbank/internal/server/config"
	"github.com/dmitrijs2005/kidsbank/internal/server/metrics"
	"github.com/dmitrijs2005/kidsbank/internal/server/models"
	"github.com/dmitrijs2005/kidsbank/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/kidsbank/internal/wire"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ExportResult locates an uploaded snapshot.
type ExportResult struct {
	Key   string
	URL   string
	Count int
}

// exportDocument is the JSON object written to the bucket.
type exportDocument struct {
	Account    string        `json:"account"`
	ExportedAt int64         `json:"exportedAt"`
	Changes    []wire.Change `json:"changes"`
}

// ExportService uploads a snapshot of an account's change log to S3 and
// hands out a presigned download URL.
type ExportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	log         logging.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewExportService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config,
	log logging.Logger, mx *metrics.Metrics) *ExportService {
	return &ExportService{
		db:          db,
		repomanager: m,
		config:      cfg,
		log:         log.With("module", "export"),
		metrics:     mx,
		now:         time.Now,
	}
}

// GetRandomStorageKey returns a fresh object key under the account's prefix.
func GetRandomStorageKey(accountID string, at time.Time) string {
	return fmt.Sprintf("exports/%s/%d/%02d/%02d/%v.json", accountID, at.Year(), at.Month(), at.Day(), uuid.New())
}

func (s *ExportService) getClients() (*s3.Client, *s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, newS3PresignClient(client), nil
}

// Export snapshots every change of the account readable by cred, uploads
// it and returns a presigned GET URL for the object.
func (s *ExportService) Export(ctx context.Context, accountID string, cred auth.Credential) (*ExportResult, error) {
	res, err := s.export(ctx, accountID, cred)

	result := "ok"
	if err != nil {
		result = "error"
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorUnauthorized) {
			result = "denied"
		}
	}
	s.metrics.Exports.WithLabelValues(result).Inc()

	return res, err
}

func (s *ExportService) export(ctx context.Context, accountID string, cred auth.Credential) (*ExportResult, error) {
	var list []*models.Change

	// account check and listing see the same snapshot
	err := dbx.WithTx(ctx, s.db, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true},
		func(ctx context.Context, tx dbx.DBTX) error {
			account, err := lookupAccount(ctx, s.repomanager.Accounts(tx), accountID)
			if err != nil {
				return err
			}
			if !access.CanRead(account, cred) {
				return common.ErrorUnauthorized
			}

			list, err = s.repomanager.Changes(tx).ListSince(ctx, accountID, 0)
			if err != nil {
				return fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
			}
			return nil
		})
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) && !errors.Is(err, common.ErrorUnauthorized) &&
			!errors.Is(err, common.ErrorUnavailable) {
			err = fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
		}
		return nil, err
	}

	now := s.now()
	body, err := json.Marshal(exportDocument{
		Account:    accountID,
		ExportedAt: now.UnixMilli(),
		Changes:    models.ChangesToWire(list),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	client, presignClient, err := s.getClients()
	if err != nil {
		s.log.Error(ctx, "s3 client setup failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey(accountID, now)

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		s.log.Error(ctx, "export upload failed", "account", accountID, "key", key, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.ExportURLValidityDuration))
	if err != nil {
		s.log.Error(ctx, "export presign failed", "account", accountID, "key", key, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}

	s.log.Info(ctx, "account exported", "account", accountID, "key", key, "changes", len(list))
	return &ExportResult{Key: key, URL: req.URL, Count: len(list)}, nil
}
