package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kidsbank/internal/changehash"
	"github.com/dmitrijs2005/kidsbank/internal/common"
	"github.com/dmitrijs2005/kidsbank/internal/logging"
	"github.com/dmitrijs2005/kidsbank/internal/server/access"
	"github.com/dmitrijs2005/kidsbank/internal/server/auth"
	"github.com/dmitrijs2005/kidsbank/internal/server/metrics"
	"github.com/dmitrijs2005/kidsbank/internal/server/models"
	"github.com/dmitrijs2005/kidsbank/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/kidsbank/internal/server/repositories/changes"
	"github.com/dmitrijs2005/kidsbank/internal/server/repositories/repomanager"
)

// PushResult reports what happened to a pushed batch. Committed holds
// exactly the changes this call appended, with their versions, in push
// order.
type PushResult struct {
	Committed  []*models.Change
	Duplicates int
	Rejected   int
}

// SyncService implements the push and pull halves of the sync protocol
// over the append-only change log.
type SyncService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewSyncService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger, mx *metrics.Metrics) *SyncService {
	return &SyncService{
		db:          db,
		repomanager: m,
		log:         log.With("module", "sync"),
		metrics:     mx,
		now:         time.Now,
	}
}

// Pull returns the account's changes with version >= since, ascending.
func (s *SyncService) Pull(ctx context.Context, accountID string, since int64, cred auth.Credential) ([]*models.Change, error) {
	if since < 0 {
		return nil, fmt.Errorf("%w: since must not be negative", common.ErrorValidation)
	}

	account, err := lookupAccount(ctx, s.repomanager.Accounts(s.db), accountID)
	if err != nil {
		return nil, err
	}
	if !access.CanRead(account, cred) {
		return nil, common.ErrorUnauthorized
	}

	list, err := s.repomanager.Changes(s.db).ListSince(ctx, accountID, since)
	if err != nil {
		s.log.Error(ctx, "pull failed", "account", accountID, "since", since, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}

	s.metrics.PulledChanges.Add(float64(len(list)))
	return list, nil
}

// Push appends candidates to the account's log.
//
// Every candidate is bound to accountID; one that names a different
// account fails the whole request before anything is written. Items are
// then appended one by one, each on its own: an item whose hash is already
// stored is skipped, an item the store refuses (unknown client, bad
// payload) is logged and skipped, and the rest carry on. Cancelling ctx
// stops the loop; items appended before that stay appended and are
// returned together with the context error.
func (s *SyncService) Push(ctx context.Context, accountID string, candidates []*models.Change, cred auth.Credential) (*PushResult, error) {
	account, err := lookupAccount(ctx, s.repomanager.Accounts(s.db), accountID)
	if err != nil {
		return nil, err
	}
	if !access.CanWrite(account, cred) {
		return nil, common.ErrorUnauthorized
	}

	for i, c := range candidates {
		if c.Account != nil && *c.Account != accountID {
			return nil, fmt.Errorf("%w: change %d belongs to account %q", common.ErrorValidation, i, *c.Account)
		}
		if c.Op == "" || c.Table == "" || c.Client == "" {
			return nil, fmt.Errorf("%w: change %d needs op, table and client", common.ErrorValidation, i)
		}
		if c.CreatedAt < 0 {
			return nil, fmt.Errorf("%w: change %d has negative createdAt", common.ErrorValidation, i)
		}
	}

	repo := s.repomanager.Changes(s.db)
	res := &PushResult{Committed: []*models.Change{}}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			s.record(res)
			return res, err
		}

		committed, hash, err := s.appendOne(ctx, repo, accountID, c)
		switch {
		case err == nil:
			res.Committed = append(res.Committed, committed)
		case errors.Is(err, common.ErrDuplicate):
			res.Duplicates++
		default:
			res.Rejected++
			s.log.Warn(ctx, "change rejected", "account", accountID, "hash", hash, "client", c.Client, "error", err)
		}
	}

	s.record(res)
	s.log.Info(ctx, "push processed", "account", accountID,
		"committed", len(res.Committed), "duplicates", res.Duplicates, "rejected", res.Rejected)
	return res, nil
}

// appendOne binds c to the account, fills in a missing createdAt, stores
// the canonical payload and inserts the item under its fingerprint. The
// caller's change is left untouched.
func (s *SyncService) appendOne(ctx context.Context, repo changes.Repository, accountID string, c *models.Change) (*models.Change, string, error) {
	item := *c
	item.Account = &accountID
	item.Version = 0
	if item.CreatedAt == 0 {
		item.CreatedAt = s.now().UnixMilli()
	}

	payload, err := changehash.Canonicalize(item.Payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	item.Payload = payload

	hash, err := changehash.Fingerprint(item.Fields())
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	item.Hash = hash

	committed, err := repo.Insert(ctx, &item)
	return committed, hash, err
}

func (s *SyncService) record(res *PushResult) {
	s.metrics.PushItems.WithLabelValues(metrics.ResultCommitted).Add(float64(len(res.Committed)))
	s.metrics.PushItems.WithLabelValues(metrics.ResultDuplicate).Add(float64(res.Duplicates))
	s.metrics.PushItems.WithLabelValues(metrics.ResultRejected).Add(float64(res.Rejected))
}

// lookupAccount maps repository errors to the sentinels callers report:
// ErrorNotFound stays as is, anything else becomes ErrorUnavailable.
func lookupAccount(ctx context.Context, repo accounts.Repository, accountID string) (*models.Account, error) {
	account, err := repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}
	return account, nil
}
