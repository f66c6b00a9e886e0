package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/kidsbank/internal/common"
	"github.com/dmitrijs2005/kidsbank/internal/logging"
	"github.com/dmitrijs2005/kidsbank/internal/server/access"
	"github.com/dmitrijs2005/kidsbank/internal/server/auth"
	"github.com/dmitrijs2005/kidsbank/internal/server/config"
	"github.com/dmitrijs2005/kidsbank/internal/server/metrics"
	"github.com/dmitrijs2005/kidsbank/internal/server/models"
	"github.com/dmitrijs2005/kidsbank/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/kidsbank/internal/wire"
	"github.com/oklog/ulid/v2"
)

// AccountService creates and lists accounts and exchanges account passwords
// for credentials.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	issuer      *auth.Issuer
	bcryptCost  int
	log         logging.Logger
	metrics     *metrics.Metrics
	newID       func() string
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	issuer *auth.Issuer, log logging.Logger, mx *metrics.Metrics) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		issuer:      issuer,
		bcryptCost:  cfg.BcryptCost,
		log:         log.With("module", "accounts"),
		metrics:     mx,
		newID:       func() string { return ulid.Make().String() },
	}
}

// Create stores a new account and returns it. An empty password leaves the
// account public.
func (s *AccountService) Create(ctx context.Context, name, birthday, password string) (*models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	if _, err := time.Parse(common.DateFormat, birthday); err != nil {
		return nil, fmt.Errorf("%w: birthday must be %s", common.ErrorValidation, common.DateFormat)
	}

	account := &models.Account{ID: s.newID(), Name: name, Birthday: birthday}
	if password != "" {
		hash, err := auth.HashPassword(password, s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		account.Password = &hash
	}

	created, err := s.repomanager.Accounts(s.db).Create(ctx, account)
	if err != nil {
		s.log.Error(ctx, "account creation failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}

	s.log.Info(ctx, "account created", "account", created.ID, "protected", created.HasPassword())
	return created, nil
}

// List returns every account, each projected for cred: birthdays of
// accounts cred cannot read are withheld.
func (s *AccountService) List(ctx context.Context, cred auth.Credential) ([]wire.Account, error) {
	list, err := s.repomanager.Accounts(s.db).List(ctx)
	if err != nil {
		s.log.Error(ctx, "account list failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}

	out := make([]wire.Account, 0, len(list))
	for _, a := range list {
		out = append(out, access.Project(a, access.CanRead(a, cred)))
	}
	return out, nil
}

// Authenticate verifies the account password and returns a token whose
// authorized set is existing's set plus accountID.
func (s *AccountService) Authenticate(ctx context.Context, accountID, password string, existing auth.Credential) (string, error) {
	token, err := s.authenticate(ctx, accountID, password, existing)

	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorNotFound):
		result = "not_found"
	case errors.Is(err, common.ErrNoPasswordSet):
		result = "no_password"
	case errors.Is(err, common.ErrInvalidCredential):
		result = "invalid_password"
	default:
		result = "error"
	}
	s.metrics.AuthAttempts.WithLabelValues(result).Inc()

	return token, err
}

func (s *AccountService) authenticate(ctx context.Context, accountID, password string, existing auth.Credential) (string, error) {
	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		s.log.Error(ctx, "account lookup failed", "account", accountID, "error", err)
		return "", fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}

	if !account.HasPassword() {
		return "", common.ErrNoPasswordSet
	}
	if !auth.VerifyPassword(password, *account.Password) {
		s.log.Warn(ctx, "invalid password", "account", accountID)
		return "", common.ErrInvalidCredential
	}

	token, issued, err := s.issuer.Issue(existing.Grant(accountID))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.log.Info(ctx, "credential issued", "account", accountID, "authorized", len(issued.AuthorizedAccounts))
	return token, nil
}
