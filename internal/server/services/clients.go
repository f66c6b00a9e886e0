package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/kidsbank/internal/common"
	"github.com/dmitrijs2005/kidsbank/internal/logging"
	"github.com/dmitrijs2005/kidsbank/internal/server/repositories/repomanager"
)

// ClientService keeps the registry of device IDs that may author changes.
type ClientService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewClientService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *ClientService {
	return &ClientService{db: db, repomanager: m, log: log.With("module", "clients")}
}

// Register records the client ID. Registering the same ID again succeeds
// without effect, so clients may call it on every start.
func (s *ClientService) Register(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty client id", common.ErrorValidation)
	}

	if err := s.repomanager.Clients(s.db).Register(ctx, id); err != nil {
		s.log.Error(ctx, "client registration failed", "client", id, "error", err)
		return fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}

	s.log.Debug(ctx, "client registered", "client", id)
	return nil
}
