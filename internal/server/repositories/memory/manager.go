// Package memory provides an in-process RepositoryManager with the same
// observable behaviour as the PostgreSQL schema: unique hashes, client and
// account references, and a never-reused version sequence. It ignores the
// DBTX it is handed, so callers may pass nil.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/kidsbank/internal/common"
	"github.com/dmitrijs2005/kidsbank/internal/dbx"
	"github.com/dmitrijs2005/kidsbank/internal/server/models"
	"github.com/dmitrijs2005/kidsbank/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/kidsbank/internal/server/repositories/changes"
	"github.com/dmitrijs2005/kidsbank/internal/server/repositories/clients"
)

type store struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	clients  map[string]struct{}
	changes  []*models.Change
	hashes   map[string]struct{}
	seq      int64
}

type InMemoryRepositoryManager struct {
	s *store
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{s: &store{
		accounts: map[string]*models.Account{},
		clients:  map[string]struct{}{},
		hashes:   map[string]struct{}{},
	}}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Accounts(dbx.DBTX) accounts.Repository {
	return accountRepo{m.s}
}

func (m *InMemoryRepositoryManager) Clients(dbx.DBTX) clients.Repository {
	return clientRepo{m.s}
}

func (m *InMemoryRepositoryManager) Changes(dbx.DBTX) changes.Repository {
	return changeRepo{m.s}
}

type accountRepo struct{ s *store }

func (r accountRepo) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[a.ID]; ok {
		return nil, common.ErrDuplicate
	}
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	r.s.accounts[a.ID] = &cp
	return a, nil
}

func (r accountRepo) GetByID(ctx context.Context, id string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.accounts[id]
	if !ok || a.DeletedAt != nil {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (r accountRepo) List(ctx context.Context) ([]*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*models.Account{}
	for _, a := range r.s.accounts {
		if a.DeletedAt == nil {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type clientRepo struct{ s *store }

func (r clientRepo) Register(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.clients[id] = struct{}{}
	return nil
}

func (r clientRepo) Exists(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, ok := r.s.clients[id]
	return ok, nil
}

type changeRepo struct{ s *store }

func (r changeRepo) Insert(ctx context.Context, c *models.Change) (*models.Change, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, dup := r.s.hashes[c.Hash]; dup {
		return nil, common.ErrDuplicate
	}
	if _, ok := r.s.clients[c.Client]; !ok {
		return nil, fmt.Errorf("%w: changes_client_fkey", common.ErrorValidation)
	}
	if c.Account != nil {
		if _, ok := r.s.accounts[*c.Account]; !ok {
			return nil, fmt.Errorf("%w: changes_account_fkey", common.ErrorValidation)
		}
	}

	r.s.seq++
	c.Version = r.s.seq
	cp := *c
	r.s.changes = append(r.s.changes, &cp)
	r.s.hashes[c.Hash] = struct{}{}
	return c, nil
}

func (r changeRepo) ListSince(ctx context.Context, accountID string, minVersion int64) ([]*models.Change, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*models.Change{}
	for _, c := range r.s.changes {
		if c.Account != nil && *c.Account == accountID && c.Version >= minVersion {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r changeRepo) CountSince(ctx context.Context, accountID string, minVersion int64) (int64, error) {
	list, err := r.ListSince(ctx, accountID, minVersion)
	return int64(len(list)), err
}
