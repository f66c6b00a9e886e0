package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/kidsbank/internal/common"
	"github.com/dmitrijs2005/kidsbank/internal/dbx"
	"github.com/dmitrijs2005/kidsbank/internal/server/models"
	"github.com/dmitrijs2005/kidsbank/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/kidsbank/internal/server/repositories/changes"
	"github.com/dmitrijs2005/kidsbank/internal/server/repositories/clients"
)

// memStore is an in-memory stand-in for the PostgreSQL schema: hash
// uniqueness, client and account foreign keys, and a version sequence.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	clients  map[string]bool
	changes  []*models.Change
	seq      int64

	// failures injected by tests
	getErr    error
	listErr   error
	createErr error
	insertErr func(c *models.Change) error
	changeErr error
}

func newMemStore() *memStore {
	return &memStore{accounts: map[string]*models.Account{}, clients: map[string]bool{}}
}

type memAccounts struct{ s *memStore }

func (r memAccounts) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createErr != nil {
		return nil, r.s.createErr
	}
	if _, ok := r.s.accounts[a.ID]; ok {
		return nil, common.ErrDuplicate
	}
	cp := *a
	r.s.accounts[a.ID] = &cp
	return a, nil
}

func (r memAccounts) GetByID(ctx context.Context, id string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.getErr != nil {
		return nil, r.s.getErr
	}
	a, ok := r.s.accounts[id]
	if !ok || a.DeletedAt != nil {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (r memAccounts) List(ctx context.Context) ([]*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.listErr != nil {
		return nil, r.s.listErr
	}
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

type memClients struct{ s *memStore }

func (r memClients) Register(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createErr != nil {
		return r.s.createErr
	}
	r.s.clients[id] = true
	return nil
}

func (r memClients) Exists(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.clients[id], nil
}

type memChanges struct{ s *memStore }

func (r memChanges) Insert(ctx context.Context, c *models.Change) (*models.Change, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.insertErr != nil {
		if err := r.s.insertErr(c); err != nil {
			return nil, err
		}
	}
	for _, existing := range r.s.changes {
		if existing.Hash == c.Hash {
			return nil, common.ErrDuplicate
		}
	}
	if !r.s.clients[c.Client] {
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
	return c, nil
}

func (r memChanges) ListSince(ctx context.Context, accountID string, minVersion int64) ([]*models.Change, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.changeErr != nil {
		return nil, r.s.changeErr
	}
	out := []*models.Change{}
	for _, c := range r.s.changes {
		if c.Account != nil && *c.Account == accountID && c.Version >= minVersion {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memChanges) CountSince(ctx context.Context, accountID string, minVersion int64) (int64, error) {
	list, err := r.ListSince(ctx, accountID, minVersion)
	return int64(len(list)), err
}

// fakeRepoManager vends the in-memory repositories for any DBTX.
type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accounts.Repository     { return memAccounts{m.s} }
func (m *fakeRepoManager) Clients(db dbx.DBTX) clients.Repository       { return memClients{m.s} }
func (m *fakeRepoManager) Changes(db dbx.DBTX) changes.Repository       { return memChanges{m.s} }

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func strPtr(s string) *string { return &s }

var errBoom = errors.New("boom")
