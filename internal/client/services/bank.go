// Package services contains the application services of the KidsBank CLI:
// device registration, credentials, the local outbox and pull cache, and
// the balance derived from them.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/kidsbank/internal/changehash"
	"github.com/dmitrijs2005/kidsbank/internal/client/client"
	"github.com/dmitrijs2005/kidsbank/internal/client/repositories/changes"
	"github.com/dmitrijs2005/kidsbank/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/kidsbank/internal/client/repositories/outbox"
	"github.com/dmitrijs2005/kidsbank/internal/common"
	"github.com/dmitrijs2005/kidsbank/internal/wire"
	"github.com/oklog/ulid/v2"
)

// Transaction is the payload of a txs insert change. Amount is positive for
// deposits and negative for withdrawals.
type Transaction struct {
	Account     string `json:"account"`
	Description string `json:"description,omitempty"`
	Amount      int64  `json:"amount"`
	Date        string `json:"date"`
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

// SyncResult reports one sync round.
type SyncResult struct {
	Pushed    int
	Committed int
	Pulled    int
	Cursor    int64
}

// BankService is what the CLI commands call.
type BankService interface {
	EnsureRegistered(ctx context.Context) (string, error)
	CreateAccount(ctx context.Context, name, birthday, password string) (string, error)
	Accounts(ctx context.Context) ([]wire.Account, error)
	Login(ctx context.Context, accountID, password string) error
	Logout(ctx context.Context) error
	AddTransaction(ctx context.Context, accountID, description string, amount int64, date string) (wire.Change, error)
	Sync(ctx context.Context, accountID string) (*SyncResult, error)
	Transactions(ctx context.Context, accountID string) ([]Transaction, error)
	Balance(ctx context.Context, accountID string) (int64, error)
	Export(ctx context.Context, accountID string) (*wire.ExportResponse, error)
}

type bankService struct {
	client client.Client
	db     *sql.DB
	now    func() time.Time
	newID  func() string
}

func NewBankService(c client.Client, db *sql.DB) BankService {
	return &bankService{
		client: c,
		db:     db,
		now:    time.Now,
		newID:  func() string { return ulid.Make().String() },
	}
}

func (s *bankService) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(s.db)
}

func (s *bankService) getOutboxRepo() outbox.Repository {
	return outbox.NewSQLiteRepository(s.db)
}

func (s *bankService) getChangesRepo() changes.Repository {
	return changes.NewSQLiteRepository(s.db)
}

// clientID returns this device's id, generating and storing one on first
// use.
func (s *bankService) clientID(ctx context.Context) (string, error) {
	repo := s.getMetadataRepo()

	id, err := metadata.GetString(ctx, repo, metadata.KeyClientID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	id = s.newID()
	if err := metadata.SetString(ctx, repo, metadata.KeyClientID, id); err != nil {
		return "", err
	}
	return id, nil
}

// EnsureRegistered registers the device with the server once. The memo is
// only written after the server accepted the id, so a failed attempt is
// retried on the next call.
func (s *bankService) EnsureRegistered(ctx context.Context) (string, error) {
	id, err := s.clientID(ctx)
	if err != nil {
		return "", err
	}

	repo := s.getMetadataRepo()
	done, err := metadata.GetString(ctx, repo, metadata.KeyClientRegistered)
	if err != nil {
		return "", err
	}
	if done == id {
		return id, nil
	}

	if err := s.client.RegisterClient(ctx, id); err != nil {
		return "", fmt.Errorf("register client: %w", err)
	}
	if err := metadata.SetString(ctx, repo, metadata.KeyClientRegistered, id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *bankService) token(ctx context.Context) (string, error) {
	return metadata.GetString(ctx, s.getMetadataRepo(), metadata.KeyToken)
}

func (s *bankService) CreateAccount(ctx context.Context, name, birthday, password string) (string, error) {
	return s.client.CreateAccount(ctx, wire.CreateAccountRequest{Name: name, Birthday: birthday, Password: password})
}

func (s *bankService) Accounts(ctx context.Context) ([]wire.Account, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.ListAccounts(ctx, token)
}

// Login exchanges the account password for a token that also keeps the
// accounts the stored token already covered.
func (s *bankService) Login(ctx context.Context, accountID, password string) error {
	existing, err := s.token(ctx)
	if err != nil {
		return err
	}

	token, err := s.client.AuthToken(ctx, accountID, password, existing)
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}

	return metadata.SetString(ctx, s.getMetadataRepo(), metadata.KeyToken, token)
}

func (s *bankService) Logout(ctx context.Context) error {
	return s.getMetadataRepo().Delete(ctx, metadata.KeyToken)
}

// AddTransaction records a transaction locally. It reaches the server on
// the next Sync.
func (s *bankService) AddTransaction(ctx context.Context, accountID, description string, amount int64, date string) (wire.Change, error) {
	if strings.TrimSpace(accountID) == "" {
		return wire.Change{}, fmt.Errorf("%w: account is required", common.ErrorValidation)
	}
	if _, err := time.Parse(common.DateFormat, date); err != nil {
		return wire.Change{}, fmt.Errorf("%w: date must be %s", common.ErrorValidation, common.DateFormat)
	}

	clientID, err := s.clientID(ctx)
	if err != nil {
		return wire.Change{}, err
	}

	now := s.now().UnixMilli()
	payload, err := json.Marshal(Transaction{
		Account:     accountID,
		Description: description,
		Amount:      amount,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return wire.Change{}, err
	}
	canonical, err := changehash.Canonicalize(payload)
	if err != nil {
		return wire.Change{}, err
	}

	c := wire.Change{
		Account:   &accountID,
		Op:        common.OpInsert,
		Table:     common.TableTxs,
		Payload:   canonical,
		Client:    clientID,
		CreatedAt: now,
	}
	c.Hash, err = changehash.Fingerprint(changehash.Fields{
		Account:   c.Account,
		Op:        c.Op,
		Table:     c.Table,
		Key:       c.Key,
		Payload:   c.Payload,
		Client:    c.Client,
		CreatedAt: c.CreatedAt,
	})
	if err != nil {
		return wire.Change{}, err
	}

	if err := s.getOutboxRepo().Add(ctx, accountID, c, now); err != nil {
		return wire.Change{}, err
	}
	return c, nil
}

// Sync pushes the account's outbox and pulls what is new since the stored
// cursor. A push answered with 201 empties the outbox: every queued change
// is then either in the response or was already stored by the server.
func (s *bankService) Sync(ctx context.Context, accountID string) (*SyncResult, error) {
	if _, err := s.EnsureRegistered(ctx); err != nil {
		return nil, err
	}
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}

	res := &SyncResult{}

	ob := s.getOutboxRepo()
	pending, err := ob.Pending(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		outgoing := make([]wire.Change, len(pending))
		hashes := make([]string, len(pending))
		for i, c := range pending {
			hashes[i] = c.Hash
			c.Hash = ""
			outgoing[i] = c
		}

		committed, err := s.client.Push(ctx, accountID, outgoing, token)
		if err != nil {
			return nil, fmt.Errorf("push: %w", err)
		}
		if err := ob.Remove(ctx, hashes); err != nil {
			return nil, err
		}
		res.Pushed = len(pending)
		res.Committed = len(committed)
	}

	mr := s.getMetadataRepo()
	cursorKey := metadata.CursorKey(accountID)
	cursor, err := metadata.GetInt64(ctx, mr, cursorKey)
	if err != nil {
		return nil, err
	}

	pulled, err := s.client.Pull(ctx, accountID, cursor, token)
	if err != nil {
		return nil, fmt.Errorf("pull: %w", err)
	}
	if err := s.getChangesRepo().Save(ctx, accountID, pulled); err != nil {
		return nil, err
	}
	for _, c := range pulled {
		if c.Ver+1 > cursor {
			cursor = c.Ver + 1
		}
	}
	if err := metadata.SetInt64(ctx, mr, cursorKey, cursor); err != nil {
		return nil, err
	}

	res.Pulled = len(pulled)
	res.Cursor = cursor
	return res, nil
}

// Transactions returns the account's transactions known locally, synced
// and pending, newest date first.
func (s *bankService) Transactions(ctx context.Context, accountID string) ([]Transaction, error) {
	cached, err := s.getChangesRepo().List(ctx, accountID)
	if err != nil {
		return nil, err
	}
	pending, err := s.getOutboxRepo().Pending(ctx, accountID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(cached))
	var txs []Transaction
	for _, c := range append(cached, pending...) {
		if c.Table != common.TableTxs || c.Op != common.OpInsert || len(c.Payload) == 0 {
			continue
		}
		if _, dup := seen[c.Hash]; dup {
			continue
		}
		seen[c.Hash] = struct{}{}

		var tx Transaction
		if err := json.Unmarshal(c.Payload, &tx); err != nil {
			continue
		}
		txs = append(txs, tx)
	}

	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Date != txs[j].Date {
			return txs[i].Date > txs[j].Date
		}
		return txs[i].CreatedAt > txs[j].CreatedAt
	})
	return txs, nil
}

func (s *bankService) Balance(ctx context.Context, accountID string) (int64, error) {
	txs, err := s.Transactions(ctx, accountID)
	if err != nil {
		return 0, err
	}
	var sum int64
	for _, tx := range txs {
		sum += tx.Amount
	}
	return sum, nil
}

func (s *bankService) Export(ctx context.Context, accountID string) (*wire.ExportResponse, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.Export(ctx, accountID, token)
}
