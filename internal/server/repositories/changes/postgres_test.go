package changes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/kidsbank/internal/common"
	"github.com/dmitrijs2005/kidsbank/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	insertQ = `(?s)^INSERT\s+INTO\s+changes\s*\(hash,\s*account,\s*op,\s*table_name,\s*key,\s*payload,\s*client,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7,\s*\$8\)\s*ON\s+CONFLICT\s*\(hash\)\s*DO\s+NOTHING\s*RETURNING\s+version\s*$`
	listQ   = `(?s)^SELECT\s+version,\s*hash,\s*account,\s*op,\s*table_name,\s*key,\s*payload,\s*client,\s*created_at\s+FROM\s+changes\s+WHERE\s+account\s*=\s*\$1\s+AND\s+version\s*>=\s*\$2\s+ORDER\s+BY\s+version\s*$`
	countQ  = `(?s)^SELECT\s+count\(\*\)\s+FROM\s+changes\s+WHERE\s+account\s*=\s*\$1\s+AND\s+version\s*>=\s*\$2$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func ptr(s string) *string { return &s }

func sampleChange() *models.Change {
	return &models.Change{
		Hash:      "abc",
		Account:   ptr("acc-1"),
		Op:        "insert",
		Table:     "txs",
		Key:       ptr("k1"),
		Payload:   json.RawMessage(`{"amount":5}`),
		Client:    "cli-1",
		CreatedAt: 1700000000000,
	}
}

func TestInsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("abc", "acc-1", "insert", "txs", "k1", []byte(`{"amount":5}`), "cli-1", int64(1700000000000)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(17)))

	got, err := repo.Insert(context.Background(), sampleChange())
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if got.Version != 17 {
		t.Fatalf("unexpected version: %d", got.Version)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsert_NullableFieldsSentAsNull(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	c := sampleChange()
	c.Account = nil
	c.Key = nil
	c.Payload = nil

	mock.ExpectQuery(insertQ).
		WithArgs("abc", nil, "insert", "txs", nil, []byte(nil), "cli-1", int64(1700000000000)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(1)))

	if _, err := repo.Insert(context.Background(), c); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
}

func TestInsert_ConflictIsDuplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	_, err := repo.Insert(context.Background(), sampleChange())
	if !errors.Is(err, common.ErrDuplicate) {
		t.Fatalf("want common.ErrDuplicate, got %v", err)
	}
}

func TestInsert_ForeignKeyIsValidation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "changes_client_fkey"})

	_, err := repo.Insert(context.Background(), sampleChange())
	if !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("want common.ErrorValidation, got %v", err)
	}
	if !regexp.MustCompile(`changes_client_fkey`).MatchString(err.Error()) {
		t.Fatalf("constraint name missing: %v", err)
	}
}

func TestInsert_RacingUniqueIsDuplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Insert(context.Background(), sampleChange())
	if !errors.Is(err, common.ErrDuplicate) {
		t.Fatalf("want common.ErrDuplicate, got %v", err)
	}
}

func TestInsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WillReturnError(errors.New("db down"))

	_, err := repo.Insert(context.Background(), sampleChange())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestListSince_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"version", "hash", "account", "op", "table_name", "key", "payload", "client", "created_at"}).
		AddRow(int64(3), "h3", "acc-1", "insert", "txs", "k3", []byte(`{"a":1}`), "cli-1", int64(10)).
		AddRow(int64(5), "h5", "acc-1", "insert", "txs", nil, nil, "cli-2", int64(11))
	mock.ExpectQuery(listQ).
		WithArgs("acc-1", int64(3)).
		WillReturnRows(rows)

	got, err := repo.ListSince(context.Background(), "acc-1", 3)
	if err != nil {
		t.Fatalf("ListSince error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected len: %d", len(got))
	}
	if got[0].Version != 3 || *got[0].Key != "k3" || string(got[0].Payload) != `{"a":1}` {
		t.Fatalf("unexpected first change: %+v", got[0])
	}
	if got[1].Key != nil || got[1].Payload != nil || got[1].Client != "cli-2" {
		t.Fatalf("unexpected second change: %+v", got[1])
	}
}

func TestListSince_EmptyIsNonNil(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(listQ).
		WithArgs("acc-1", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"version", "hash", "account", "op", "table_name", "key", "payload", "client", "created_at"}))

	got, err := repo.ListSince(context.Background(), "acc-1", 0)
	if err != nil {
		t.Fatalf("ListSince error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestListSince_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(listQ).
		WillReturnError(errors.New("db err"))

	_, err := repo.ListSince(context.Background(), "acc-1", 0)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCountSince(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(countQ).
		WithArgs("acc-1", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))

	n, err := repo.CountSince(context.Background(), "acc-1", 0)
	if err != nil {
		t.Fatalf("CountSince error: %v", err)
	}
	if n != 4 {
		t.Fatalf("unexpected count: %d", n)
	}
}
