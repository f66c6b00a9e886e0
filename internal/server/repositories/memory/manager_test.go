package memory

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/kidsbank/internal/common"
	"github.com/dmitrijs2005/kidsbank/internal/server/models"
	"github.com/dmitrijs2005/kidsbank/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ repomanager.RepositoryManager = (*InMemoryRepositoryManager)(nil)

func strPtr(s string) *string { return &s }

func TestInMemory_ChangeConstraints(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()

	_, err := m.Accounts(nil).Create(ctx, &models.Account{ID: "a", Name: "A", Birthday: "2015-01-01"})
	require.NoError(t, err)
	require.NoError(t, m.Clients(nil).Register(ctx, "c"))
	require.NoError(t, m.Clients(nil).Register(ctx, "c"))

	c1, err := m.Changes(nil).Insert(ctx, &models.Change{Hash: "h1", Account: strPtr("a"), Op: "insert", Table: "txs", Client: "c"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), c1.Version)

	_, err = m.Changes(nil).Insert(ctx, &models.Change{Hash: "h1", Account: strPtr("a"), Op: "insert", Table: "txs", Client: "c"})
	assert.ErrorIs(t, err, common.ErrDuplicate)

	_, err = m.Changes(nil).Insert(ctx, &models.Change{Hash: "h2", Account: strPtr("a"), Op: "insert", Table: "txs", Client: "x"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = m.Changes(nil).Insert(ctx, &models.Change{Hash: "h3", Account: strPtr("zz"), Op: "insert", Table: "txs", Client: "c"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	c4, err := m.Changes(nil).Insert(ctx, &models.Change{Hash: "h4", Account: strPtr("a"), Op: "insert", Table: "txs", Client: "c"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), c4.Version)

	list, err := m.Changes(nil).ListSince(ctx, "a", 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "h4", list[0].Hash)

	n, err := m.Changes(nil).CountSince(ctx, "a", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestInMemory_Accounts(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryRepositoryManager()

	_, err := m.Accounts(nil).Create(ctx, &models.Account{ID: "b"})
	require.NoError(t, err)
	_, err = m.Accounts(nil).Create(ctx, &models.Account{ID: "a"})
	require.NoError(t, err)
	_, err = m.Accounts(nil).Create(ctx, &models.Account{ID: "a"})
	assert.ErrorIs(t, err, common.ErrDuplicate)

	list, err := m.Accounts(nil).List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)

	_, err = m.Accounts(nil).GetByID(ctx, "zz")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
