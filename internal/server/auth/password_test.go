package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	h, err := HashPassword("secret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "secret", h)

	assert.True(t, VerifyPassword("secret", h))
	assert.False(t, VerifyPassword("Secret", h))
	assert.False(t, VerifyPassword("secret", "not-a-hash"))
}

func TestHashPassword_CostOutOfRangeFallsBack(t *testing.T) {
	h, err := HashPassword("pw", 0)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
