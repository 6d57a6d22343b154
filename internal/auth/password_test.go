package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("client_password1")
	require.NoError(t, err)
	assert.NotEqual(t, "client_password1", hash)

	assert.True(t, CheckPassword("client_password1", hash))
	assert.False(t, CheckPassword("wrong", hash))
	assert.False(t, CheckPassword("client_password1", "not-a-hash"))
}
