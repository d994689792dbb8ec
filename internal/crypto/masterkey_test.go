package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMasterKey(t *testing.T) {
	key, err := NewMasterKey()
	require.NoError(t, err)
	require.Len(t, key, KeySize)

	other, err := NewMasterKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, other, "Two keys should differ")
}

func TestDeriveKey(t *testing.T) {
	master, err := NewMasterKey()
	require.NoError(t, err)

	a, err := DeriveKey(master, "credkit/items")
	require.NoError(t, err)
	require.Len(t, a, KeySize)
	again, err := DeriveKey(master, "credkit/items")
	require.NoError(t, err)
	b, err := DeriveKey(master, "credkit/other")
	require.NoError(t, err)

	assert.Equal(t, a, again, "Derivation should be deterministic")
	assert.NotEqual(t, a, b, "Different purposes should give different keys")
	assert.NotEqual(t, master, a)

	_, err = DeriveKey(master[:16], "credkit/items")
	assert.ErrorContains(t, err, "too short")
}
