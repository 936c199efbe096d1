package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSealKey = []byte("0123456789abcdef0123456789abcdef")

func TestSealOpenRoundTrip(t *testing.T) {
	sealed, err := seal(testSealKey, []byte("access-token-value"))
	require.NoError(t, err)
	assert.NotContains(t, sealed, "access-token-value")

	plain, err := open(testSealKey, sealed)
	require.NoError(t, err)
	assert.Equal(t, "access-token-value", string(plain))
}

func TestSealProducesDistinctCiphertexts(t *testing.T) {
	a, err := seal(testSealKey, []byte("same input"))
	require.NoError(t, err)
	b, err := seal(testSealKey, []byte("same input"))
	require.NoError(t, err)
	// Random nonce per seal.
	assert.NotEqual(t, a, b)
}

func TestOpenRejectsWrongKey(t *testing.T) {
	sealed, err := seal(testSealKey, []byte("secret"))
	require.NoError(t, err)

	otherKey := []byte("ffffffffffffffffffffffffffffffff")
	_, err = open(otherKey, sealed)
	assert.Error(t, err)
}

func TestOpenRejectsTruncatedInput(t *testing.T) {
	_, err := open(testSealKey, "AAAA")
	assert.Error(t, err)
}
