package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("s3cret!")
	require.NoError(t, err)

	assert.NoError(t, h.Compare(hash, "s3cret!"))
	assert.ErrorIs(t, h.Compare(hash, "wrong"), ErrMismatch)
}

func TestHashRejectsShortPassword(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MinCost).Hash("12345")
	assert.ErrorIs(t, err, ErrPasswordShort)
}

func TestCompareMalformedHash(t *testing.T) {
	err := NewBcryptHasher(0).Compare("not-a-hash", "whatever")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)
}
