package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careplus/frontdesk/pkg/security"
)

func TestHashPassword(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, hashPassword(strings.NewReader("admin-pass\n"), &out))

	hash := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(hash, "$2a$"))
	assert.NoError(t, security.NewBcryptHasher(4).Compare(hash, "admin-pass"))
}

func TestHashPasswordTooShort(t *testing.T) {
	var out bytes.Buffer
	err := hashPassword(strings.NewReader("abc"), &out)
	assert.ErrorIs(t, err, security.ErrPasswordShort)
	assert.Empty(t, out.String())
}
