package security

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func TestEncryptRoundTrip(t *testing.T) {
	enc, err := NewAESEncryptor(testKey())
	require.NoError(t, err)

	sealed, err := enc.Encrypt([]byte(`{"identifier":"7012345677"}`))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "7012345677")

	again, err := enc.Encrypt([]byte(`{"identifier":"7012345677"}`))
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "every seal uses a fresh nonce")

	plain, err := enc.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, `{"identifier":"7012345677"}`, string(plain))
}

func TestDecryptRejectsTampering(t *testing.T) {
	enc, err := NewAESEncryptor(testKey())
	require.NoError(t, err)

	sealed, err := enc.Encrypt([]byte("session"))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff

	_, err = enc.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrDecryption)

	_, err = enc.Decrypt([]byte("short"))
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestParseKey(t *testing.T) {
	key, err := ParseKey(base64.StdEncoding.EncodeToString(testKey()))
	require.NoError(t, err)
	assert.Equal(t, testKey(), key)

	_, err = ParseKey(base64.StdEncoding.EncodeToString([]byte("too short")))
	assert.ErrorIs(t, err, ErrInvalidKeySize)

	_, err = ParseKey("not base64!")
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}
