package crypto

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mt5panel/internal/apperr"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, KeySize)
}

func TestNewRejectsBadKeySizes(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33, 64} {
		_, err := New(bytes.Repeat([]byte{1}, n))
		assert.Error(t, err, "key of %d bytes must be rejected", n)
	}
	_, err := New(testKey())
	assert.NoError(t, err)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)

	for _, pt := range []string{
		"secret",
		"p@ssw0rd with spaces",
		strings.Repeat("x", 100),
		"exactly16bytes!!",
		"ünïcödé-пароль",
	} {
		env, err := c.Encrypt(pt)
		require.NoError(t, err)
		assert.NotEqual(t, pt, env)
		assert.Contains(t, env, ":")

		got, err := c.Decrypt(env)
		require.NoError(t, err)
		assert.Equal(t, pt, got)
	}
}

func TestEncryptUsesFreshIV(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)

	a, err := c.Encrypt("same plaintext")
	require.NoError(t, err)
	b, err := c.Encrypt("same plaintext")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "two encryptions of the same plaintext must differ")
}

func TestEmptyStringPassesThrough(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)

	env, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", env)

	pt, err := c.Decrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", pt)
}

func TestDecryptMalformedEnvelope(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)

	for _, env := range []string{
		"not-a-valid-envelope",
		"deadbeef",                      // no separator
		"zzzz:deadbeef",                 // bad iv hex
		"00112233445566778899aabbccdd:00", // short iv
		"00112233445566778899aabbccddeeff:", // empty ciphertext
		"00112233445566778899aabbccddeeff:abcdef", // ct not block-aligned
	} {
		_, err := c.Decrypt(env)
		assert.ErrorIs(t, err, apperr.ErrMalformedEnvelope, "envelope %q", env)
	}
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	c1, err := New(testKey())
	require.NoError(t, err)
	c2, err := New(bytes.Repeat([]byte{0x24}, KeySize))
	require.NoError(t, err)

	env, err := c1.Encrypt("broker-password")
	require.NoError(t, err)

	got, err := c2.Decrypt(env)
	if err == nil {
		// padding can coincidentally validate under the wrong key; the
		// plaintext still must not come back
		assert.NotEqual(t, "broker-password", got)
	} else {
		assert.ErrorIs(t, err, apperr.ErrDecryptFailed)
	}
}
