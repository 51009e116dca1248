package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	tok, err := Sign("s3cret", "u1", "user", "jti-1")
	require.NoError(t, err)

	claims, err := Verify("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "jti-1", claims.JWTID)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok, err := Sign("s3cret", "u1", "user", "jti-1")
	require.NoError(t, err)

	_, err = Verify("other-secret", tok)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := Verify("s3cret", "not.a.token")
	assert.Error(t, err)
}
