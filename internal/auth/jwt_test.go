package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func signHS256(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestValidateHS256(t *testing.T) {
	v, err := NewJWTValidatorHS256(testSecret)
	require.NoError(t, err)

	token := signHS256(t, testSecret, jwt.RegisteredClaims{
		Subject:   "acct-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	id, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "acct-42", id)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	v, err := NewJWTValidatorHS256(testSecret)
	require.NoError(t, err)

	token := signHS256(t, "some-other-secret", jwt.RegisteredClaims{Subject: "acct-42"})
	_, err = v.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	v, err := NewJWTValidatorHS256(testSecret)
	require.NoError(t, err)

	token := signHS256(t, testSecret, jwt.RegisteredClaims{
		Subject:   "acct-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	_, err = v.Validate(token)
	assert.Error(t, err)
}

func TestValidateRequiresSubject(t *testing.T) {
	v, err := NewJWTValidatorHS256(testSecret)
	require.NoError(t, err)

	token := signHS256(t, testSecret, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	_, err = v.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsUnexpectedMethod(t *testing.T) {
	v, err := NewJWTValidatorHS256(testSecret)
	require.NoError(t, err)

	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "acct-42"})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Validate(s)
	assert.Error(t, err)
}

func TestNewJWTValidatorHS256EmptySecret(t *testing.T) {
	_, err := NewJWTValidatorHS256("")
	assert.Error(t, err)
}
