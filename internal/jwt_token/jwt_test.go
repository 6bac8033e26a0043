package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "sacra360/pkg/domain-errors"
)

func newTestService(ttl time.Duration) *JWTService {
	return NewJWTService("test-signing-key", "sacra360-test", ttl)
}

func Test_GenerateAndValidate(t *testing.T) {
	svc := newTestService(time.Hour)
	token, err := svc.GenerateAccessToken(42, "maria@parroquia.bo", "secretaria")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.Equal(t, "secretaria", claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := newTestService(time.Hour).ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	svc := newTestService(-time.Hour)
	token, err := svc.GenerateAccessToken(1, "a", "admin")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	de, ok := dErrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "el token ha expirado", de.Message)
}

func Test_ValidateToken_WrongKeyOrIssuer(t *testing.T) {
	token, err := NewJWTService("other-key", "sacra360-test", time.Hour).GenerateAccessToken(1, "a", "admin")
	require.NoError(t, err)
	_, err = newTestService(time.Hour).ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	token, err = NewJWTService("test-signing-key", "someone-else", time.Hour).GenerateAccessToken(1, "a", "admin")
	require.NoError(t, err)
	_, err = newTestService(time.Hour).ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_RejectsNonNumericSubject(t *testing.T) {
	svc := newTestService(time.Hour)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-number",
			Issuer:    "sacra360-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_AdapterMapsClaims(t *testing.T) {
	svc := newTestService(time.Hour)
	token, err := svc.GenerateAccessToken(7, "padre.juan", "sacerdote")
	require.NoError(t, err)

	claims, err := NewJWTServiceAdapter(svc).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "padre.juan", claims.Username)
	assert.Equal(t, "sacerdote", claims.Role)
}
