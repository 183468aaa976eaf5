package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testValidator(t *testing.T) *JWTValidator {
	t.Helper()
	validator, err := NewJWTValidator(JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     testSecret,
		Issuer:        "focusloop",
		Audience:      []string{"focusloop-api"},
	})
	require.NoError(t, err)
	return validator
}

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user-1",
		"email": "user@example.com",
		"iss":   "focusloop",
		"aud":   "focusloop-api",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func TestNewJWTValidator(t *testing.T) {
	t.Run("requires secret", func(t *testing.T) {
		_, err := NewJWTValidator(JWTConfig{SigningMethod: "HS256"})
		assert.Error(t, err)
	})

	t.Run("rejects non hmac methods", func(t *testing.T) {
		_, err := NewJWTValidator(JWTConfig{SigningMethod: "RS256", SecretKey: testSecret})
		assert.Error(t, err)
	})

	t.Run("rejects unknown methods", func(t *testing.T) {
		_, err := NewJWTValidator(JWTConfig{SigningMethod: "XX512", SecretKey: testSecret})
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	validator := testValidator(t)

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.SigningMethodHS256, baseClaims())

		claims, err := validator.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "user@example.com", claims.Email)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := baseClaims()
		claims["exp"] = time.Now().Add(-time.Minute).Unix()
		token := signToken(t, testSecret, jwt.SigningMethodHS256, claims)

		_, err := validator.Validate(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "other-secret", jwt.SigningMethodHS256, baseClaims())

		_, err := validator.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("wrong signing method", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.SigningMethodHS384, baseClaims())

		_, err := validator.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := baseClaims()
		delete(claims, "sub")
		token := signToken(t, testSecret, jwt.SigningMethodHS256, claims)

		_, err := validator.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := baseClaims()
		claims["iss"] = "someone-else"
		token := signToken(t, testSecret, jwt.SigningMethodHS256, claims)

		_, err := validator.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		claims := baseClaims()
		claims["aud"] = "other-api"
		token := signToken(t, testSecret, jwt.SigningMethodHS256, claims)

		_, err := validator.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := validator.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestUserContext(t *testing.T) {
	ctx := SetUserInContext(context.Background(), &UserContext{UserID: "user-1", Email: "user@example.com"})

	user := GetUserFromContext(ctx)
	require.NotNil(t, user)
	assert.Equal(t, "user-1", user.UserID)

	userID, ok := GetUserID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user-1", userID)

	_, ok = GetUserID(context.Background())
	assert.False(t, ok)
}
