package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/pathfinder/internal/config"
)

const testJWTSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func newTestTokens(expirationHours int) *UserTokens {
	return NewUserTokens(&config.JWTConfig{Secret: testJWTSecret, ExpirationHours: expirationHours})
}

func TestUserTokens_Issue(t *testing.T) {
	tokens := newTestTokens(24)
	userID := uuid.New()

	token, expiresAt, err := tokens.Issue(userID)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.Equal(t, 24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	assert.True(t, expiresAt.Equal(claims.ExpiresAt.Time))
}

func TestUserTokens_DifferentUsers(t *testing.T) {
	tokens := newTestTokens(24)
	userID1, userID2 := uuid.New(), uuid.New()

	token1, _, err := tokens.Issue(userID1)
	require.NoError(t, err)
	token2, _, err := tokens.Issue(userID2)
	require.NoError(t, err)
	assert.NotEqual(t, token1, token2)

	claims1, err := tokens.Parse(token1)
	require.NoError(t, err)
	assert.Equal(t, userID1, claims1.UserID)

	claims2, err := tokens.Parse(token2)
	require.NoError(t, err)
	assert.Equal(t, userID2, claims2.UserID)
}

func TestUserTokens_InvalidSignature(t *testing.T) {
	other := NewUserTokens(&config.JWTConfig{
		Secret:          "different-secret-key-for-jwt-signing-minimum-32-bytes",
		ExpirationHours: 24,
	})
	token, _, err := newTestTokens(24).Issue(uuid.New())
	require.NoError(t, err)

	claims, err := other.Parse(token)
	assert.Nil(t, claims)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signature")
}

func TestUserTokens_Malformed(t *testing.T) {
	tokens := newTestTokens(24)

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"one part", "invalid"},
		{"two parts", "invalid.token"},
		{"four parts", "invalid.token.format.extra"},
		{"invalid base64", "invalid.base64.signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := tokens.Parse(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestUserTokens_Expiration(t *testing.T) {
	tokens := newTestTokens(1)
	issuedAt := time.Now()
	tokens.now = func() time.Time { return issuedAt }
	userID := uuid.New()

	token, _, err := tokens.Issue(userID)
	require.NoError(t, err)

	tokens.now = func() time.Time { return issuedAt.Add(59 * time.Minute) }
	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	tokens.now = func() time.Time { return issuedAt.Add(61 * time.Minute) }
	claims, err = tokens.Parse(token)
	assert.Nil(t, claims)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestUserTokens_RejectsOtherAlgorithms(t *testing.T) {
	tokens := newTestTokens(24)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &UserClaims{UserID: uuid.New()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &UserClaims{UserID: uuid.New()}).
		SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	for _, token := range []string{none, hs512} {
		claims, err := tokens.Parse(token)
		assert.Error(t, err)
		assert.Nil(t, claims)
	}
}

func TestUserTokens_SubjectOnly(t *testing.T) {
	tokens := newTestTokens(24)
	userID := uuid.New()
	sign := func(subject string) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &UserClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   subject,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString([]byte(testJWTSecret))
		require.NoError(t, err)
		return token
	}

	claims, err := tokens.Parse(sign(userID.String()))
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	_, err = tokens.Parse(sign("not-a-user"))
	assert.Error(t, err)
	_, err = tokens.Parse(sign(""))
	assert.Error(t, err)
}

func TestUserTokens_ValidateToken(t *testing.T) {
	tokens := newTestTokens(24)
	userID := uuid.New()
	token, _, err := tokens.Issue(userID)
	require.NoError(t, err)

	claims, err := tokens.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.GetUserID())

	claims, err = tokens.ValidateToken("garbage")
	assert.Error(t, err)
	assert.Nil(t, claims)
}
