package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jonathan/pathfinder/internal/config"
	"github.com/jonathan/pathfinder/internal/server/middleware"
)

// UserClaims identifies the student a launch is made for. Older tokens carry
// the ID only as the subject.
type UserClaims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

// GetUserID implements middleware.UserIDGetter.
func (c *UserClaims) GetUserID() uuid.UUID {
	return c.UserID
}

// UserTokens signs and checks the HS256 bearer tokens accepted by the launch endpoint.
type UserTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

var _ middleware.TokenValidator = (*UserTokens)(nil)

// NewUserTokens creates a UserTokens from the JWT configuration.
func NewUserTokens(cfg *config.JWTConfig) *UserTokens {
	return &UserTokens{
		secret: []byte(cfg.Secret),
		ttl:    time.Duration(cfg.ExpirationHours) * time.Hour,
		now:    time.Now,
	}
}

// Issue signs a token for userID and returns it with its expiry.
func (t *UserTokens) Issue(userID uuid.UUID) (string, time.Time, error) {
	issuedAt := t.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(t.ttl)

	claims := &UserClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign user token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies a token's signature and lifetime and returns its claims.
// A token that names no user is rejected.
func (t *UserTokens) Parse(token string) (*UserClaims, error) {
	if token == "" {
		return nil, errors.New("token string is empty")
	}

	claims := &UserClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now))
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, fmt.Errorf("invalid token signature: %w", err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("token expired: %w", err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, fmt.Errorf("malformed token: %w", err)
	default:
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims.UserID == uuid.Nil {
		id, err := uuid.Parse(claims.Subject)
		if err != nil || id == uuid.Nil {
			return nil, errors.New("token does not name a user")
		}
		claims.UserID = id
	}
	return claims, nil
}

// ValidateToken implements middleware.TokenValidator.
func (t *UserTokens) ValidateToken(token string) (middleware.UserIDGetter, error) {
	claims, err := t.Parse(token)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
