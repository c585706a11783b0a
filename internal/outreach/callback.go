package outreach

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultCallbackTTL bounds how long an external workflow may report on a batch.
const DefaultCallbackTTL = 24 * time.Hour

// CallbackClaims scope a callback token to one batch.
type CallbackClaims struct {
	BatchID uuid.UUID `json:"batch_id"`
	jwt.RegisteredClaims
}

// CallbackSigner issues and checks the tokens external workflows present when
// they report progress on a batch.
type CallbackSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCallbackSigner creates a signer. A non-positive ttl uses DefaultCallbackTTL.
func NewCallbackSigner(secret string, ttl time.Duration) (*CallbackSigner, error) {
	if secret == "" {
		return nil, fmt.Errorf("callback secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultCallbackTTL
	}
	return &CallbackSigner{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue returns a token valid only for batchID.
func (s *CallbackSigner) Issue(batchID uuid.UUID) (string, error) {
	now := s.now()
	claims := &CallbackClaims{
		BatchID: batchID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   batchID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign callback token: %w", err)
	}
	return token, nil
}

// Verify checks the token signature and expiry and that it was issued for batchID.
func (s *CallbackSigner) Verify(tokenString string, batchID uuid.UUID) error {
	if tokenString == "" {
		return fmt.Errorf("callback token is empty")
	}

	claims := &CallbackClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return fmt.Errorf("invalid callback token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("callback token is not valid")
	}
	if claims.BatchID != batchID {
		return fmt.Errorf("callback token was issued for another batch")
	}
	return nil
}
