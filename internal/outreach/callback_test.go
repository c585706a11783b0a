package outreach

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackSigner_RoundTrip(t *testing.T) {
	signer, err := NewCallbackSigner("secret", time.Hour)
	require.NoError(t, err)
	batchID := uuid.New()

	token, err := signer.Issue(batchID)
	require.NoError(t, err)

	assert.NoError(t, signer.Verify(token, batchID))
	assert.ErrorContains(t, signer.Verify(token, uuid.New()), "another batch")
}

func TestCallbackSigner_Rejects(t *testing.T) {
	signer, err := NewCallbackSigner("secret", time.Hour)
	require.NoError(t, err)
	other, err := NewCallbackSigner("other-secret", time.Hour)
	require.NoError(t, err)
	batchID := uuid.New()

	foreign, err := other.Issue(batchID)
	require.NoError(t, err)
	assert.Error(t, signer.Verify(foreign, batchID))

	assert.ErrorContains(t, signer.Verify("", batchID), "empty")
	assert.Error(t, signer.Verify("not.a.token", batchID))
}

func TestCallbackSigner_Expiry(t *testing.T) {
	signer, err := NewCallbackSigner("secret", time.Minute)
	require.NoError(t, err)
	issuedAt := time.Now()
	signer.now = func() time.Time { return issuedAt }
	batchID := uuid.New()

	token, err := signer.Issue(batchID)
	require.NoError(t, err)

	signer.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	err = signer.Verify(token, batchID)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestCallbackSigner_RejectsNoneAlgorithm(t *testing.T) {
	signer, err := NewCallbackSigner("secret", time.Hour)
	require.NoError(t, err)
	batchID := uuid.New()

	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &CallbackClaims{BatchID: batchID}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	assert.Error(t, signer.Verify(token, batchID))
}

func TestNewCallbackSigner(t *testing.T) {
	_, err := NewCallbackSigner("", time.Hour)
	assert.Error(t, err)

	signer, err := NewCallbackSigner("secret", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCallbackTTL, signer.ttl)
}
