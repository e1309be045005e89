package token_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veristay/internal/platform/token"
)

func TestIssueAndParse(t *testing.T) {
	signer, err := token.NewSigner([]byte("test-signing-key"), "veristay", time.Hour)
	require.NoError(t, err)

	sessionID := uuid.New()
	verifiedAt := time.Now().Truncate(time.Second)

	signed, err := signer.Issue(sessionID, "user-1", "xxxx-xxxx-9012", verifiedAt)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := signer.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, sessionID.String(), claims.SessionID)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "xxxx-xxxx-9012", claims.IDFragment)
	assert.Equal(t, verifiedAt.Unix(), claims.VerifiedAt)
	assert.Equal(t, "veristay", claims.Issuer)
}

func TestParseRejectsWrongKey(t *testing.T) {
	signer, err := token.NewSigner([]byte("key-one"), "veristay", time.Hour)
	require.NoError(t, err)
	other, err := token.NewSigner([]byte("key-two"), "veristay", time.Hour)
	require.NoError(t, err)

	signed, err := signer.Issue(uuid.New(), "user-1", "xxxx-xxxx-9012", time.Now())
	require.NoError(t, err)

	_, err = other.Parse(signed)
	assert.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	signer, err := token.NewSigner([]byte("shared-key"), "someone-else", time.Hour)
	require.NoError(t, err)
	verifier, err := token.NewSigner([]byte("shared-key"), "veristay", time.Hour)
	require.NoError(t, err)

	signed, err := signer.Issue(uuid.New(), "user-1", "xxxx-xxxx-9012", time.Now())
	require.NoError(t, err)

	_, err = verifier.Parse(signed)
	assert.Error(t, err)
}

func TestNewSignerRequiresKey(t *testing.T) {
	_, err := token.NewSigner(nil, "veristay", time.Hour)
	assert.Error(t, err)
}
