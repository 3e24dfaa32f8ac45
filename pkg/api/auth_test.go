package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenIssuerRejectsEmptySecret(t *testing.T) {
	_, err := NewTokenIssuer("")
	assert.Error(t, err)
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret")
	require.NoError(t, err)

	token, err := issuer.Issue("comp-1", "part-1")
	require.NoError(t, err)

	competitionID, participantID, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "comp-1", competitionID)
	assert.Equal(t, "part-1", participantID)
}

func TestVerifyRejectsTokenFromDifferentSecret(t *testing.T) {
	issuerA, err := NewTokenIssuer("secret-a")
	require.NoError(t, err)
	issuerB, err := NewTokenIssuer("secret-b")
	require.NoError(t, err)

	token, err := issuerA.Issue("comp-1", "part-1")
	require.NoError(t, err)

	_, _, err = issuerB.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbageToken(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret")
	require.NoError(t, err)

	_, _, err = issuer.Verify("not-a-real-token")
	assert.Error(t, err)
}
