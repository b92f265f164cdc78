package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := NewService("test-secret")

	signed, expiresAt, err := svc.Issue("user-1", "chan-1", "42", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	assert.WithinDuration(t, time.Now().Add(TTL), expiresAt, 5*time.Second)

	claims, ok := svc.Verify(signed)
	require.True(t, ok)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "chan-1", claims.ChannelID)
	assert.Equal(t, "42", claims.TicketID)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.ID, "every token carries a unique jti")
}

func TestVerifyUniqueJTI(t *testing.T) {
	svc := NewService("test-secret")

	a, _, err := svc.Issue("u", "c", "1", "n")
	require.NoError(t, err)
	b, _, err := svc.Issue("u", "c", "1", "n")
	require.NoError(t, err)

	ca, ok := svc.Verify(a)
	require.True(t, ok)
	cb, ok := svc.Verify(b)
	require.True(t, ok)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestVerifyExpired(t *testing.T) {
	svc := NewService("test-secret")
	svc.now = func() time.Time { return time.Now().Add(-2 * TTL) }

	signed, _, err := svc.Issue("user-1", "chan-1", "42", "alice")
	require.NoError(t, err)

	svc.now = time.Now
	_, ok := svc.Verify(signed)
	assert.False(t, ok, "token past its TTL must fail verification")
}

func TestVerifyTampered(t *testing.T) {
	svc := NewService("test-secret")
	signed, _, err := svc.Issue("user-1", "chan-1", "42", "alice")
	require.NoError(t, err)

	// Flip bytes inside the claims segment only. The signature segment has
	// unused trailing bits where a flip can survive lenient base64 decoding.
	start := strings.Index(signed, ".") + 1
	end := strings.LastIndex(signed, ".")
	require.Greater(t, end, start)

	for i := start; i < end; i += 7 {
		corrupted := []byte(signed)
		if corrupted[i] == 'A' {
			corrupted[i] = 'B'
		} else {
			corrupted[i] = 'A'
		}
		_, ok := svc.Verify(string(corrupted))
		assert.False(t, ok, "byte %d flipped must fail verification", i)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	signed, _, err := NewService("secret-a").Issue("user-1", "chan-1", "42", "alice")
	require.NoError(t, err)

	_, ok := NewService("secret-b").Verify(signed)
	assert.False(t, ok)
}

func TestVerifyGarbage(t *testing.T) {
	svc := NewService("test-secret")
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		_, ok := svc.Verify(tok)
		assert.False(t, ok, "input %q", tok)
	}
}
