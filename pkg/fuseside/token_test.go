package fuseside

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenIssueAndValidate(t *testing.T) {
	tm := NewTokenManager()
	now := time.Now()
	et, err := tm.Issue(now, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, et.Token)

	require.NoError(t, tm.Validate(et.Token, now.Add(time.Minute)))
	require.Error(t, tm.Validate(et.Token, now.Add(2*time.Hour)))
	require.Error(t, tm.Validate("bogus", now))
}

func TestTokenRevoke(t *testing.T) {
	tm := NewTokenManager()
	now := time.Now()
	et, _ := tm.Issue(now, time.Hour)
	tm.Revoke(et.Token)
	require.Error(t, tm.Validate(et.Token, now))
}

func TestTokenCleanupExpired(t *testing.T) {
	tm := NewTokenManager()
	now := time.Now()
	et1, _ := tm.Issue(now, -time.Minute)
	et2, _ := tm.Issue(now, time.Hour)

	tm.CleanupExpired(now)
	require.Error(t, tm.Validate(et1.Token, now))
	require.NoError(t, tm.Validate(et2.Token, now))
}
