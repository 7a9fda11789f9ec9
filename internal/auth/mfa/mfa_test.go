package mfa

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "trustd/pkg/domain-errors"
)

func TestIssueAndRedeem(t *testing.T) {
	s := NewStore(5 * time.Minute)
	now := time.Now()

	ch, err := s.Issue(context.Background(), "user-1", now)
	require.NoError(t, err)
	assert.NotEmpty(t, ch.ID)
	assert.Len(t, ch.Code, 6)
	assert.Equal(t, now.Add(5*time.Minute), ch.ExpiresAt)

	userID, err := s.Redeem(context.Background(), ch.ID, ch.Code, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestRedeemIsSingleUse(t *testing.T) {
	s := NewStore(5 * time.Minute)
	now := time.Now()

	ch, err := s.Issue(context.Background(), "user-1", now)
	require.NoError(t, err)

	_, err = s.Redeem(context.Background(), ch.ID, ch.Code, now)
	require.NoError(t, err)

	_, err = s.Redeem(context.Background(), ch.ID, ch.Code, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestRedeemWrongCode(t *testing.T) {
	s := NewStore(5 * time.Minute)
	now := time.Now()

	ch, err := s.Issue(context.Background(), "user-1", now)
	require.NoError(t, err)

	wrong := "000000"
	if ch.Code == wrong {
		wrong = "000001"
	}
	_, err = s.Redeem(context.Background(), ch.ID, wrong, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	// A wrong code does not consume the challenge.
	_, err = s.Redeem(context.Background(), ch.ID, ch.Code, now)
	assert.NoError(t, err)
}

func TestRedeemExpiredChallenge(t *testing.T) {
	s := NewStore(5 * time.Minute)
	now := time.Now()

	ch, err := s.Issue(context.Background(), "user-1", now)
	require.NoError(t, err)

	// Expiry is checked on read even if no sweep ran.
	_, err = s.Redeem(context.Background(), ch.ID, ch.Code, now.Add(6*time.Minute))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeChallengeExpired))
}

func TestRedeemUnknownChallenge(t *testing.T) {
	s := NewStore(5 * time.Minute)

	_, err := s.Redeem(context.Background(), "no-such-id", "123456", time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestSweepExpired(t *testing.T) {
	s := NewStore(5 * time.Minute)
	now := time.Now()

	fresh, err := s.Issue(context.Background(), "user-1", now)
	require.NoError(t, err)
	stale, err := s.Issue(context.Background(), "user-2", now.Add(-10*time.Minute))
	require.NoError(t, err)

	deleted := s.SweepExpired(now)
	assert.Equal(t, 1, deleted)

	_, err = s.Redeem(context.Background(), stale.ID, stale.Code, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.Redeem(context.Background(), fresh.ID, fresh.Code, now)
	assert.NoError(t, err)
}

func TestIssuedCodesAreDigits(t *testing.T) {
	s := NewStore(time.Minute)
	for i := 0; i < 20; i++ {
		ch, err := s.Issue(context.Background(), "user-1", time.Now())
		require.NoError(t, err)
		require.Len(t, ch.Code, 6)
		for _, r := range ch.Code {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
}
