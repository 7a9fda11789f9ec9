// Package mfa issues and redeems short-lived one-time verification codes for
// challenged logins.
package mfa

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	dErrors "trustd/pkg/domain-errors"
)

const codeDigits = 6

// Challenge is a pending MFA verification. A challenge is single-use: a
// successful redeem deletes it.
type Challenge struct {
	ID        string
	UserID    string
	Code      string
	ExpiresAt time.Time
}

// Store keeps pending challenges in memory with TTL expiry.
type Store struct {
	mu         sync.Mutex
	challenges map[string]Challenge
	ttl        time.Duration
}

// NewStore creates a challenge store with the given TTL.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		challenges: make(map[string]Challenge),
		ttl:        ttl,
	}
}

// Issue creates a challenge with a fresh 6-digit code for the user.
func (s *Store) Issue(_ context.Context, userID string, now time.Time) (Challenge, error) {
	code, err := generateCode()
	if err != nil {
		return Challenge{}, fmt.Errorf("generate mfa code: %w", err)
	}

	ch := Challenge{
		ID:        uuid.NewString(),
		UserID:    userID,
		Code:      code,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[ch.ID] = ch
	return ch, nil
}

// Redeem consumes the challenge if the code matches and it has not expired.
// Expiry is checked on read, so a redeem between sweeps still fails.
func (s *Store) Redeem(_ context.Context, challengeID, code string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[challengeID]
	if !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "challenge not found")
	}
	if now.After(ch.ExpiresAt) {
		delete(s.challenges, challengeID)
		return "", dErrors.New(dErrors.CodeChallengeExpired, "challenge expired")
	}
	if subtle.ConstantTimeCompare([]byte(ch.Code), []byte(code)) != 1 {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid verification code")
	}

	delete(s.challenges, challengeID)
	return ch.UserID, nil
}

// SweepExpired removes expired challenges and reports how many were deleted.
func (s *Store) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, ch := range s.challenges {
		if now.After(ch.ExpiresAt) {
			delete(s.challenges, id)
			deleted++
		}
	}
	return deleted
}

func generateCode() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
