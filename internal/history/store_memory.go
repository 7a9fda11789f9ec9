// Package history implements the engine's HistoryStore: an in-memory store
// for tests and local development, and a sqlite-backed store for persistence.
//
// Error contract: read methods return empty slices (never errors) for unknown
// users; write methods for the same user are applied serially so concurrent
// analyses cannot lose updates.
package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"trustd/internal/engine/ports"
	psync "trustd/pkg/platform/sync"
)

const (
	timeDistributionTopN = 3

	// initialDeviceTrust is the trust level assigned to a first-seen device;
	// repeat sightings bump it toward maxDeviceTrust.
	initialDeviceTrust = 50.0
	deviceTrustStep    = 5.0
	maxDeviceTrust     = 95.0
)

type userHistory struct {
	devices      []ports.DeviceRecord
	transactions []ports.TransactionRecord
	locations    []ports.LocationRecord
	behaviors    []ports.BehaviorRecord
	scores       []ports.ScoreRecord
	account      *ports.AccountRecord
}

// InMemoryStore keeps all history in process memory.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]*userHistory

	// userLocks serializes the multi-step write sequences per user without
	// serializing unrelated users behind mu.
	userLocks *psync.ShardedMutex
}

// NewInMemory constructs an empty in-memory history store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		users:     make(map[string]*userHistory),
		userLocks: psync.NewShardedMutex(),
	}
}

func (s *InMemoryStore) user(userID string) *userHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		u = &userHistory{}
		s.users[userID] = u
	}
	return u
}

func (s *InMemoryStore) DeviceHistory(_ context.Context, userID string, window time.Duration) ([]ports.DeviceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}

	cutoff := time.Now().Add(-window)
	var out []ports.DeviceRecord
	for _, d := range u.devices {
		if d.LastSeen.After(cutoff) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *InMemoryStore) RecentTransactions(_ context.Context, userID string, limit int) ([]ports.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return lastN(u.transactions, limit), nil
}

func (s *InMemoryStore) LocationHistory(_ context.Context, userID string, window time.Duration) ([]ports.LocationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}

	cutoff := time.Now().Add(-window)
	var out []ports.LocationRecord
	for _, loc := range u.locations {
		if loc.Timestamp.After(cutoff) {
			out = append(out, loc)
		}
	}
	return out, nil
}

func (s *InMemoryStore) BehaviorHistory(_ context.Context, userID string, limit int) ([]ports.BehaviorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return lastN(u.behaviors, limit), nil
}

func (s *InMemoryStore) TimeDistribution(_ context.Context, userID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}

	counts := make(map[int]int)
	for _, b := range u.behaviors {
		counts[b.HourOfDay]++
	}
	if len(counts) == 0 {
		return nil, nil
	}

	hours := make([]int, 0, len(counts))
	for h := range counts {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if counts[hours[i]] != counts[hours[j]] {
			return counts[hours[i]] > counts[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > timeDistributionTopN {
		hours = hours[:timeDistributionTopN]
	}
	return hours, nil
}

func (s *InMemoryStore) AccountRecord(_ context.Context, userID string) (*ports.AccountRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok || u.account == nil {
		return nil, nil
	}
	rec := *u.account
	return &rec, nil
}

func (s *InMemoryStore) ActivityCount(_ context.Context, userID string, window time.Duration) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return 0, nil
	}

	cutoff := time.Now().Add(-window)
	count := 0
	for _, b := range u.behaviors {
		if b.Timestamp.After(cutoff) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) RecentScores(_ context.Context, userID string, limit int) ([]ports.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return lastN(u.scores, limit), nil
}

func (s *InMemoryStore) PersistResult(_ context.Context, userID string, rec ports.ScoreRecord) error {
	s.userLocks.Lock(userID)
	defer s.userLocks.Unlock(userID)

	u := s.user(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	u.scores = append(u.scores, rec)
	return nil
}

// RecordActivity appends the observation to all histories in one per-user
// critical section.
func (s *InMemoryStore) RecordActivity(_ context.Context, userID string, obs ports.Observation) error {
	s.userLocks.Lock(userID)
	defer s.userLocks.Unlock(userID)

	u := s.user(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	u.behaviors = append(u.behaviors, obs.Behavior)
	if obs.Transaction != nil {
		u.transactions = append(u.transactions, *obs.Transaction)
	}
	if obs.Location != nil {
		u.locations = append(u.locations, *obs.Location)
	}
	if obs.Fingerprint != "" {
		s.recordDeviceLocked(u, obs.Fingerprint, obs.Behavior.Timestamp)
	}
	return nil
}

func (s *InMemoryStore) recordDeviceLocked(u *userHistory, fingerprint string, seenAt time.Time) {
	for i := range u.devices {
		if u.devices[i].Fingerprint == fingerprint {
			u.devices[i].LastSeen = seenAt
			if u.devices[i].TrustLevel+deviceTrustStep <= maxDeviceTrust {
				u.devices[i].TrustLevel += deviceTrustStep
			}
			return
		}
	}
	u.devices = append(u.devices, ports.DeviceRecord{
		Fingerprint: fingerprint,
		TrustLevel:  initialDeviceTrust,
		LastSeen:    seenAt,
	})
}

// UpsertAccount stores account metadata for the user.
func (s *InMemoryStore) UpsertAccount(_ context.Context, userID string, rec ports.AccountRecord) error {
	s.userLocks.Lock(userID)
	defer s.userLocks.Unlock(userID)

	u := s.user(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	u.account = &rec
	return nil
}

// lastN returns up to n elements from the end of s, most recent first,
// assuming records were appended in chronological order.
func lastN[T any](s []T, n int) []T {
	if n <= 0 || len(s) == 0 {
		return nil
	}
	if n > len(s) {
		n = len(s)
	}
	out := make([]T, 0, n)
	for i := len(s) - 1; i >= len(s)-n; i-- {
		out = append(out, s[i])
	}
	return out
}
