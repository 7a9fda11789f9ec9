package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trustd/internal/engine/ports"
)

// fakeStore is a hand-rolled HistoryStore with per-method fault injection.
// Zero value answers every read with empty history.
type fakeStore struct {
	devices      []ports.DeviceRecord
	transactions []ports.TransactionRecord
	locations    []ports.LocationRecord
	behaviors    []ports.BehaviorRecord
	typicalHours []int
	account      *ports.AccountRecord
	activity     int
	scores       []ports.ScoreRecord

	persisted []ports.ScoreRecord

	failDevices      error
	failTransactions error
	failLocations    error
	failBehaviors    error
	failHours        error
	failAccount      error
	failActivity     error
	failScores       error
	failPersist      error
}

func (f *fakeStore) DeviceHistory(context.Context, string, time.Duration) ([]ports.DeviceRecord, error) {
	return f.devices, f.failDevices
}

func (f *fakeStore) RecentTransactions(context.Context, string, int) ([]ports.TransactionRecord, error) {
	return f.transactions, f.failTransactions
}

func (f *fakeStore) LocationHistory(context.Context, string, time.Duration) ([]ports.LocationRecord, error) {
	return f.locations, f.failLocations
}

func (f *fakeStore) BehaviorHistory(context.Context, string, int) ([]ports.BehaviorRecord, error) {
	return f.behaviors, f.failBehaviors
}

func (f *fakeStore) TimeDistribution(context.Context, string) ([]int, error) {
	return f.typicalHours, f.failHours
}

func (f *fakeStore) AccountRecord(context.Context, string) (*ports.AccountRecord, error) {
	return f.account, f.failAccount
}

func (f *fakeStore) ActivityCount(context.Context, string, time.Duration) (int, error) {
	return f.activity, f.failActivity
}

func (f *fakeStore) RecentScores(context.Context, string, int) ([]ports.ScoreRecord, error) {
	return f.scores, f.failScores
}

func (f *fakeStore) PersistResult(_ context.Context, _ string, rec ports.ScoreRecord) error {
	if f.failPersist != nil {
		return f.failPersist
	}
	f.persisted = append(f.persisted, rec)
	return nil
}

type fakeLocator struct {
	location ports.Location
	fail     error
}

func (f *fakeLocator) Resolve(context.Context, string) (ports.Location, error) {
	return f.location, f.fail
}

type AnalyzeSuite struct {
	suite.Suite
	store   *fakeStore
	locator *fakeLocator
	engine  *Engine
}

func TestAnalyzeSuite(t *testing.T) {
	suite.Run(t, new(AnalyzeSuite))
}

func (s *AnalyzeSuite) SetupTest() {
	s.store = &fakeStore{}
	s.locator = &fakeLocator{location: ports.Location{Lat: 40.7128, Lon: -74.0060}}
	s.engine = New(s.store, s.locator)
}

func (s *AnalyzeSuite) TestNewUserLoginIsChallenged() {
	result := s.engine.Analyze(context.Background(), loginContext(testNow))

	// device 60, velocity 80, geo 60 (resolved, no history), behavior 70,
	// account 30, time 70 -> 63.5.
	s.InDelta(63.5, result.Score, 1e-9)
	s.Equal(RiskMedium, result.RiskLevel)
	s.Equal(DecisionChallenge, result.Decision)
	s.True(result.RequiresMFA)
	s.False(result.RequiresVerification)
	s.Len(result.RiskFactors, 6)
}

func (s *AnalyzeSuite) TestReturningUserIsAllowed() {
	ac := loginContext(testNow)
	s.store.devices = []ports.DeviceRecord{
		{Fingerprint: ComputeFingerprint(ac.UserAgent, ac.IPAddress), LastSeen: testNow.Add(-24 * time.Hour)},
	}
	s.store.locations = []ports.LocationRecord{
		{Location: s.locator.location, Timestamp: testNow.Add(-24 * time.Hour)},
	}
	s.store.behaviors = []ports.BehaviorRecord{
		{Action: "login", HourOfDay: 14, Weekday: testNow.Weekday()},
	}
	s.store.typicalHours = []int{14}
	s.store.account = &ports.AccountRecord{CreatedAt: testNow.Add(-100 * 24 * time.Hour), Verified: true}
	s.store.activity = 40

	result := s.engine.Analyze(context.Background(), ac)

	// device 90, velocity 80, geo 90, behavior 72, account 100, time 85 -> 85.8.
	s.InDelta(85.8, result.Score, 1e-9)
	s.Equal(RiskLow, result.RiskLevel)
	s.Equal(DecisionAllow, result.Decision)
	s.False(result.RequiresMFA)
	s.Empty(result.RecommendedActions)
}

func (s *AnalyzeSuite) TestHighRiskTransactionIsBlocked() {
	ac := transactionContext(testNow, 2000)
	s.store.devices = []ports.DeviceRecord{{Fingerprint: "completely-different"}}
	s.store.locations = []ports.LocationRecord{
		{Location: ports.Location{Lat: 51.5074, Lon: -0.1278}, Timestamp: testNow.Add(-time.Hour)},
	}
	s.store.transactions = []ports.TransactionRecord{
		{Amount: 1800, Timestamp: testNow.Add(-time.Minute)},
		{Amount: 1700, Timestamp: testNow.Add(-2 * time.Minute)},
		{Amount: 1600, Timestamp: testNow.Add(-3 * time.Minute)},
		{Amount: 1500, Timestamp: testNow.Add(-4 * time.Minute)},
	}

	result := s.engine.Analyze(context.Background(), ac)

	s.Equal(RiskHigh, result.RiskLevel)
	s.Equal(DecisionBlock, result.Decision)
	s.Equal(highRiskActions, result.RecommendedActions)
}

func (s *AnalyzeSuite) TestMediumRiskTransactionRequiresVerification() {
	ac := transactionContext(testNow, 600)

	result := s.engine.Analyze(context.Background(), ac)

	// device 60, velocity 90, geo 60, behavior 70, account 30, time 70 -> 65.5.
	s.InDelta(65.5, result.Score, 1e-9)
	s.Equal(DecisionVerify, result.Decision)
	s.True(result.RequiresVerification)
	s.False(result.RequiresMFA)
}

func (s *AnalyzeSuite) TestAnalysisIsDeterministic() {
	ac := loginContext(testNow)

	first := s.engine.Analyze(context.Background(), ac)
	second := s.engine.Analyze(context.Background(), ac)

	s.Equal(first.Score, second.Score)
	s.Equal(first.RiskLevel, second.RiskLevel)
	s.Equal(first.Decision, second.Decision)
	s.Equal(first.RiskFactors, second.RiskFactors)
}

func (s *AnalyzeSuite) TestCompletedAnalysisIsPersisted() {
	result := s.engine.Analyze(context.Background(), loginContext(testNow))

	s.Require().Len(s.store.persisted, 1)
	rec := s.store.persisted[0]
	s.Equal(result.Score, rec.Score)
	s.Equal(string(result.RiskLevel), rec.RiskLevel)
	s.Equal(string(result.Decision), rec.Decision)
	s.Len(rec.RiskFactors, 6)
}

func (s *AnalyzeSuite) TestPersistFailureFallsBack() {
	s.store.failPersist = errors.New("disk full")

	result := s.engine.Analyze(context.Background(), loginContext(testNow))

	// An unrecorded score counts as a failed analysis: the caller gets the
	// fail-safe result, never the computed one.
	s.assertFallback(result)
	s.Empty(s.store.persisted)
}

func (s *AnalyzeSuite) TestInvalidContextFallsBack() {
	s.Run("missing user id", func() {
		result := s.engine.Analyze(context.Background(), ActivityContext{Action: ActionLogin, Timestamp: testNow})
		s.assertFallback(result)
	})

	s.Run("unknown action", func() {
		ac := loginContext(testNow)
		ac.Action = Action("password_reset")
		s.assertFallback(s.engine.Analyze(context.Background(), ac))
	})

	s.Run("transaction without details", func() {
		ac := loginContext(testNow)
		ac.Action = ActionTransaction
		s.assertFallback(s.engine.Analyze(context.Background(), ac))
	})

	s.Run("negative amount", func() {
		ac := transactionContext(testNow, -5)
		s.assertFallback(s.engine.Analyze(context.Background(), ac))
	})
}

func (s *AnalyzeSuite) TestAnyCollaboratorFailureFallsBack() {
	boom := errors.New("store down")

	cases := []struct {
		name   string
		inject func(*fakeStore, *fakeLocator)
	}{
		{"device history", func(st *fakeStore, _ *fakeLocator) { st.failDevices = boom }},
		{"recent transactions", func(st *fakeStore, _ *fakeLocator) { st.failTransactions = boom }},
		{"location history", func(st *fakeStore, _ *fakeLocator) { st.failLocations = boom }},
		{"behavior history", func(st *fakeStore, _ *fakeLocator) { st.failBehaviors = boom }},
		{"time distribution", func(st *fakeStore, _ *fakeLocator) { st.failHours = boom }},
		{"account record", func(st *fakeStore, _ *fakeLocator) { st.failAccount = boom }},
		{"activity count", func(st *fakeStore, _ *fakeLocator) { st.failActivity = boom }},
		{"persist result", func(st *fakeStore, _ *fakeLocator) { st.failPersist = boom }},
		{"locator", func(_ *fakeStore, loc *fakeLocator) { loc.fail = boom }},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			store := &fakeStore{}
			locator := &fakeLocator{location: ports.Location{Lat: 1, Lon: 1}}
			tc.inject(store, locator)

			result := New(store, locator).Analyze(context.Background(), loginContext(testNow))
			s.assertFallback(result)
			s.Empty(store.persisted, "fallback results must not be persisted")
		})
	}
}

func (s *AnalyzeSuite) TestLoginWithoutIPSkipsLocator() {
	s.locator.fail = errors.New("should not be called")

	ac := loginContext(testNow)
	ac.IPAddress = ""

	result := s.engine.Analyze(context.Background(), ac)

	// geo scores 70 for an unresolvable location instead of failing.
	s.Equal(70.0, result.RiskFactors[FactorGeolocationRisk])
	s.NotEqual(DecisionReview, result.Decision)
}

func (s *AnalyzeSuite) assertFallback(result TrustResult) {
	s.Equal(50.0, result.Score)
	s.Equal(RiskMedium, result.RiskLevel)
	s.Equal(DecisionReview, result.Decision)
	s.Equal("Unable to complete analysis", result.Explanation)
	s.True(result.RequiresVerification)
	s.Empty(result.RiskFactors)
}

func TestNewPanicsOnMissingCollaborators(t *testing.T) {
	locator := &fakeLocator{}

	assertPanics := func(fn func()) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()
		fn()
	}

	assertPanics(func() { New(nil, locator) })
	assertPanics(func() { New(&fakeStore{}, nil) })
}
