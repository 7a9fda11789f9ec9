// Package engine implements the trust scoring and decision core: six
// independent risk-factor calculators, weighted aggregation into one trust
// score, the score-to-decision table, and the explanation generator.
//
// The engine is stateless and reentrant. Concurrent analyses need no
// coordination; the only shared state is read access to the history store
// and the fixed weight/threshold tables.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"trustd/internal/engine/metrics"
	"trustd/internal/engine/ports"
	"trustd/internal/platform/tracer"
)

const (
	// gatherTimeout bounds how long one analysis waits on history reads.
	gatherTimeout = 5 * time.Second

	deviceHistoryWindow   = 30 * 24 * time.Hour
	locationHistoryWindow = 30 * 24 * time.Hour
	activityCountWindow   = 30 * 24 * time.Hour
	recentTransactionCap  = 100
	behaviorHistoryCap    = 10
)

// Engine orchestrates the calculators, aggregator, decision table, and
// explanation generator, and converts any failure into the fail-safe result.
type Engine struct {
	store       ports.HistoryStore
	locator     ports.Locator
	aggregation SimilarityAggregation
	metrics     *metrics.Metrics
	tracer      tracer.Tracer
	logger      *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTracer sets the tracer.
func WithTracer(t tracer.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithSimilarityAggregation overrides how behavioral similarities across the
// compared history are combined. The default, max, matches the historical
// behavior of the system.
func WithSimilarityAggregation(agg SimilarityAggregation) Option {
	return func(e *Engine) { e.aggregation = agg }
}

// New creates an Engine with required collaborators.
// Panics if store or locator is nil - fail fast at startup.
func New(store ports.HistoryStore, locator ports.Locator, opts ...Option) *Engine {
	if store == nil {
		panic("engine.New: history store is required")
	}
	if locator == nil {
		panic("engine.New: locator is required")
	}

	e := &Engine{
		store:       store,
		locator:     locator,
		aggregation: AggregationMax,
		tracer:      tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze scores one activity and converts the score into an access decision
// with a human-readable explanation. It never returns an error: any failure
// during analysis produces the fail-safe result (score 50, medium risk,
// decision "review"), biased toward manual review rather than access.
func (e *Engine) Analyze(ctx context.Context, ac ActivityContext) TrustResult {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, tracer.SpanAnalyze,
		tracer.String(tracer.AttrAction, string(ac.Action)),
	)

	result, err := e.analyze(ctx, ac, start.UTC())
	if err != nil {
		if e.logger != nil {
			e.logger.ErrorContext(ctx, "trust analysis failed, returning fail-safe result",
				"user_id", ac.UserID,
				"action", ac.Action,
				"error", err,
			)
		}
		if e.metrics != nil {
			e.metrics.IncrementFallbacks()
		}
		span.SetAttributes(tracer.Bool(tracer.AttrFallback, true))
		span.End(err)
		return fallbackResult(start.UTC())
	}

	if e.metrics != nil {
		e.metrics.ObserveAnalysis(string(ac.Action), string(result.RiskLevel), string(result.Decision), result.Score, time.Since(start))
		for factor, score := range result.RiskFactors {
			e.metrics.ObserveFactorScore(string(factor), score)
		}
	}

	span.SetAttributes(
		tracer.Float64(tracer.AttrScore, result.Score),
		tracer.String(tracer.AttrRiskLevel, string(result.RiskLevel)),
		tracer.String(tracer.AttrDecision, string(result.Decision)),
	)
	span.End(nil)
	return result
}

func (e *Engine) analyze(ctx context.Context, ac ActivityContext, now time.Time) (result TrustResult, err error) {
	// A panic anywhere below is an analysis failure like any other; the
	// caller converts it into the fail-safe result.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panicked: %v", r)
		}
	}()

	if err := ac.Validate(); err != nil {
		return TrustResult{}, err
	}

	history, err := e.gatherHistory(ctx, ac)
	if err != nil {
		return TrustResult{}, err
	}

	factors := map[Factor]float64{
		FactorDeviceConsistency:   scoreDeviceConsistency(ComputeFingerprint(ac.UserAgent, ac.IPAddress), history.devices),
		FactorTransactionVelocity: scoreTransactionVelocity(ac, history.transactions),
		FactorGeolocationRisk:     scoreGeolocationRisk(ac, history.currentLocation, history.locations),
		FactorBehavioralPattern:   scoreBehavioralPattern(ac, history.behaviors, e.aggregation),
		FactorAccountHistory:      scoreAccountHistory(history.account, history.activityCount, ac.Timestamp),
		FactorTimePattern:         scoreTimePattern(ac, history.typicalHours),
	}

	score := round2(aggregateScore(factors))
	level := riskLevelFor(score)
	outcome := decideFor(level, ac.Action)

	result = TrustResult{
		Score:                score,
		RiskLevel:            level,
		Decision:             outcome.decision,
		Explanation:          explainResult(factors, score),
		RiskFactors:          factors,
		RequiresMFA:          outcome.requiresMFA,
		RequiresVerification: outcome.requiresVerification,
		RecommendedActions:   outcome.recommendedActions,
		Timestamp:            now,
	}

	// Persisting is part of the analysis contract: a score the store never
	// recorded cannot inform future analyses, so a write failure is treated
	// like any other collaborator failure and becomes the fail-safe result.
	if err := e.store.PersistResult(ctx, ac.UserID, result.scoreRecord()); err != nil {
		return TrustResult{}, fmt.Errorf("persist result: %w", err)
	}

	return result, nil
}

// gatheredHistory holds everything the calculators need. Each fetch goroutine
// writes to its own field, so assembly after Wait is race-free.
type gatheredHistory struct {
	devices         []ports.DeviceRecord
	transactions    []ports.TransactionRecord
	locations       []ports.LocationRecord
	currentLocation *ports.Location
	behaviors       []ports.BehaviorRecord
	typicalHours    []int
	account         *ports.AccountRecord
	activityCount   int
}

// gatherHistory fetches all historical data concurrently with a shared
// deadline. The calculators have no ordering dependency, so their inputs
// don't either. Any fetch failure fails the whole gather; the engine
// deliberately never assembles partial results, which would produce a
// silently biased score.
func (e *Engine) gatherHistory(ctx context.Context, ac ActivityContext) (*gatheredHistory, error) {
	ctx, span := e.tracer.Start(ctx, tracer.SpanGatherHistory)
	ctx, cancel := context.WithTimeout(ctx, gatherTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	var h gatheredHistory

	g.Go(func() error {
		devices, err := e.store.DeviceHistory(ctx, ac.UserID, deviceHistoryWindow)
		if err != nil {
			return fmt.Errorf("device history: %w", err)
		}
		h.devices = devices
		return nil
	})

	g.Go(func() error {
		// Logins score velocity neutrally, but the fetch stays unconditional
		// so fault injection on the store behaves the same for both actions.
		txs, err := e.store.RecentTransactions(ctx, ac.UserID, recentTransactionCap)
		if err != nil {
			return fmt.Errorf("recent transactions: %w", err)
		}
		h.transactions = txs
		return nil
	})

	g.Go(func() error {
		locations, err := e.store.LocationHistory(ctx, ac.UserID, locationHistoryWindow)
		if err != nil {
			return fmt.Errorf("location history: %w", err)
		}
		h.locations = locations
		return nil
	})

	g.Go(func() error {
		if ac.IPAddress == "" {
			return nil
		}
		loc, err := e.locator.Resolve(ctx, ac.IPAddress)
		if err != nil {
			return fmt.Errorf("resolve location: %w", err)
		}
		h.currentLocation = &loc
		return nil
	})

	g.Go(func() error {
		behaviors, err := e.store.BehaviorHistory(ctx, ac.UserID, behaviorHistoryCap)
		if err != nil {
			return fmt.Errorf("behavior history: %w", err)
		}
		h.behaviors = behaviors
		return nil
	})

	g.Go(func() error {
		hours, err := e.store.TimeDistribution(ctx, ac.UserID)
		if err != nil {
			return fmt.Errorf("time distribution: %w", err)
		}
		h.typicalHours = hours
		return nil
	})

	g.Go(func() error {
		account, err := e.store.AccountRecord(ctx, ac.UserID)
		if err != nil {
			return fmt.Errorf("account record: %w", err)
		}
		h.account = account
		return nil
	})

	g.Go(func() error {
		count, err := e.store.ActivityCount(ctx, ac.UserID, activityCountWindow)
		if err != nil {
			return fmt.Errorf("activity count: %w", err)
		}
		h.activityCount = count
		return nil
	})

	if err := g.Wait(); err != nil {
		span.End(err)
		return nil, err
	}
	span.End(nil)
	return &h, nil
}
