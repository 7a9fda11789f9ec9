package engine

import (
	"context"
	"fmt"
	"time"

	"trustd/internal/engine/ports"
)

// TrustSummary is the user-facing breakdown served alongside the score
// history. Its per-dimension trust values use simpler heuristics than the
// core calculators and are deliberately kept on their own scale; they are
// advisory, never part of the decision path.
type TrustSummary struct {
	CurrentScore float64             `json:"current_score"`
	History      []ports.ScoreRecord `json:"history"`
	Factors      SummaryFactors      `json:"score_factors"`
}

// SummaryFactors holds the simplified per-dimension trust values.
type SummaryFactors struct {
	DeviceTrust    float64 `json:"device_trust"`
	LocationTrust  float64 `json:"location_trust"`
	BehaviorTrust  float64 `json:"behavior_trust"`
	AccountAgeDays int     `json:"account_age_days"`
	Verified       bool    `json:"verification_status"`
}

const (
	summaryHistoryLimit = 30
	behaviorTrustWindow = 7 * 24 * time.Hour
)

// Recency weights for the current-score average. More weight on recent
// scores; renormalized over however many scores actually exist.
var recentScoreWeights = []float64{0.4, 0.3, 0.2, 0.1}

// TrustSummary computes the summary for one user. Unlike Analyze it reports
// errors to the caller; there is no fail-safe contract on this read path.
func (e *Engine) TrustSummary(ctx context.Context, userID string, now time.Time) (*TrustSummary, error) {
	history, err := e.store.RecentScores(ctx, userID, summaryHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("recent scores: %w", err)
	}

	devices, err := e.store.DeviceHistory(ctx, userID, deviceHistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("device history: %w", err)
	}

	locations, err := e.store.LocationHistory(ctx, userID, locationHistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("location history: %w", err)
	}

	account, err := e.store.AccountRecord(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("account record: %w", err)
	}

	summary := &TrustSummary{
		CurrentScore: currentScore(history),
		History:      history,
		Factors: SummaryFactors{
			DeviceTrust:   deviceTrust(devices),
			LocationTrust: locationTrust(len(locations)),
			BehaviorTrust: behaviorTrust(history, now),
		},
	}
	if account != nil {
		ageDays := int(now.Sub(account.CreatedAt).Hours() / 24)
		if ageDays < 0 {
			ageDays = 0
		}
		summary.Factors.AccountAgeDays = ageDays
		summary.Factors.Verified = account.Verified
	}
	return summary, nil
}

// currentScore is the recency-weighted average of the latest scores.
// New users without any history start at a neutral-positive 70.
func currentScore(history []ports.ScoreRecord) float64 {
	if len(history) == 0 {
		return 70.0
	}

	n := len(history)
	if n > len(recentScoreWeights) {
		n = len(recentScoreWeights)
	}

	sum, totalWeight := 0.0, 0.0
	for i := 0; i < n; i++ {
		sum += history[i].Score * recentScoreWeights[i]
		totalWeight += recentScoreWeights[i]
	}
	return round2(sum / totalWeight)
}

func deviceTrust(devices []ports.DeviceRecord) float64 {
	if len(devices) == 0 {
		return 50.0
	}
	sum := 0.0
	for _, d := range devices {
		sum += d.TrustLevel
	}
	return round2(sum / float64(len(devices)))
}

// locationTrust grows with the number of known locations, up to a point.
func locationTrust(count int) float64 {
	switch {
	case count == 0:
		return 30.0
	case count <= 3:
		return 60.0 + float64(count)*10
	default:
		return 90.0
	}
}

// behaviorTrust averages the persisted scores of the last week.
func behaviorTrust(history []ports.ScoreRecord, now time.Time) float64 {
	sum, count := 0.0, 0
	for _, rec := range history {
		if now.Sub(rec.RecordedAt) <= behaviorTrustWindow {
			sum += rec.Score
			count++
		}
	}
	if count == 0 {
		return 70.0
	}
	return round2(sum / float64(count))
}
