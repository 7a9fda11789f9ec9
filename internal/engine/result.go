package engine

import (
	"time"

	"trustd/internal/engine/ports"
)

// Factor names one risk sub-score contributing to the aggregate trust score.
type Factor string

const (
	FactorDeviceConsistency   Factor = "device_consistency"
	FactorTransactionVelocity Factor = "transaction_velocity"
	FactorGeolocationRisk     Factor = "geolocation_risk"
	FactorBehavioralPattern   Factor = "behavioral_pattern"
	FactorAccountHistory      Factor = "account_history"
	FactorTimePattern         Factor = "time_pattern"
)

// RiskLevel is the coarse band derived from the trust score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Decision is the access-control outcome of an analysis.
type Decision string

const (
	DecisionAllow     Decision = "allow"
	DecisionChallenge Decision = "challenge"
	DecisionVerify    Decision = "verify"
	DecisionBlock     Decision = "block"
	DecisionReview    Decision = "review"
)

// TrustResult is the immutable outcome of one analysis. It is never mutated
// after construction; the store persists it append-only.
type TrustResult struct {
	Score                float64            `json:"score"`
	RiskLevel            RiskLevel          `json:"risk_level"`
	Decision             Decision           `json:"decision"`
	Explanation          string             `json:"explanation"`
	RiskFactors          map[Factor]float64 `json:"risk_factors"`
	RequiresMFA          bool               `json:"requires_mfa"`
	RequiresVerification bool               `json:"requires_verification"`
	RecommendedActions   []string           `json:"recommended_actions"`
	Timestamp            time.Time          `json:"timestamp"`
}

// scoreRecord converts the result into the persisted shape.
func (r TrustResult) scoreRecord() ports.ScoreRecord {
	factors := make(map[string]float64, len(r.RiskFactors))
	for factor, score := range r.RiskFactors {
		factors[string(factor)] = score
	}
	return ports.ScoreRecord{
		Score:       r.Score,
		RiskLevel:   string(r.RiskLevel),
		Decision:    string(r.Decision),
		Explanation: r.Explanation,
		RiskFactors: factors,
		RecordedAt:  r.Timestamp,
	}
}

// fallbackResult is the fail-safe default returned when analysis cannot
// complete. It must never be "allow": the engine fails closed, toward manual
// review.
func fallbackResult(now time.Time) TrustResult {
	return TrustResult{
		Score:                50.0,
		RiskLevel:            RiskMedium,
		Decision:             DecisionReview,
		Explanation:          "Unable to complete analysis",
		RiskFactors:          map[Factor]float64{},
		RequiresVerification: true,
		Timestamp:            now,
	}
}
