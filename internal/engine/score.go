package engine

import "math"

// factorWeights is the fixed aggregation weight per factor. The weights sum
// to 1.0 by construction, but the aggregator renormalizes over the factors
// actually present so a missing factor never skews the result.
var factorWeights = map[Factor]float64{
	FactorDeviceConsistency:   0.25,
	FactorTransactionVelocity: 0.20,
	FactorGeolocationRisk:     0.20,
	FactorBehavioralPattern:   0.15,
	FactorAccountHistory:      0.10,
	FactorTimePattern:         0.10,
}

// Risk band thresholds. Lower bounds are inclusive.
const (
	lowRiskThreshold    = 70.0
	mediumRiskThreshold = 40.0
)

// aggregateScore combines factor scores into one trust score using the fixed
// weight table, renormalized over the weights of the factors present. A zero
// total weight indicates a configuration defect and degrades to neutral 50
// rather than dividing by zero.
func aggregateScore(factors map[Factor]float64) float64 {
	totalScore := 0.0
	totalWeight := 0.0
	for factor, score := range factors {
		weight, ok := factorWeights[factor]
		if !ok {
			continue
		}
		totalScore += score * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 50.0
	}
	return totalScore / totalWeight
}

// riskLevelFor maps a trust score onto its risk band.
func riskLevelFor(score float64) RiskLevel {
	switch {
	case score >= lowRiskThreshold:
		return RiskLow
	case score >= mediumRiskThreshold:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// round2 rounds to the two decimals the persisted score carries.
func round2(score float64) float64 {
	return math.Round(score*100) / 100
}
