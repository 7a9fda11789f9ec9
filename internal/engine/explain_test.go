package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExplainResultAllClean(t *testing.T) {
	factors := map[Factor]float64{
		FactorDeviceConsistency: 90,
		FactorGeolocationRisk:   90,
		FactorTimePattern:       85,
	}

	got := explainResult(factors, 88.75)
	assert.Equal(t, "Trust score: 88.8/100. All security checks passed normally.", got)
}

func TestExplainResultNamesWeakestFactorsInOrder(t *testing.T) {
	factors := map[Factor]float64{
		FactorDeviceConsistency:   30,
		FactorGeolocationRisk:     20,
		FactorTransactionVelocity: 90,
		FactorTimePattern:         45,
		FactorBehavioralPattern:   72,
		FactorAccountHistory:      80,
	}

	got := explainResult(factors, 55.2)
	assert.Equal(t,
		"Trust score: 55.2/100. Login from new or distant location. Unrecognized device detected. Activity at unusual time for this user.",
		got)
}

func TestExplainResultSkipsFactorsAboveCutoff(t *testing.T) {
	// Only one factor is below 50; the limit of three considered factors must
	// not pull healthy ones into the explanation.
	factors := map[Factor]float64{
		FactorAccountHistory:    30,
		FactorDeviceConsistency: 60,
		FactorGeolocationRisk:   55,
	}

	got := explainResult(factors, 48.0)
	assert.Equal(t, "Trust score: 48.0/100. Account has limited history or previous incidents.", got)
}

func TestExplainResultConsidersOnlyThreeWeakest(t *testing.T) {
	// Four factors below the cutoff; only the three weakest appear.
	factors := map[Factor]float64{
		FactorDeviceConsistency:   10,
		FactorGeolocationRisk:     20,
		FactorAccountHistory:      30,
		FactorTimePattern:         40,
		FactorTransactionVelocity: 95,
	}

	got := explainResult(factors, 35.0)
	assert.NotContains(t, got, "unusual time")
	assert.Contains(t, got, "Unrecognized device detected.")
	assert.Contains(t, got, "Login from new or distant location.")
	assert.Contains(t, got, "Account has limited history or previous incidents.")
}
