package engine

import (
	"fmt"
	"strings"
)

// Canned per-factor sentences. The output is advisory text for humans; no
// downstream logic parses it, so wording stability is not a contract.
var factorExplanations = map[Factor]string{
	FactorDeviceConsistency:   "Unrecognized device detected.",
	FactorTransactionVelocity: "Unusual transaction frequency or amounts.",
	FactorGeolocationRisk:     "Login from new or distant location.",
	FactorBehavioralPattern:   "Activity doesn't match typical user behavior.",
	FactorAccountHistory:      "Account has limited history or previous incidents.",
	FactorTimePattern:         "Activity at unusual time for this user.",
}

const explainFactorLimit = 3
const explainScoreCutoff = 50.0

// explainResult renders the weakest contributing factors into one sentence
// per factor, prefixed with the numeric score.
func explainResult(factors map[Factor]float64, score float64) string {
	var sentences []string
	for i, factor := range sortedFactors(factors) {
		if i == explainFactorLimit {
			break
		}
		if factors[factor] >= explainScoreCutoff {
			continue
		}
		sentence, ok := factorExplanations[factor]
		if !ok {
			sentence = fmt.Sprintf("Elevated risk in %s.", factor)
		}
		sentences = append(sentences, sentence)
	}

	if len(sentences) == 0 {
		return fmt.Sprintf("Trust score: %.1f/100. All security checks passed normally.", score)
	}
	return fmt.Sprintf("Trust score: %.1f/100. %s", score, strings.Join(sentences, " "))
}
