package engine

// decisionOutcome bundles what the decision table produces for one
// (risk level, action) pair.
type decisionOutcome struct {
	decision             Decision
	requiresMFA          bool
	requiresVerification bool
	recommendedActions   []string
}

// Recommended actions are fixed ordered lists per risk level.
var (
	highRiskActions = []string{
		"Contact customer support",
		"Verify identity through alternative method",
		"Review account security settings",
	}
	mediumRiskActions = []string{
		"Complete additional verification",
		"Review transaction details",
	}
)

// decideFor maps (risk level, action) to an access decision. The mapping is
// total: every pair has a defined outcome, there is no default/unknown state.
//
//	low    + any         -> allow
//	medium + login       -> challenge (MFA)
//	medium + transaction -> verify
//	high   + any         -> block
func decideFor(level RiskLevel, action Action) decisionOutcome {
	switch level {
	case RiskHigh:
		return decisionOutcome{
			decision:           DecisionBlock,
			recommendedActions: highRiskActions,
		}
	case RiskMedium:
		out := decisionOutcome{recommendedActions: mediumRiskActions}
		if action == ActionTransaction {
			out.decision = DecisionVerify
			out.requiresVerification = true
		} else {
			out.decision = DecisionChallenge
			out.requiresMFA = true
		}
		return out
	default:
		return decisionOutcome{decision: DecisionAllow}
	}
}
