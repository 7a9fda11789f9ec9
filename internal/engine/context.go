package engine

import (
	"time"

	"trustd/internal/engine/ports"
	dErrors "trustd/pkg/domain-errors"
)

// Action distinguishes the two analyzable activity kinds.
type Action string

const (
	ActionLogin       Action = "login"
	ActionTransaction Action = "transaction"
)

// ParseAction validates an action string from external input.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionLogin, ActionTransaction:
		return Action(s), nil
	default:
		return "", dErrors.New(dErrors.CodeBadRequest, "unsupported action: must be login or transaction")
	}
}

// TransactionDetails carries the fields that only exist for transactions.
// Keeping them behind a pointer means calculators never probe a login context
// for fields that cannot be there.
type TransactionDetails struct {
	Amount   float64
	Merchant string
	Type     string
}

// ActivityContext is the immutable input to one analysis. It is created per
// inbound action, consumed once, and discarded.
type ActivityContext struct {
	UserID    string
	Action    Action
	Timestamp time.Time
	IPAddress string
	UserAgent string

	// Transaction is nil unless Action is ActionTransaction.
	Transaction *TransactionDetails
}

// Validate checks the invariants the calculators rely on.
func (ac ActivityContext) Validate() error {
	if ac.UserID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "user_id is required")
	}
	if _, err := ParseAction(string(ac.Action)); err != nil {
		return err
	}
	if ac.Timestamp.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "timestamp is required")
	}
	if ac.Action == ActionTransaction {
		if ac.Transaction == nil {
			return dErrors.New(dErrors.CodeInvalidInput, "transaction details are required for transaction actions")
		}
		if ac.Transaction.Amount < 0 {
			return dErrors.New(dErrors.CodeInvalidInput, "transaction amount must not be negative")
		}
	}
	return nil
}

// amount returns the transaction amount, or 0 for logins.
func (ac ActivityContext) amount() float64 {
	if ac.Transaction == nil {
		return 0
	}
	return ac.Transaction.Amount
}

// Observation converts the context into the record appended to the user's
// histories after analysis, so the extracted features match what future
// analyses compare against. location may be nil when the IP was absent or
// could not be resolved.
func (ac ActivityContext) Observation(location *ports.Location) ports.Observation {
	obs := ports.Observation{
		Fingerprint: ComputeFingerprint(ac.UserAgent, ac.IPAddress),
		Behavior:    ac.behaviorFeatures(),
	}
	if location != nil {
		obs.Location = &ports.LocationRecord{Location: *location, Timestamp: ac.Timestamp}
	}
	if ac.Transaction != nil {
		obs.Transaction = &ports.TransactionRecord{Amount: ac.Transaction.Amount, Timestamp: ac.Timestamp}
	}
	return obs
}

// behaviorFeatures extracts the feature tuple compared against behavioral
// history and recorded back into it after analysis.
func (ac ActivityContext) behaviorFeatures() ports.BehaviorRecord {
	rec := ports.BehaviorRecord{
		Action:    string(ac.Action),
		HourOfDay: ac.Timestamp.Hour(),
		Weekday:   ac.Timestamp.Weekday(),
		Timestamp: ac.Timestamp,
	}
	if ac.Transaction != nil {
		rec.Amount = ac.Transaction.Amount
		rec.Merchant = ac.Transaction.Merchant
		rec.TransactionType = ac.Transaction.Type
	}
	return rec
}
