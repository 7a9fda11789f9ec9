// Package ports defines the collaborator contracts the trust engine consumes.
// The engine only reads historical aggregates and appends score records; how
// they are persisted is a store concern.
package ports

import (
	"context"
	"time"
)

// DeviceRecord is one known device fingerprint for a user. TrustLevel is the
// store-maintained confidence in the device (bumped on repeat sightings) and
// feeds the user-facing summary, not the core calculators.
type DeviceRecord struct {
	Fingerprint string
	TrustLevel  float64
	LastSeen    time.Time
}

// TransactionRecord is one historical transaction amount with its timestamp.
type TransactionRecord struct {
	Amount    float64
	Timestamp time.Time
}

// Location is a resolved geographic coordinate.
type Location struct {
	Lat float64
	Lon float64
}

// LocationRecord is one historical observation of a user's location.
type LocationRecord struct {
	Location
	Timestamp time.Time
}

// BehaviorRecord is the feature tuple extracted from one historical action.
type BehaviorRecord struct {
	Action          string
	HourOfDay       int
	Weekday         time.Weekday
	Amount          float64
	Merchant        string
	TransactionType string
	Timestamp       time.Time
}

// AccountRecord holds the account metadata the account-history calculator
// scores against.
type AccountRecord struct {
	CreatedAt     time.Time
	Verified      bool
	OpenIncidents int
}

// ScoreRecord is the persisted shape of one completed analysis.
type ScoreRecord struct {
	Score       float64
	RiskLevel   string
	Decision    string
	Explanation string
	RiskFactors map[string]float64
	RecordedAt  time.Time
}

// Observation bundles everything the caller learned about one inbound action
// so the store can append it to all histories atomically per user.
type Observation struct {
	Fingerprint string
	Location    *LocationRecord
	Behavior    BehaviorRecord
	Transaction *TransactionRecord
}

// HistoryStore exposes read access to a user's historical aggregates and an
// append-only write path for analysis output. Implementations must apply
// writes for the same user atomically; the engine issues concurrent reads.
type HistoryStore interface {
	// DeviceHistory returns the devices seen for the user within the window.
	DeviceHistory(ctx context.Context, userID string, window time.Duration) ([]DeviceRecord, error)

	// RecentTransactions returns up to limit transactions, most recent first.
	RecentTransactions(ctx context.Context, userID string, limit int) ([]TransactionRecord, error)

	// LocationHistory returns locations observed within the window.
	LocationHistory(ctx context.Context, userID string, window time.Duration) ([]LocationRecord, error)

	// BehaviorHistory returns up to limit behavior records, most recent first.
	BehaviorHistory(ctx context.Context, userID string, limit int) ([]BehaviorRecord, error)

	// TimeDistribution returns the user's most frequent activity hours,
	// most frequent first, at most the store's configured top-N.
	TimeDistribution(ctx context.Context, userID string) ([]int, error)

	// AccountRecord returns account metadata, or nil when the user is unknown.
	AccountRecord(ctx context.Context, userID string) (*AccountRecord, error)

	// ActivityCount returns the number of recorded activities in the window.
	ActivityCount(ctx context.Context, userID string, window time.Duration) (int, error)

	// RecentScores returns up to limit persisted score records, most recent first.
	RecentScores(ctx context.Context, userID string, limit int) ([]ScoreRecord, error)

	// PersistResult appends a completed analysis for the user.
	PersistResult(ctx context.Context, userID string, rec ScoreRecord) error
}

// ActivityRecorder captures post-analysis observations so future analyses
// have history to compare against. Separated from HistoryStore because the
// engine itself never records observations; the transport layer does.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, userID string, obs Observation) error
}

// Locator resolves an IP address to an approximate location. Production swaps
// in a real geolocation backend; the engine treats it as a capability.
type Locator interface {
	Resolve(ctx context.Context, ip string) (Location, error)
}
