package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"trustd/internal/engine/ports"
)

// SQLiteStore persists history in a sqlite database. It implements the same
// contracts as InMemoryStore; per-user write atomicity comes from wrapping
// each multi-step write in a transaction.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS devices (
	user_id     TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	trust_level REAL NOT NULL,
	last_seen   TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, fingerprint)
);
CREATE TABLE IF NOT EXISTS transactions (
	user_id TEXT NOT NULL,
	amount  REAL NOT NULL,
	ts      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_user_ts ON transactions (user_id, ts);
CREATE TABLE IF NOT EXISTS locations (
	user_id TEXT NOT NULL,
	lat     REAL NOT NULL,
	lon     REAL NOT NULL,
	ts      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_locations_user_ts ON locations (user_id, ts);
CREATE TABLE IF NOT EXISTS behaviors (
	user_id  TEXT NOT NULL,
	action   TEXT NOT NULL,
	hour     INTEGER NOT NULL,
	weekday  INTEGER NOT NULL,
	amount   REAL NOT NULL,
	merchant TEXT NOT NULL,
	tx_type  TEXT NOT NULL,
	ts       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_behaviors_user_ts ON behaviors (user_id, ts);
CREATE TABLE IF NOT EXISTS scores (
	user_id      TEXT NOT NULL,
	score        REAL NOT NULL,
	risk_level   TEXT NOT NULL,
	decision     TEXT NOT NULL,
	explanation  TEXT NOT NULL,
	factors_json TEXT NOT NULL,
	recorded_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scores_user_recorded ON scores (user_id, recorded_at);
CREATE TABLE IF NOT EXISTS accounts (
	user_id    TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL,
	verified   INTEGER NOT NULL,
	incidents  INTEGER NOT NULL
);
`

// NewSQLite opens (creating if needed) the sqlite database at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite serializes writers; a single connection avoids SQLITE_BUSY
	// under concurrent analyses.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) DeviceHistory(ctx context.Context, userID string, window time.Duration) ([]ports.DeviceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fingerprint, trust_level, last_seen FROM devices WHERE user_id = ? AND last_seen > ?`,
		userID, time.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()

	var out []ports.DeviceRecord
	for rows.Next() {
		var d ports.DeviceRecord
		if err := rows.Scan(&d.Fingerprint, &d.TrustLevel, &d.LastSeen); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) RecentTransactions(ctx context.Context, userID string, limit int) ([]ports.TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT amount, ts FROM transactions WHERE user_id = ? ORDER BY ts DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []ports.TransactionRecord
	for rows.Next() {
		var t ports.TransactionRecord
		if err := rows.Scan(&t.Amount, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) LocationHistory(ctx context.Context, userID string, window time.Duration) ([]ports.LocationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lat, lon, ts FROM locations WHERE user_id = ? AND ts > ? ORDER BY ts DESC`,
		userID, time.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var out []ports.LocationRecord
	for rows.Next() {
		var l ports.LocationRecord
		if err := rows.Scan(&l.Lat, &l.Lon, &l.Timestamp); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) BehaviorHistory(ctx context.Context, userID string, limit int) ([]ports.BehaviorRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT action, hour, weekday, amount, merchant, tx_type, ts
		 FROM behaviors WHERE user_id = ? ORDER BY ts DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query behaviors: %w", err)
	}
	defer rows.Close()

	var out []ports.BehaviorRecord
	for rows.Next() {
		var b ports.BehaviorRecord
		var weekday int
		if err := rows.Scan(&b.Action, &b.HourOfDay, &weekday, &b.Amount, &b.Merchant, &b.TransactionType, &b.Timestamp); err != nil {
			return nil, fmt.Errorf("scan behavior: %w", err)
		}
		b.Weekday = time.Weekday(weekday)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) TimeDistribution(ctx context.Context, userID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT hour FROM behaviors WHERE user_id = ?
		 GROUP BY hour ORDER BY COUNT(*) DESC, hour ASC LIMIT ?`,
		userID, timeDistributionTopN)
	if err != nil {
		return nil, fmt.Errorf("query time distribution: %w", err)
	}
	defer rows.Close()

	var hours []int
	for rows.Next() {
		var h int
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan hour: %w", err)
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

func (s *SQLiteStore) AccountRecord(ctx context.Context, userID string) (*ports.AccountRecord, error) {
	var rec ports.AccountRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, verified, incidents FROM accounts WHERE user_id = ?`,
		userID).Scan(&rec.CreatedAt, &rec.Verified, &rec.OpenIncidents)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	return &rec, nil
}

func (s *SQLiteStore) ActivityCount(ctx context.Context, userID string, window time.Duration) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM behaviors WHERE user_id = ? AND ts > ?`,
		userID, time.Now().Add(-window)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) RecentScores(ctx context.Context, userID string, limit int) ([]ports.ScoreRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT score, risk_level, decision, explanation, factors_json, recorded_at
		 FROM scores WHERE user_id = ? ORDER BY recorded_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	var out []ports.ScoreRecord
	for rows.Next() {
		var rec ports.ScoreRecord
		var factorsJSON string
		if err := rows.Scan(&rec.Score, &rec.RiskLevel, &rec.Decision, &rec.Explanation, &factorsJSON, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		if err := json.Unmarshal([]byte(factorsJSON), &rec.RiskFactors); err != nil {
			return nil, fmt.Errorf("decode factors: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) PersistResult(ctx context.Context, userID string, rec ports.ScoreRecord) error {
	factorsJSON, err := json.Marshal(rec.RiskFactors)
	if err != nil {
		return fmt.Errorf("encode factors: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scores (user_id, score, risk_level, decision, explanation, factors_json, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, rec.Score, rec.RiskLevel, rec.Decision, rec.Explanation, string(factorsJSON), rec.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

// RecordActivity appends the observation to all histories in one transaction.
func (s *SQLiteStore) RecordActivity(ctx context.Context, userID string, obs ports.Observation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	b := obs.Behavior
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO behaviors (user_id, action, hour, weekday, amount, merchant, tx_type, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, b.Action, b.HourOfDay, int(b.Weekday), b.Amount, b.Merchant, b.TransactionType, b.Timestamp); err != nil {
		return fmt.Errorf("insert behavior: %w", err)
	}

	if obs.Transaction != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (user_id, amount, ts) VALUES (?, ?, ?)`,
			userID, obs.Transaction.Amount, obs.Transaction.Timestamp); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}

	if obs.Location != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO locations (user_id, lat, lon, ts) VALUES (?, ?, ?, ?)`,
			userID, obs.Location.Lat, obs.Location.Lon, obs.Location.Timestamp); err != nil {
			return fmt.Errorf("insert location: %w", err)
		}
	}

	if obs.Fingerprint != "" {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO devices (user_id, fingerprint, trust_level, last_seen)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (user_id, fingerprint) DO UPDATE SET
			   last_seen = excluded.last_seen,
			   trust_level = MIN(trust_level + ?, ?)`,
			userID, obs.Fingerprint, initialDeviceTrust, b.Timestamp, deviceTrustStep, maxDeviceTrust); err != nil {
			return fmt.Errorf("upsert device: %w", err)
		}
	}

	return tx.Commit()
}

// UpsertAccount stores account metadata for the user.
func (s *SQLiteStore) UpsertAccount(ctx context.Context, userID string, rec ports.AccountRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, created_at, verified, incidents)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   created_at = excluded.created_at,
		   verified = excluded.verified,
		   incidents = excluded.incidents`,
		userID, rec.CreatedAt, rec.Verified, rec.OpenIncidents)
	if err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}
