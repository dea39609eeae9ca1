// Package storage provides SQLite-based persistence for wallets, purchase
// records, entitlements, the player profile, and run history.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// PurchaseRecord is evidence of a processed store transaction. Records are
// append-only; BenefitApplied flips to true exactly once.
type PurchaseRecord struct {
	ID             int64
	TransactionID  string
	ProductID      string
	BenefitApplied bool
	CreatedAt      time.Time
}

// Profile is the single persisted player record.
type Profile struct {
	HighScore                 int
	LifetimeSessions          int
	SessionsSinceInterstitial int
	LastInterstitialAt        time.Time
	SeasonPassUntil           time.Time
}

// RunEntry is one completed run in the history table.
type RunEntry struct {
	ID           int64
	RunID        string
	BotID        string
	Score        int
	DurationSecs int
	CreatedAt    time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS wallets (
			kind TEXT PRIMARY KEY,
			balance INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS purchases (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			transaction_id TEXT NOT NULL UNIQUE,
			product_id TEXT NOT NULL,
			benefit_applied INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_purchases_pending ON purchases(benefit_applied);

		CREATE TABLE IF NOT EXISTS entitlements (
			id TEXT PRIMARY KEY,
			granted_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS profile (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			high_score INTEGER NOT NULL DEFAULT 0,
			lifetime_sessions INTEGER NOT NULL DEFAULT 0,
			sessions_since_interstitial INTEGER NOT NULL DEFAULT 0,
			last_interstitial_at INTEGER NOT NULL DEFAULT 0,
			season_pass_until INTEGER NOT NULL DEFAULT 0
		);
		INSERT OR IGNORE INTO profile (id) VALUES (1);

		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			bot_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			duration_secs INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_top ON runs(score DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Balances loads all wallet balances keyed by currency kind.
func (s *Store) Balances() (map[string]int64, error) {
	rows, err := s.db.Query("SELECT kind, balance FROM wallets")
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query wallets: %w", err)
	}
	defer rows.Close()

	balances := make(map[string]int64)
	for rows.Next() {
		var kind string
		var balance int64
		if err := rows.Scan(&kind, &balance); err != nil {
			return nil, fmt.Errorf("storage: cannot scan wallet row: %w", err)
		}
		balances[kind] = balance
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: wallet iteration error: %w", err)
	}
	return balances, nil
}

// SetBalance upserts one wallet balance. Called synchronously after every
// ledger mutation; durability is favored over batching.
func (s *Store) SetBalance(kind string, balance int64) error {
	_, err := s.db.Exec(
		`INSERT INTO wallets (kind, balance) VALUES (?, ?)
		 ON CONFLICT(kind) DO UPDATE SET balance = excluded.balance`,
		kind, balance,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save wallet %s: %w", kind, err)
	}
	return nil
}

// InsertPurchase persists a new purchase record with the benefit not yet
// applied. A duplicate transaction id violates the UNIQUE constraint.
func (s *Store) InsertPurchase(transactionID, productID string) error {
	_, err := s.db.Exec(
		"INSERT INTO purchases (transaction_id, product_id, benefit_applied) VALUES (?, ?, 0)",
		transactionID, productID,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot insert purchase %s: %w", transactionID, err)
	}
	return nil
}

// MarkBenefitApplied flips the benefit flag for a transaction.
func (s *Store) MarkBenefitApplied(transactionID string) error {
	_, err := s.db.Exec(
		"UPDATE purchases SET benefit_applied = 1 WHERE transaction_id = ?",
		transactionID,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot mark purchase %s applied: %w", transactionID, err)
	}
	return nil
}

// PurchaseByTransaction retrieves a purchase record, or nil if none exists.
func (s *Store) PurchaseByTransaction(transactionID string) (*PurchaseRecord, error) {
	var rec PurchaseRecord
	var applied int
	var createdAt any

	err := s.db.QueryRow(
		`SELECT id, transaction_id, product_id, benefit_applied, created_at
		 FROM purchases WHERE transaction_id = ?`,
		transactionID,
	).Scan(&rec.ID, &rec.TransactionID, &rec.ProductID, &applied, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query purchase: %w", err)
	}

	rec.BenefitApplied = applied != 0
	rec.CreatedAt = parseTimestamp(createdAt)
	return &rec, nil
}

// PendingPurchases returns records persisted before their benefit was
// applied. Used for crash recovery at startup.
func (s *Store) PendingPurchases() ([]PurchaseRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, transaction_id, product_id, benefit_applied, created_at
		 FROM purchases WHERE benefit_applied = 0 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query pending purchases: %w", err)
	}
	defer rows.Close()

	return scanPurchases(rows)
}

// AllPurchases returns the newest purchase records, up to limit.
func (s *Store) AllPurchases(limit int) ([]PurchaseRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, transaction_id, product_id, benefit_applied, created_at
		 FROM purchases ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query purchases: %w", err)
	}
	defer rows.Close()

	return scanPurchases(rows)
}

func scanPurchases(rows *sql.Rows) ([]PurchaseRecord, error) {
	var records []PurchaseRecord
	for rows.Next() {
		var rec PurchaseRecord
		var applied int
		var createdAt any
		if err := rows.Scan(&rec.ID, &rec.TransactionID, &rec.ProductID, &applied, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan purchase row: %w", err)
		}
		rec.BenefitApplied = applied != 0
		rec.CreatedAt = parseTimestamp(createdAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: purchase iteration error: %w", err)
	}
	return records, nil
}

// GrantEntitlement records a persistent entitlement (remove_ads, bot
// unlocks, permanent upgrades). Granting twice is a no-op.
func (s *Store) GrantEntitlement(id string) error {
	_, err := s.db.Exec("INSERT OR IGNORE INTO entitlements (id) VALUES (?)", id)
	if err != nil {
		return fmt.Errorf("storage: cannot grant entitlement %s: %w", id, err)
	}
	return nil
}

// HasEntitlement reports whether an entitlement has been granted.
func (s *Store) HasEntitlement(id string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM entitlements WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: cannot query entitlement: %w", err)
	}
	return true, nil
}

// Entitlements returns all granted entitlement ids.
func (s *Store) Entitlements() ([]string, error) {
	rows, err := s.db.Query("SELECT id FROM entitlements ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query entitlements: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage: cannot scan entitlement row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: entitlement iteration error: %w", err)
	}
	return ids, nil
}

// LoadProfile reads the single player record.
func (s *Store) LoadProfile() (Profile, error) {
	var p Profile
	var lastInterstitial, seasonPassUntil int64

	err := s.db.QueryRow(
		`SELECT high_score, lifetime_sessions, sessions_since_interstitial,
		        last_interstitial_at, season_pass_until
		 FROM profile WHERE id = 1`,
	).Scan(&p.HighScore, &p.LifetimeSessions, &p.SessionsSinceInterstitial,
		&lastInterstitial, &seasonPassUntil)
	if err != nil {
		return Profile{}, fmt.Errorf("storage: cannot load profile: %w", err)
	}

	if lastInterstitial > 0 {
		p.LastInterstitialAt = time.Unix(lastInterstitial, 0)
	}
	if seasonPassUntil > 0 {
		p.SeasonPassUntil = time.Unix(seasonPassUntil, 0)
	}
	return p, nil
}

// SaveProfile writes the single player record synchronously.
func (s *Store) SaveProfile(p Profile) error {
	var lastInterstitial, seasonPassUntil int64
	if !p.LastInterstitialAt.IsZero() {
		lastInterstitial = p.LastInterstitialAt.Unix()
	}
	if !p.SeasonPassUntil.IsZero() {
		seasonPassUntil = p.SeasonPassUntil.Unix()
	}

	_, err := s.db.Exec(
		`UPDATE profile SET high_score = ?, lifetime_sessions = ?,
		        sessions_since_interstitial = ?, last_interstitial_at = ?,
		        season_pass_until = ?
		 WHERE id = 1`,
		p.HighScore, p.LifetimeSessions, p.SessionsSinceInterstitial,
		lastInterstitial, seasonPassUntil,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save profile: %w", err)
	}
	return nil
}

// SaveRun records one completed run.
func (s *Store) SaveRun(runID, botID string, score, durationSecs int) error {
	_, err := s.db.Exec(
		"INSERT INTO runs (run_id, bot_id, score, duration_secs) VALUES (?, ?, ?, ?)",
		runID, botID, score, durationSecs,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save run: %w", err)
	}
	return nil
}

// TopRuns retrieves the best runs ordered by score descending.
func (s *Store) TopRuns(limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(
		`SELECT id, run_id, bot_id, score, duration_secs, created_at
		 FROM runs ORDER BY score DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.RunID, &e.BotID, &e.Score, &e.DurationSecs, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan run row: %w", err)
		}
		e.CreatedAt = parseTimestamp(createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: run iteration error: %w", err)
	}
	return entries, nil
}

// parseTimestamp handles both time.Time and string representations the
// driver may return for DATETIME columns.
func parseTimestamp(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
