// Package sqlite provides a SQLite-backed implementation of the price and intent stats ports.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
	"github.com/shopspring/decimal"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/domain"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/ports"
)

// Adapter implements the repository ports for SQLite
type Adapter struct {
	db *sql.DB
}

var (
	_ ports.PriceRepository       = (*Adapter)(nil)
	_ ports.IntentStatsRepository = (*Adapter)(nil)
	_ ports.CropRepository        = (*Adapter)(nil)
)

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	// Each :memory: connection is a separate database.
	if storagePath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	adapter := &Adapter{db: db}
	if err := adapter.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

// Ping checks the connection for GET /ready.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// SeedPrices inserts rows whose commodity is not stored yet. Existing rows are
// left untouched and new rows are appended after them.
func (a *Adapter) SeedPrices(ctx context.Context, rows []domain.MarketPriceEntry) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(position), -1) + 1 FROM prices").Scan(&next); err != nil {
		return fmt.Errorf("failed to read price position: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO prices (commodity, price, unit, source_market, position)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(commodity) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		key := strings.ToLower(strings.TrimSpace(row.Commodity))
		res, err := stmt.ExecContext(ctx, key, row.Price.String(), row.Unit, row.SourceMarket, next)
		if err != nil {
			return fmt.Errorf("failed to seed price %s: %w", key, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			next++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

// ListPrices returns the stored rows in seed order.
func (a *Adapter) ListPrices(ctx context.Context) ([]domain.MarketPriceEntry, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT commodity, price, unit, source_market
		FROM prices
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices: %w", err)
	}
	defer rows.Close()

	entries := []domain.MarketPriceEntry{}
	for rows.Next() {
		var (
			entry domain.MarketPriceEntry
			price string
		)
		if err := rows.Scan(&entry.Commodity, &price, &entry.Unit, &entry.SourceMarket); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		entry.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("failed to parse price for %s: %w", entry.Commodity, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prices: %w", err)
	}
	return entries, nil
}

// RecordIntentHit increments the counter for intent.
func (a *Adapter) RecordIntentHit(ctx context.Context, intent domain.Intent, at time.Time) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO intent_hits (intent, count, last_seen_at) VALUES (?, 1, ?)
		ON CONFLICT(intent) DO UPDATE SET
			count = count + 1,
			last_seen_at = MAX(last_seen_at, excluded.last_seen_at)
	`, string(intent), at.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record intent hit: %w", err)
	}
	return nil
}

// IntentStats returns all counters, most frequent first.
func (a *Adapter) IntentStats(ctx context.Context) ([]domain.IntentStat, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT intent, count, last_seen_at
		FROM intent_hits
		ORDER BY count DESC, intent ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load intent stats: %w", err)
	}
	defer rows.Close()

	stats := []domain.IntentStat{}
	for rows.Next() {
		var (
			stat     domain.IntentStat
			intent   string
			lastSeen int64
		)
		if err := rows.Scan(&intent, &stat.Count, &lastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan intent stat: %w", err)
		}
		stat.Intent = domain.Intent(intent)
		stat.LastSeenAt = time.UnixMilli(lastSeen).UTC()
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate intent stats: %w", err)
	}
	return stats, nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS prices (
		commodity TEXT PRIMARY KEY,
		price TEXT NOT NULL,
		unit TEXT NOT NULL,
		source_market TEXT NOT NULL,
		position INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS intent_hits (
		intent TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 0,
		last_seen_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS crops (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		crop_name TEXT NOT NULL,
		category TEXT NOT NULL,
		quantity TEXT NOT NULL,
		unit TEXT NOT NULL DEFAULT 'kg',
		price_per_unit TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'available',
		seller TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_crops_status ON crops (status, category, location);
	`
	_, err := a.db.Exec(query)
	return err
}
