package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/fincache-tui/internal/logger"
	"github.com/j-veylop/fincache-tui/internal/models"
)

// InsertCacheEntry appends a cached response. Existing rows for the same
// category and symbol are left untouched.
func (db *DB) InsertCacheEntry(entry *models.CacheEntry) error {
	query := `
		INSERT INTO cache_data (data_type, symbol, last_updated, raw_data)
		VALUES (?, ?, ?, ?)
	`

	updated := entry.LastUpdated
	if updated.IsZero() {
		updated = time.Now()
	}

	result, err := db.ExecContext(context.Background(), query,
		entry.Category,
		entry.Symbol,
		updated.Format(TimestampLayout),
		entry.RawData,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		entry.ID = id
	}

	return nil
}

// GetLatestCacheEntry returns the most recently inserted entry for the key,
// or nil when nothing is cached.
func (db *DB) GetLatestCacheEntry(category, symbol string) (*models.CacheEntry, error) {
	query := `
		SELECT id, data_type, symbol, last_updated, raw_data
		FROM cache_data
		WHERE data_type = ? AND symbol = ?
		ORDER BY id DESC
		LIMIT 1
	`

	var entry models.CacheEntry
	var updated string

	err := db.QueryRowContext(context.Background(), query, category, symbol).Scan(
		&entry.ID,
		&entry.Category,
		&entry.Symbol,
		&updated,
		&entry.RawData,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	entry.LastUpdated = parseTimestamp(updated)
	return &entry, nil
}

// GetCacheSummary returns one row per category and symbol with the newest
// timestamp and the number of stored rows. An empty category means all.
func (db *DB) GetCacheSummary(category string) ([]models.CacheSummary, error) {
	filter := ""
	var args []any
	if category != "" {
		filter = "WHERE data_type = ?"
		args = append(args, category)
	}

	query := fmt.Sprintf(`
		SELECT data_type, symbol, MAX(last_updated) AS last_updated, COUNT(*) AS data_points
		FROM cache_data
		%s
		GROUP BY data_type, symbol
		ORDER BY data_type, symbol
	`, filter)

	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache summary: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var summaries []models.CacheSummary
	for rows.Next() {
		var s models.CacheSummary
		var updated string
		if err := rows.Scan(&s.Category, &s.Symbol, &updated, &s.DataPoints); err != nil {
			return nil, fmt.Errorf("failed to scan cache summary: %w", err)
		}
		s.LastUpdated = parseTimestamp(updated)
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// GetCachedSymbols returns the distinct symbols cached for a category.
func (db *DB) GetCachedSymbols(category string) ([]string, error) {
	query := `
		SELECT DISTINCT symbol
		FROM cache_data
		WHERE data_type = ?
		ORDER BY symbol
	`

	rows, err := db.QueryContext(context.Background(), query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached symbols: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	return symbols, rows.Err()
}

func parseTimestamp(s string) time.Time {
	t, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		logger.Warn("unparseable timestamp", "value", s, "error", err)
		return time.Time{}
	}
	return t
}
