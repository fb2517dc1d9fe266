package db

import (
	"context"
	"fmt"
	"time"

	"github.com/j-veylop/fincache-tui/internal/logger"
	"github.com/j-veylop/fincache-tui/internal/models"
)

// IncrementRequestCount adds one request for endpoint on date (YYYY-MM-DD),
// creating the counter row on first use. It does not rely on a unique
// constraint, so stores created without UNIQUE(endpoint, date) work too.
func (db *DB) IncrementRequestCount(endpoint, date string) error {
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE api_requests SET count = COALESCE(count, 0) + 1
		WHERE id = (
			SELECT id FROM api_requests
			WHERE endpoint = ? AND date = ?
			ORDER BY id LIMIT 1
		)
	`, endpoint, date)
	if err != nil {
		return fmt.Errorf("failed to increment request count: %w", err)
	}

	updated, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to increment request count: %w", err)
	}
	if updated == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO api_requests (endpoint, date, count) VALUES (?, ?, 1)`,
			endpoint, date); err != nil {
			return fmt.Errorf("failed to insert request count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit request count: %w", err)
	}
	return nil
}

// SumRequestCounts returns the total requests across endpoints for date.
func (db *DB) SumRequestCounts(date string) (int, error) {
	query := `SELECT COALESCE(SUM(count), 0) FROM api_requests WHERE date = ?`

	var total int
	if err := db.QueryRowContext(context.Background(), query, date).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum request counts: %w", err)
	}
	return total, nil
}

// GetRequestCounts returns per-endpoint counts for date, busiest first.
func (db *DB) GetRequestCounts(date string) ([]models.EndpointUsage, error) {
	query := `
		SELECT endpoint, date, count
		FROM api_requests
		WHERE date = ?
		ORDER BY count DESC, endpoint
	`

	rows, err := db.QueryContext(context.Background(), query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query request counts: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var usage []models.EndpointUsage
	for rows.Next() {
		var u models.EndpointUsage
		if err := rows.Scan(&u.Endpoint, &u.Date, &u.Count); err != nil {
			return nil, fmt.Errorf("failed to scan request count: %w", err)
		}
		usage = append(usage, u)
	}

	return usage, rows.Err()
}

// GetDailyRequestTotals returns the total per day for dates on or after
// since (YYYY-MM-DD), oldest first. Days without requests are omitted.
func (db *DB) GetDailyRequestTotals(since string) ([]models.DailyUsage, error) {
	query := `
		SELECT date, SUM(count)
		FROM api_requests
		WHERE date >= ?
		GROUP BY date
		ORDER BY date ASC
	`

	rows, err := db.QueryContext(context.Background(), query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var totals []models.DailyUsage
	for rows.Next() {
		var d models.DailyUsage
		var dateStr string
		if err := rows.Scan(&dateStr, &d.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily total: %w", err)
		}
		if t, err := time.ParseInLocation(DateLayout, dateStr, time.Local); err == nil {
			d.Date = t
		}
		totals = append(totals, d)
	}

	return totals, rows.Err()
}
