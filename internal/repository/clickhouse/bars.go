package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	ch "GammaPull/pkg/clickhouse"
	"GammaPull/pkg/util"

	"GammaPull/internal/domain/models"
)

// BarStore persists daily price bars in ClickHouse.
type BarStore struct {
	client *ch.Client
}

func NewBarStore(client *ch.Client) *BarStore {
	return &BarStore{client: client}
}

// UpsertBars writes bars in one batch. Rewriting a (ticker, day) pair
// replaces the previous row on merge.
func (s *BarStore) UpsertBars(ctx context.Context, bars []models.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO gammapull.price_bars (ticker, day, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, b.Ticker, util.DayOf(b.Day), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append bar %s %s: %w", b.Ticker, util.DayString(b.Day), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bars: %w", err)
	}
	return nil
}

// GetBars returns bars for [from, to] in day-ascending order.
func (s *BarStore) GetBars(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error) {
	rows, err := s.client.DB().QueryContext(ctx,
		`SELECT ticker, day, open, high, low, close, volume
		 FROM gammapull.price_bars FINAL
		 WHERE ticker = ? AND day >= ? AND day <= ?
		 ORDER BY day ASC`,
		ticker, util.DayOf(from), util.DayOf(to))
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()
	return scanBars(rows)
}

// GetLatestBars returns the n most recent bars, day-ascending.
func (s *BarStore) GetLatestBars(ctx context.Context, ticker string, n int) ([]models.PriceBar, error) {
	rows, err := s.client.DB().QueryContext(ctx,
		`SELECT ticker, day, open, high, low, close, volume
		 FROM (
			SELECT ticker, day, open, high, low, close, volume
			FROM gammapull.price_bars FINAL
			WHERE ticker = ?
			ORDER BY day DESC
			LIMIT ?
		 )
		 ORDER BY day ASC`,
		ticker, n)
	if err != nil {
		return nil, fmt.Errorf("query latest bars: %w", err)
	}
	defer rows.Close()
	return scanBars(rows)
}

func (s *BarStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func scanBars(rows *sql.Rows) ([]models.PriceBar, error) {
	var bars []models.PriceBar
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Ticker, &b.Day, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Day = util.DayOf(b.Day)
		bars = append(bars, b)
	}
	return bars, rows.Err()
}
