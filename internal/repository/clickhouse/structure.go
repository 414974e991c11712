package clickhouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	ch "GammaPull/pkg/clickhouse"
	"GammaPull/pkg/util"

	"GammaPull/internal/domain/models"
)

// StructureStore persists Wyckoff events, regime states and sequences.
type StructureStore struct {
	client *ch.Client
}

func NewStructureStore(client *ch.Client) *StructureStore {
	return &StructureStore{client: client}
}

// UpsertEvents writes detected events. Re-detection over the same window
// rewrites identical keys, so replays do not duplicate.
func (s *StructureStore) UpsertEvents(ctx context.Context, events []models.WyckoffEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO gammapull.wyckoff_events
		 (ticker, event_date, event_type, bar_index, direction, role, confidence, price, range_z, volume_z)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx,
			ev.Ticker, util.DayOf(ev.Date), string(ev.Type), int32(ev.BarIndex),
			string(ev.Direction), string(ev.Role), ev.Confidence, ev.Price,
			ev.RangeZ, ev.VolumeZ); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append event %s %s: %w", ev.Ticker, ev.Type, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit events: %w", err)
	}
	return nil
}

// UpsertRegimes writes regime states keyed by (ticker, day).
func (s *StructureStore) UpsertRegimes(ctx context.Context, states []models.RegimeState) error {
	if len(states) == 0 {
		return nil
	}

	tx, err := s.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO gammapull.regime_states
		 (ticker, day, regime, confidence, set_by_event, set_on)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, st := range states {
		if _, err := stmt.ExecContext(ctx,
			st.Ticker, util.DayOf(st.Day), string(st.Regime), st.Confidence,
			string(st.SetByEvent), util.DayOf(st.SetOn)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append regime %s %s: %w", st.Ticker, util.DayString(st.Day), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit regimes: %w", err)
	}
	return nil
}

// UpsertSequences writes sequences keyed by sequence id.
func (s *StructureStore) UpsertSequences(ctx context.Context, seqs []models.Sequence) error {
	if len(seqs) == 0 {
		return nil
	}

	tx, err := s.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO gammapull.sequences
		 (sequence_id, ticker, kind, start_date, completion_date, legs, terminal_type, terminal_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, seq := range seqs {
		legs, err := json.Marshal(seq.Legs)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal legs %s: %w", seq.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			seq.ID, seq.Ticker, seq.Kind, util.DayOf(seq.StartDate),
			util.DayOf(seq.CompletionDate), string(legs),
			string(seq.TerminalType), util.DayOf(seq.TerminalDate)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append sequence %s: %w", seq.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sequences: %w", err)
	}
	return nil
}

// GetEvents returns events in [from, to], date-ascending, capped at limit.
func (s *StructureStore) GetEvents(ctx context.Context, ticker string, from, to time.Time, limit int) ([]models.WyckoffEvent, error) {
	rows, err := s.client.DB().QueryContext(ctx,
		`SELECT ticker, event_date, event_type, bar_index, direction, role, confidence, price, range_z, volume_z
		 FROM gammapull.wyckoff_events FINAL
		 WHERE ticker = ? AND event_date >= ? AND event_date <= ?
		 ORDER BY event_date ASC, bar_index ASC
		 LIMIT ?`,
		ticker, util.DayOf(from), util.DayOf(to), limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []models.WyckoffEvent
	for rows.Next() {
		var (
			ev        models.WyckoffEvent
			evType    string
			barIndex  int32
			direction string
			role      string
		)
		if err := rows.Scan(&ev.Ticker, &ev.Date, &evType, &barIndex,
			&direction, &role, &ev.Confidence, &ev.Price, &ev.RangeZ, &ev.VolumeZ); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Date = util.DayOf(ev.Date)
		ev.Type = models.EventType(evType)
		ev.BarIndex = int(barIndex)
		ev.Direction = models.Direction(direction)
		ev.Role = models.EventRole(role)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// GetRegime returns the state for an exact day.
func (s *StructureStore) GetRegime(ctx context.Context, ticker string, day time.Time) (*models.RegimeState, error) {
	row := s.client.DB().QueryRowContext(ctx,
		regimeSelect+` WHERE ticker = ? AND day = ? LIMIT 1`, ticker, util.DayOf(day))
	return scanRegime(row)
}

// GetLatestRegime returns the newest persisted state, used to seed the
// next fold.
func (s *StructureStore) GetLatestRegime(ctx context.Context, ticker string) (*models.RegimeState, error) {
	row := s.client.DB().QueryRowContext(ctx,
		regimeSelect+` WHERE ticker = ? ORDER BY day DESC LIMIT 1`, ticker)
	return scanRegime(row)
}

const regimeSelect = `SELECT ticker, day, regime, confidence, set_by_event, set_on
FROM gammapull.regime_states FINAL`

func scanRegime(row *sql.Row) (*models.RegimeState, error) {
	var (
		st         models.RegimeState
		regime     string
		setByEvent string
	)
	err := row.Scan(&st.Ticker, &st.Day, &regime, &st.Confidence, &setByEvent, &st.SetOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan regime: %w", err)
	}
	st.Day = util.DayOf(st.Day)
	st.SetOn = util.DayOf(st.SetOn)
	st.Regime = models.Regime(regime)
	st.SetByEvent = models.EventType(setByEvent)
	return &st, nil
}

// GetSequences returns sequences completed in [from, to], ascending by
// completion date.
func (s *StructureStore) GetSequences(ctx context.Context, ticker string, from, to time.Time, limit int) ([]models.Sequence, error) {
	rows, err := s.client.DB().QueryContext(ctx,
		`SELECT sequence_id, ticker, kind, start_date, completion_date, legs, terminal_type, terminal_date
		 FROM gammapull.sequences FINAL
		 WHERE ticker = ? AND completion_date >= ? AND completion_date <= ?
		 ORDER BY completion_date ASC, sequence_id ASC
		 LIMIT ?`,
		ticker, util.DayOf(from), util.DayOf(to), limit)
	if err != nil {
		return nil, fmt.Errorf("query sequences: %w", err)
	}
	defer rows.Close()

	var seqs []models.Sequence
	for rows.Next() {
		var (
			seq      models.Sequence
			legs     string
			terminal string
		)
		if err := rows.Scan(&seq.ID, &seq.Ticker, &seq.Kind, &seq.StartDate,
			&seq.CompletionDate, &legs, &terminal, &seq.TerminalDate); err != nil {
			return nil, fmt.Errorf("scan sequence: %w", err)
		}
		if err := json.Unmarshal([]byte(legs), &seq.Legs); err != nil {
			return nil, fmt.Errorf("decode legs %s: %w", seq.ID, err)
		}
		seq.StartDate = util.DayOf(seq.StartDate)
		seq.CompletionDate = util.DayOf(seq.CompletionDate)
		seq.TerminalDate = util.DayOf(seq.TerminalDate)
		seq.TerminalType = models.EventType(terminal)
		seqs = append(seqs, seq)
	}
	return seqs, rows.Err()
}
