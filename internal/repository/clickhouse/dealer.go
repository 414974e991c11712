package clickhouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	ch "GammaPull/pkg/clickhouse"

	"GammaPull/internal/domain/models"
)

// ErrNotFound is returned when a read matches no record.
var ErrNotFound = errors.New("clickhouse: record not found")

// DealerStore persists dealer metrics records. Walls and config ride as
// JSON columns: they are read back whole, never filtered by field.
type DealerStore struct {
	client *ch.Client
}

func NewDealerStore(client *ch.Client) *DealerStore {
	return &DealerStore{client: client}
}

// UpsertRecord writes one record keyed by (ticker, snapshot time).
func (s *DealerStore) UpsertRecord(ctx context.Context, rec *models.DealerMetricsRecord) error {
	callWalls, err := json.Marshal(rec.CallWalls)
	if err != nil {
		return fmt.Errorf("marshal call walls: %w", err)
	}
	putWalls, err := json.Marshal(rec.PutWalls)
	if err != nil {
		return fmt.Errorf("marshal put walls: %w", err)
	}
	primaryCall, err := marshalOrEmpty(rec.PrimaryCallWall)
	if err != nil {
		return fmt.Errorf("marshal primary call wall: %w", err)
	}
	primaryPut, err := marshalOrEmpty(rec.PrimaryPutWall)
	if err != nil {
		return fmt.Errorf("marshal primary put wall: %w", err)
	}
	cfg, err := json.Marshal(rec.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	_, err = s.client.DB().ExecContext(ctx,
		`INSERT INTO gammapull.dealer_metrics (
			ticker, snapshot_at, spot, spot_source, gex_total, gex_net, gamma_flip,
			call_walls, put_walls, primary_call_wall, primary_put_wall,
			raw_contract_count, eligible_count, position, confidence,
			status, status_reason, pin_risk, config
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Ticker, rec.SnapshotAt.UTC(), rec.Spot, rec.SpotSource,
		rec.GexTotal, rec.GexNet, rec.GammaFlip,
		string(callWalls), string(putWalls), primaryCall, primaryPut,
		uint32(rec.RawContractCount), uint32(rec.EligibleCount),
		string(rec.Position), string(rec.Confidence),
		string(rec.Status), rec.StatusReason, rec.PinRisk, string(cfg))
	if err != nil {
		return fmt.Errorf("insert dealer metrics: %w", err)
	}
	return nil
}

// GetLatest returns the newest record for a ticker.
func (s *DealerStore) GetLatest(ctx context.Context, ticker string) (*models.DealerMetricsRecord, error) {
	row := s.client.DB().QueryRowContext(ctx,
		dealerSelect+` WHERE ticker = ? ORDER BY snapshot_at DESC LIMIT 1`, ticker)
	return scanDealerRecord(row)
}

// GetAt returns the newest record at or before the given time.
func (s *DealerStore) GetAt(ctx context.Context, ticker string, at time.Time) (*models.DealerMetricsRecord, error) {
	row := s.client.DB().QueryRowContext(ctx,
		dealerSelect+` WHERE ticker = ? AND snapshot_at <= ? ORDER BY snapshot_at DESC LIMIT 1`,
		ticker, at.UTC())
	return scanDealerRecord(row)
}

const dealerSelect = `SELECT
	ticker, snapshot_at, spot, spot_source, gex_total, gex_net, gamma_flip,
	call_walls, put_walls, primary_call_wall, primary_put_wall,
	raw_contract_count, eligible_count, position, confidence,
	status, status_reason, pin_risk, config
FROM gammapull.dealer_metrics FINAL`

func scanDealerRecord(row *sql.Row) (*models.DealerMetricsRecord, error) {
	var (
		rec         models.DealerMetricsRecord
		gammaFlip   sql.NullFloat64
		callWalls   string
		putWalls    string
		primaryCall string
		primaryPut  string
		rawCount    uint32
		eligible    uint32
		position    string
		confidence  string
		status      string
		cfg         string
	)

	err := row.Scan(
		&rec.Ticker, &rec.SnapshotAt, &rec.Spot, &rec.SpotSource,
		&rec.GexTotal, &rec.GexNet, &gammaFlip,
		&callWalls, &putWalls, &primaryCall, &primaryPut,
		&rawCount, &eligible, &position, &confidence,
		&status, &rec.StatusReason, &rec.PinRisk, &cfg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan dealer metrics: %w", err)
	}

	if gammaFlip.Valid {
		v := gammaFlip.Float64
		rec.GammaFlip = &v
	}
	if err := json.Unmarshal([]byte(callWalls), &rec.CallWalls); err != nil {
		return nil, fmt.Errorf("decode call walls: %w", err)
	}
	if err := json.Unmarshal([]byte(putWalls), &rec.PutWalls); err != nil {
		return nil, fmt.Errorf("decode put walls: %w", err)
	}
	if primaryCall != "" {
		rec.PrimaryCallWall = &models.PrimaryWall{}
		if err := json.Unmarshal([]byte(primaryCall), rec.PrimaryCallWall); err != nil {
			return nil, fmt.Errorf("decode primary call wall: %w", err)
		}
	}
	if primaryPut != "" {
		rec.PrimaryPutWall = &models.PrimaryWall{}
		if err := json.Unmarshal([]byte(primaryPut), rec.PrimaryPutWall); err != nil {
			return nil, fmt.Errorf("decode primary put wall: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(cfg), &rec.Config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	rec.RawContractCount = int(rawCount)
	rec.EligibleCount = int(eligible)
	rec.Position = models.DealerPosition(position)
	rec.Confidence = models.Confidence(confidence)
	rec.Status = models.MetricsStatus(status)
	return &rec, nil
}

func marshalOrEmpty(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	switch t := v.(type) {
	case *models.PrimaryWall:
		if t == nil {
			return "", nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
