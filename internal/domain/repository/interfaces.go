package repository

import (
	"context"
	"time"

	"GammaPull/internal/domain/models"
)

// BarProvider delivers one OHLCV bar per ticker per trading day.
type BarProvider interface {
	DailyBars(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error)
}

// ChainProvider delivers a point-in-time option chain snapshot.
type ChainProvider interface {
	ChainSnapshot(ctx context.Context, ticker string) (*models.ChainSnapshot, error)
}

// SpotProvider resolves one reference price per ticker per snapshot.
type SpotProvider interface {
	// Spot returns (price, source). source identifies the resolution rung
	// (e.g. "prev_close", "last_trade"). price <= 0 means unresolved.
	Spot(ctx context.Context, ticker string) (float64, string, error)
}

// BarStore persists and reads daily price bars.
type BarStore interface {
	UpsertBars(ctx context.Context, bars []models.PriceBar) error
	GetBars(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error)
	GetLatestBars(ctx context.Context, ticker string, n int) ([]models.PriceBar, error)
	Health(ctx context.Context) error
}

// DealerStore persists dealer metrics records. Upserts are idempotent per
// (ticker, snapshot time); rewriting a key leaves the last write's values.
type DealerStore interface {
	UpsertRecord(ctx context.Context, rec *models.DealerMetricsRecord) error
	GetLatest(ctx context.Context, ticker string) (*models.DealerMetricsRecord, error)
	GetAt(ctx context.Context, ticker string, at time.Time) (*models.DealerMetricsRecord, error)
}

// StructureStore persists Wyckoff events, regime states and sequences.
type StructureStore interface {
	UpsertEvents(ctx context.Context, events []models.WyckoffEvent) error
	UpsertRegimes(ctx context.Context, states []models.RegimeState) error
	UpsertSequences(ctx context.Context, seqs []models.Sequence) error

	GetEvents(ctx context.Context, ticker string, from, to time.Time, limit int) ([]models.WyckoffEvent, error)
	GetRegime(ctx context.Context, ticker string, day time.Time) (*models.RegimeState, error)
	GetLatestRegime(ctx context.Context, ticker string) (*models.RegimeState, error)
	GetSequences(ctx context.Context, ticker string, from, to time.Time, limit int) ([]models.Sequence, error)
}

// Publisher pushes derived records to downstream consumers.
type Publisher interface {
	PublishDealerMetrics(ctx context.Context, rec *models.DealerMetricsRecord) error
	PublishSequence(ctx context.Context, seq *models.Sequence) error
	Close() error
}

// Metrics abstracts operational counters so use cases stay decoupled from
// the Prometheus registry.
type Metrics interface {
	RecordTickerScanned(stage, ticker string)
	RecordDegraded(ticker, reason string)
	RecordError(kind string)
	RecordGexNet(ticker string, v float64)
	RecordEventsDetected(ticker string, n int)
	RecordLatency(op string, seconds float64)
}
