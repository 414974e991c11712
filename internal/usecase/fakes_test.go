package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"GammaPull/pkg/logger"

	chrepo "GammaPull/internal/repository/clickhouse"

	"GammaPull/internal/domain/models"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

type fakeChainProvider struct {
	snap *models.ChainSnapshot
	err  error
}

func (f *fakeChainProvider) ChainSnapshot(ctx context.Context, ticker string) (*models.ChainSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

type fakeSpotProvider struct {
	price  float64
	source string
	err    error
}

func (f *fakeSpotProvider) Spot(ctx context.Context, ticker string) (float64, string, error) {
	return f.price, f.source, f.err
}

type fakeStream struct {
	price float64
	ok    bool
}

func (f *fakeStream) LastTrade(ticker string) (float64, time.Time, bool) {
	return f.price, time.Now(), f.ok
}

type fakeDealerStore struct {
	mu      sync.Mutex
	records []*models.DealerMetricsRecord
	err     error
}

func (f *fakeDealerStore) UpsertRecord(ctx context.Context, rec *models.DealerMetricsRecord) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeDealerStore) GetLatest(ctx context.Context, ticker string) (*models.DealerMetricsRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.records) == 0 {
		return nil, chrepo.ErrNotFound
	}
	return f.records[len(f.records)-1], nil
}

func (f *fakeDealerStore) GetAt(ctx context.Context, ticker string, at time.Time) (*models.DealerMetricsRecord, error) {
	return f.GetLatest(ctx, ticker)
}

type fakeBarProvider struct {
	bars []models.PriceBar
	err  error
}

func (f *fakeBarProvider) DailyBars(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

type fakeBarStore struct {
	mu   sync.Mutex
	bars []models.PriceBar
	err  error
}

func (f *fakeBarStore) UpsertBars(ctx context.Context, bars []models.PriceBar) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bars = bars
	return nil
}

func (f *fakeBarStore) GetBars(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bars, nil
}

func (f *fakeBarStore) GetLatestBars(ctx context.Context, ticker string, n int) ([]models.PriceBar, error) {
	return f.GetBars(ctx, ticker, time.Time{}, time.Time{})
}

func (f *fakeBarStore) Health(ctx context.Context) error { return nil }

type fakeStructureStore struct {
	mu      sync.Mutex
	events  []models.WyckoffEvent
	regimes []models.RegimeState
	seqs    []models.Sequence
	seed    *models.RegimeState
	err     error
}

func (f *fakeStructureStore) UpsertEvents(ctx context.Context, events []models.WyckoffEvent) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = events
	return nil
}

func (f *fakeStructureStore) UpsertRegimes(ctx context.Context, states []models.RegimeState) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regimes = states
	return nil
}

func (f *fakeStructureStore) UpsertSequences(ctx context.Context, seqs []models.Sequence) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seqs = seqs
	return nil
}

func (f *fakeStructureStore) GetEvents(ctx context.Context, ticker string, from, to time.Time, limit int) ([]models.WyckoffEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events, nil
}

func (f *fakeStructureStore) GetRegime(ctx context.Context, ticker string, day time.Time) (*models.RegimeState, error) {
	return f.GetLatestRegime(ctx, ticker)
}

func (f *fakeStructureStore) GetLatestRegime(ctx context.Context, ticker string) (*models.RegimeState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seed == nil {
		return nil, chrepo.ErrNotFound
	}
	return f.seed, nil
}

func (f *fakeStructureStore) GetSequences(ctx context.Context, ticker string, from, to time.Time, limit int) ([]models.Sequence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seqs, nil
}

type fakePublisher struct {
	mu      sync.Mutex
	dealer  int
	seqs    int
	failAll bool
}

func (f *fakePublisher) PublishDealerMetrics(ctx context.Context, rec *models.DealerMetricsRecord) error {
	if f.failAll {
		return errors.New("broker down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dealer++
	return nil
}

func (f *fakePublisher) PublishSequence(ctx context.Context, seq *models.Sequence) error {
	if f.failAll {
		return errors.New("broker down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seqs++
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	mu       sync.Mutex
	scanned  map[string]int
	degraded map[string]int
	errs     map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		scanned:  make(map[string]int),
		degraded: make(map[string]int),
		errs:     make(map[string]int),
	}
}

func (f *fakeMetrics) RecordTickerScanned(stage, ticker string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanned[stage]++
}

func (f *fakeMetrics) RecordDegraded(ticker, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.degraded[reason]++
}

func (f *fakeMetrics) RecordError(kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[kind]++
}

func (f *fakeMetrics) RecordGexNet(ticker string, v float64)     {}
func (f *fakeMetrics) RecordEventsDetected(ticker string, n int) {}
func (f *fakeMetrics) RecordLatency(op string, seconds float64)  {}
