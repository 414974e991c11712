package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GammaPull/internal/domain/models"
	"GammaPull/internal/services/wyckoff"
)

func newScanRunner(t *testing.T, tickers []string, barProvider *fakeBarProvider, chains *fakeChainProvider) (*ScanRunner, *fakeDealerStore, *fakeMetrics) {
	t.Helper()
	dealerStore := &fakeDealerStore{}
	metrics := newFakeMetrics()
	log := testLogger(t)

	snapshots, err := NewSnapshotAnalyzer(chains, &fakeSpotProvider{}, nil,
		dealerStore, &fakePublisher{}, metrics, log, models.DefaultEligibilityConfig())
	require.NoError(t, err)

	structure, err := NewStructureAnalyzer(barProvider, &fakeBarStore{}, &fakeStructureStore{},
		&fakePublisher{}, metrics, log,
		wyckoff.DefaultDetectorConfig(), wyckoff.DefaultSequenceConfig(), 150)
	require.NoError(t, err)

	runner, err := NewScanRunner(snapshots, structure, metrics, log, tickers, 2, 0)
	require.NoError(t, err)
	return runner, dealerStore, metrics
}

func TestRunOnceProcessesAllTickers(t *testing.T) {
	tickers := []string{"AAA", "BBB", "CCC", "DDD"}
	runner, dealerStore, metrics := newScanRunner(t, tickers,
		&fakeBarProvider{bars: makeQuietBars(30)},
		&fakeChainProvider{snap: makeChain(100, 30, 10)})

	degraded := runner.RunOnce(context.Background())

	assert.Zero(t, degraded)
	assert.Len(t, dealerStore.records, len(tickers))
	assert.Equal(t, len(tickers), metrics.scanned["dealer"])
	assert.Equal(t, len(tickers), metrics.scanned["structure"])
}

// One stage failing per ticker degrades that ticker without stopping the
// rest of the run or the other stage.
func TestRunOnceDegradesPerTicker(t *testing.T) {
	tickers := []string{"AAA", "BBB", "CCC"}
	runner, dealerStore, metrics := newScanRunner(t, tickers,
		&fakeBarProvider{err: errors.New("bars unavailable")},
		&fakeChainProvider{snap: makeChain(100, 30, 10)})

	degraded := runner.RunOnce(context.Background())

	assert.Equal(t, len(tickers), degraded)
	assert.Equal(t, len(tickers), metrics.degraded["structure"])
	// Dealer analysis still completed for every ticker.
	assert.Len(t, dealerStore.records, len(tickers))
}

func TestNewScanRunnerRejectsEmptyTickers(t *testing.T) {
	_, err := NewScanRunner(nil, nil, newFakeMetrics(), testLogger(t), nil, 2, 0)
	require.Error(t, err)
}
