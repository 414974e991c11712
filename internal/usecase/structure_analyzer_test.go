package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GammaPull/internal/domain/models"
	"GammaPull/internal/services/wyckoff"
)

var barDay0 = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func makeQuietBars(n int) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	for i := range bars {
		r, v := 0.9, 950.0
		if i%2 == 0 {
			r, v = 1.1, 1050.0
		}
		bars[i] = models.PriceBar{
			Ticker: "TEST",
			Day:    barDay0.AddDate(0, 0, i),
			Open:   100, High: 100 + r, Low: 100 - r, Close: 100,
			Volume: v,
		}
	}
	return bars
}

func newStructureAnalyzer(t *testing.T, provider *fakeBarProvider) (*StructureAnalyzer, *fakeBarStore, *fakeStructureStore, *fakePublisher, *fakeMetrics) {
	t.Helper()
	barStore := &fakeBarStore{}
	structStore := &fakeStructureStore{}
	pub := &fakePublisher{}
	metrics := newFakeMetrics()
	a, err := NewStructureAnalyzer(provider, barStore, structStore, pub, metrics,
		testLogger(t), wyckoff.DefaultDetectorConfig(), wyckoff.DefaultSequenceConfig(), 150)
	require.NoError(t, err)
	return a, barStore, structStore, pub, metrics
}

func TestStructureAnalyzeDetectsAndPersists(t *testing.T) {
	bars := makeQuietBars(30)
	// A climactic down bar so the run produces at least one event.
	bars[25].Open = 100
	bars[25].High = 100.8
	bars[25].Low = 92
	bars[25].Close = 92.4
	bars[25].Volume = 6000

	a, barStore, structStore, _, metrics := newStructureAnalyzer(t, &fakeBarProvider{bars: bars})
	require.NoError(t, a.Analyze(context.Background(), "TEST"))

	assert.Len(t, barStore.bars, 30)
	assert.NotEmpty(t, structStore.events)
	assert.Len(t, structStore.regimes, 30)
	assert.Equal(t, 1, metrics.scanned["structure"])

	// The climax opens an accumulation candidacy that sticks to the end.
	last := structStore.regimes[len(structStore.regimes)-1]
	assert.Equal(t, models.RegimeAccumulation, last.Regime)
}

func TestStructureAnalyzeShortHistorySkips(t *testing.T) {
	a, _, structStore, _, metrics := newStructureAnalyzer(t, &fakeBarProvider{bars: makeQuietBars(10)})
	require.NoError(t, a.Analyze(context.Background(), "TEST"))

	assert.Empty(t, structStore.events)
	assert.Empty(t, structStore.regimes)
	assert.Equal(t, 1, metrics.scanned["structure_skipped"])
}

func TestStructureAnalyzeSeedsFromPersistedRegime(t *testing.T) {
	bars := makeQuietBars(30)
	provider := &fakeBarProvider{bars: bars}
	a, _, structStore, _, _ := newStructureAnalyzer(t, provider)

	structStore.seed = &models.RegimeState{
		Ticker:     "TEST",
		Day:        bars[4].Day,
		Regime:     models.RegimeMarkup,
		Confidence: 0.9,
		SetByEvent: models.EventSOS,
		SetOn:      bars[2].Day,
	}

	require.NoError(t, a.Analyze(context.Background(), "TEST"))

	// Persisted days are not rewritten; the carried state stays markup.
	require.Len(t, structStore.regimes, 25)
	assert.True(t, structStore.regimes[0].Day.Equal(bars[5].Day))
	assert.Equal(t, models.RegimeMarkup, structStore.regimes[0].Regime)
}

func TestStructureAnalyzeProviderError(t *testing.T) {
	a, _, _, _, metrics := newStructureAnalyzer(t, &fakeBarProvider{err: errors.New("provider down")})
	err := a.Analyze(context.Background(), "TEST")
	require.Error(t, err)
	assert.Equal(t, 1, metrics.errs["bars_fetch"])
}

func TestNewStructureAnalyzerRejectsBadConfig(t *testing.T) {
	bad := wyckoff.DefaultDetectorConfig()
	bad.BaselineBars = 0
	_, err := NewStructureAnalyzer(&fakeBarProvider{}, &fakeBarStore{}, &fakeStructureStore{},
		&fakePublisher{}, newFakeMetrics(), testLogger(t), bad, wyckoff.DefaultSequenceConfig(), 150)
	require.Error(t, err)
}
