package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GammaPull/internal/domain/models"
)

var snapAt = time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)

func makeChain(spot float64, calls, puts int) *models.ChainSnapshot {
	snap := &models.ChainSnapshot{Ticker: "TEST", TakenAt: snapAt, Spot: spot}
	gamma := 0.02
	exp := snapAt.AddDate(0, 0, 10)
	for i := 0; i < calls; i++ {
		g := gamma
		snap.Contracts = append(snap.Contracts, models.OptionContract{
			Ticker: "TEST", Side: models.SideCall,
			Strike: 100 + float64(i%5), Expiration: exp,
			OpenInterest: 50, Volume: 10, Gamma: &g,
		})
	}
	for i := 0; i < puts; i++ {
		g := gamma
		snap.Contracts = append(snap.Contracts, models.OptionContract{
			Ticker: "TEST", Side: models.SidePut,
			Strike: 95 + float64(i%5), Expiration: exp,
			OpenInterest: 30, Volume: 10, Gamma: &g,
		})
	}
	return snap
}

func newSnapshotAnalyzer(t *testing.T, chains *fakeChainProvider, spots *fakeSpotProvider, stream LastTradeSource) (*SnapshotAnalyzer, *fakeDealerStore, *fakePublisher, *fakeMetrics) {
	t.Helper()
	store := &fakeDealerStore{}
	pub := &fakePublisher{}
	metrics := newFakeMetrics()
	a, err := NewSnapshotAnalyzer(chains, spots, stream, store, pub, metrics,
		testLogger(t), models.DefaultEligibilityConfig())
	require.NoError(t, err)
	return a, store, pub, metrics
}

func TestAnalyzeFullChain(t *testing.T) {
	chains := &fakeChainProvider{snap: makeChain(100, 20, 15)}
	a, store, pub, _ := newSnapshotAnalyzer(t, chains, &fakeSpotProvider{}, nil)

	rec, err := a.Analyze(context.Background(), "TEST")
	require.NoError(t, err)

	assert.Equal(t, models.StatusFull, rec.Status)
	assert.Equal(t, models.ReasonOK, rec.StatusReason)
	assert.Equal(t, "chain_snapshot", rec.SpotSource)
	assert.Equal(t, 35, rec.RawContractCount)
	assert.Equal(t, 35, rec.EligibleCount)
	assert.Equal(t, models.ConfidenceHigh, rec.Confidence)
	assert.Equal(t, models.PositionLongGamma, rec.Position)
	assert.Greater(t, rec.GexTotal, 0.0)
	assert.NotEmpty(t, rec.CallWalls)
	assert.NotNil(t, rec.PrimaryCallWall)

	require.Len(t, store.records, 1)
	assert.Equal(t, 1, pub.dealer)
}

func TestAnalyzeSpotLadder(t *testing.T) {
	// Snapshot spot missing, stream has a trade.
	chains := &fakeChainProvider{snap: makeChain(0, 30, 0)}
	a, _, _, _ := newSnapshotAnalyzer(t, chains, &fakeSpotProvider{price: 99, source: "prev_close"},
		&fakeStream{price: 101.5, ok: true})

	rec, err := a.Analyze(context.Background(), "TEST")
	require.NoError(t, err)
	assert.Equal(t, "last_trade", rec.SpotSource)
	assert.Equal(t, 101.5, rec.Spot)

	// No stream: fall through to the REST previous close.
	a2, _, _, _ := newSnapshotAnalyzer(t, &fakeChainProvider{snap: makeChain(0, 30, 0)},
		&fakeSpotProvider{price: 99, source: "prev_close"}, &fakeStream{ok: false})
	rec, err = a2.Analyze(context.Background(), "TEST")
	require.NoError(t, err)
	assert.Equal(t, "prev_close", rec.SpotSource)
	assert.Equal(t, 99.0, rec.Spot)
}

func TestAnalyzeSpotUnresolved(t *testing.T) {
	chains := &fakeChainProvider{snap: makeChain(0, 30, 0)}
	a, store, _, _ := newSnapshotAnalyzer(t, chains, &fakeSpotProvider{}, nil)

	rec, err := a.Analyze(context.Background(), "TEST")
	require.NoError(t, err)

	// Unresolved spot still persists a record; it is just unusable.
	assert.Equal(t, models.StatusInvalid, rec.Status)
	assert.Equal(t, models.ReasonSpotUnresolved, rec.StatusReason)
	assert.Zero(t, rec.Spot)
	require.Len(t, store.records, 1)
}

func TestAnalyzeEmptyChain(t *testing.T) {
	chains := &fakeChainProvider{snap: &models.ChainSnapshot{Ticker: "TEST", TakenAt: snapAt, Spot: 100}}
	a, _, _, _ := newSnapshotAnalyzer(t, chains, &fakeSpotProvider{}, nil)

	rec, err := a.Analyze(context.Background(), "TEST")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInvalid, rec.Status)
	assert.Equal(t, models.ReasonNoOptionsAvailable, rec.StatusReason)
}

func TestAnalyzeLimitedSample(t *testing.T) {
	// 10 eligible contracts among 20 raw: half the chain lacks greeks, so
	// confidence grades medium and the small sample lands LIMITED.
	snap := makeChain(100, 10, 0)
	exp := snapAt.AddDate(0, 0, 10)
	for i := 0; i < 10; i++ {
		snap.Contracts = append(snap.Contracts, models.OptionContract{
			Ticker: "TEST", Side: models.SideCall,
			Strike: 100, Expiration: exp,
			OpenInterest: 50, Volume: 10, Gamma: nil,
		})
	}

	a, _, _, _ := newSnapshotAnalyzer(t, &fakeChainProvider{snap: snap}, &fakeSpotProvider{}, nil)
	rec, err := a.Analyze(context.Background(), "TEST")
	require.NoError(t, err)

	assert.Equal(t, models.ConfidenceMedium, rec.Confidence)
	assert.Equal(t, models.StatusLimited, rec.Status)
	assert.Equal(t, models.ReasonLimitedSample, rec.StatusReason)
	assert.Equal(t, 10, rec.EligibleCount)
}

func TestAnalyzePublishFailureIsNonFatal(t *testing.T) {
	chains := &fakeChainProvider{snap: makeChain(100, 30, 0)}
	store := &fakeDealerStore{}
	pub := &fakePublisher{failAll: true}
	metrics := newFakeMetrics()
	a, err := NewSnapshotAnalyzer(chains, &fakeSpotProvider{}, nil, store, pub, metrics,
		testLogger(t), models.DefaultEligibilityConfig())
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), "TEST")
	require.NoError(t, err)
	require.Len(t, store.records, 1)
	assert.Equal(t, 1, metrics.errs["publish"])
}

func TestAnalyzeChainFetchError(t *testing.T) {
	chains := &fakeChainProvider{err: errors.New("provider down")}
	a, store, _, metrics := newSnapshotAnalyzer(t, chains, &fakeSpotProvider{}, nil)

	_, err := a.Analyze(context.Background(), "TEST")
	require.Error(t, err)
	assert.Empty(t, store.records)
	assert.Equal(t, 1, metrics.errs["chain_fetch"])
}

// Same snapshot in, same record out.
func TestAnalyzeIdempotent(t *testing.T) {
	chains := &fakeChainProvider{snap: makeChain(100, 20, 15)}
	a, store, _, _ := newSnapshotAnalyzer(t, chains, &fakeSpotProvider{}, nil)

	first, err := a.Analyze(context.Background(), "TEST")
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), "TEST")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, store.records, 2)
}

func TestNewSnapshotAnalyzerRejectsBadConfig(t *testing.T) {
	cfg := models.DefaultEligibilityConfig()
	cfg.MaxMoneyness = -1
	_, err := NewSnapshotAnalyzer(&fakeChainProvider{}, &fakeSpotProvider{}, nil,
		&fakeDealerStore{}, &fakePublisher{}, newFakeMetrics(), testLogger(t), cfg)
	require.Error(t, err)
}
