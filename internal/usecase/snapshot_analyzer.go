package usecase

import (
	"context"
	"fmt"
	"time"

	"GammaPull/pkg/logger"

	"GammaPull/internal/domain/models"
	"GammaPull/internal/domain/repository"
	"GammaPull/internal/services/gex"
)

// LastTradeSource is an optional real-time spot rung. The stream feed
// satisfies it; a nil source skips the rung.
type LastTradeSource interface {
	LastTrade(ticker string) (float64, time.Time, bool)
}

// SnapshotAnalyzer turns one option-chain snapshot into a persisted
// dealer metrics record. Every run recomputes the record from scratch;
// rewriting the same (ticker, snapshot time) is idempotent.
type SnapshotAnalyzer struct {
	chains  repository.ChainProvider
	spots   repository.SpotProvider
	stream  LastTradeSource
	store   repository.DealerStore
	pub     repository.Publisher
	metrics repository.Metrics
	log     *logger.Logger
	cfg     models.EligibilityConfig
}

func NewSnapshotAnalyzer(
	chains repository.ChainProvider,
	spots repository.SpotProvider,
	stream LastTradeSource,
	store repository.DealerStore,
	pub repository.Publisher,
	metrics repository.Metrics,
	log *logger.Logger,
	cfg models.EligibilityConfig,
) (*SnapshotAnalyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot analyzer: %w", err)
	}
	return &SnapshotAnalyzer{
		chains:  chains,
		spots:   spots,
		stream:  stream,
		store:   store,
		pub:     pub,
		metrics: metrics,
		log:     log,
		cfg:     cfg,
	}, nil
}

// Analyze computes, persists and publishes the dealer metrics record for
// one ticker. An unresolved spot or empty chain still yields a persisted
// INVALID record; only infrastructure failures return an error.
func (a *SnapshotAnalyzer) Analyze(ctx context.Context, ticker string) (*models.DealerMetricsRecord, error) {
	start := time.Now()
	defer func() {
		a.metrics.RecordLatency("snapshot_analyze", time.Since(start).Seconds())
	}()

	snap, err := a.chains.ChainSnapshot(ctx, ticker)
	if err != nil {
		a.metrics.RecordError("chain_fetch")
		return nil, fmt.Errorf("chain snapshot %s: %w", ticker, err)
	}

	spot, spotSource := a.resolveSpot(ctx, ticker, snap)

	rec := a.build(ticker, snap, spot, spotSource)

	if err := a.store.UpsertRecord(ctx, rec); err != nil {
		a.metrics.RecordError("dealer_upsert")
		return nil, fmt.Errorf("upsert dealer metrics %s: %w", ticker, err)
	}
	if err := a.pub.PublishDealerMetrics(ctx, rec); err != nil {
		// Publishing is best-effort; the stored record is authoritative.
		a.metrics.RecordError("publish")
		a.log.Warn("dealer metrics publish failed",
			logger.String("ticker", ticker), logger.Error(err))
	}

	a.metrics.RecordTickerScanned("dealer", ticker)
	a.metrics.RecordGexNet(ticker, rec.GexNet)
	a.log.Info("dealer metrics computed",
		logger.String("ticker", ticker),
		logger.String("status", string(rec.Status)),
		logger.String("reason", rec.StatusReason),
		logger.Int("eligible", rec.EligibleCount),
		logger.Float64("gex_net", rec.GexNet))
	return rec, nil
}

// resolveSpot walks the resolution ladder: snapshot-embedded spot, then
// the stream's last trade, then the REST previous close. Zero means
// unresolved.
func (a *SnapshotAnalyzer) resolveSpot(ctx context.Context, ticker string, snap *models.ChainSnapshot) (float64, string) {
	if snap.Spot > 0 {
		return snap.Spot, "chain_snapshot"
	}
	if a.stream != nil {
		if price, _, ok := a.stream.LastTrade(ticker); ok && price > 0 {
			return price, "last_trade"
		}
	}
	if a.spots != nil {
		price, source, err := a.spots.Spot(ctx, ticker)
		if err != nil {
			a.log.Warn("spot fallback failed", logger.String("ticker", ticker), logger.Error(err))
		} else if price > 0 {
			return price, source
		}
	}
	return 0, ""
}

func (a *SnapshotAnalyzer) build(ticker string, snap *models.ChainSnapshot, spot float64, spotSource string) *models.DealerMetricsRecord {
	rec := &models.DealerMetricsRecord{
		Ticker:           ticker,
		SnapshotAt:       snap.TakenAt,
		Spot:             spot,
		SpotSource:       spotSource,
		RawContractCount: len(snap.Contracts),
		Position:         models.PositionUnknown,
		Config:           a.cfg,
	}

	withGamma := 0
	for _, c := range snap.Contracts {
		if c.Gamma != nil {
			withGamma++
		}
	}
	rec.Confidence = gex.GradeConfidence(len(snap.Contracts), withGamma)

	totalsPresent := false
	if spot > 0 {
		aggs, eligible := gex.AggregateByStrike(snap.Contracts, spot, snap.TakenAt, a.cfg)
		rec.EligibleCount = eligible

		if len(aggs) > 0 {
			rec.GexTotal, rec.GexNet = gex.Totals(aggs)
			rec.GammaFlip = gex.GammaFlip(aggs)
			rec.Position = gex.Position(rec.GexNet)
			rec.CallWalls, rec.PutWalls = gex.RankWalls(aggs, spot, a.cfg.WallCount)
			rec.PrimaryCallWall = gex.Primary(rec.CallWalls, spot)
			rec.PrimaryPutWall = gex.Primary(rec.PutWalls, spot)
			rec.PinRisk = gex.PinRisk(spot, rec.PrimaryCallWall, rec.PrimaryPutWall)
			totalsPresent = true
		}
	}

	rec.Status, rec.StatusReason = gex.Classify(gex.ValidityInput{
		SpotResolved:  spot > 0,
		RawCount:      rec.RawContractCount,
		EligibleCount: rec.EligibleCount,
		TotalsPresent: totalsPresent,
		GexTotal:      rec.GexTotal,
		Position:      rec.Position,
		Confidence:    rec.Confidence,
	})
	return rec
}
