package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"GammaPull/pkg/logger"

	chrepo "GammaPull/internal/repository/clickhouse"

	"GammaPull/internal/domain/models"
	"GammaPull/internal/domain/repository"
	"GammaPull/internal/services/wyckoff"
)

// StructureAnalyzer runs the Wyckoff pipeline for one ticker: refresh
// bars, detect events over the full window, fold the regime state from
// the last persisted day, and assemble validated sequences.
type StructureAnalyzer struct {
	bars        repository.BarProvider
	barStore    repository.BarStore
	structStore repository.StructureStore
	pub         repository.Publisher
	metrics     repository.Metrics
	log         *logger.Logger

	detector    *wyckoff.Detector
	seqCfg      wyckoff.SequenceConfig
	historyDays int
}

func NewStructureAnalyzer(
	bars repository.BarProvider,
	barStore repository.BarStore,
	structStore repository.StructureStore,
	pub repository.Publisher,
	metrics repository.Metrics,
	log *logger.Logger,
	detCfg wyckoff.DetectorConfig,
	seqCfg wyckoff.SequenceConfig,
	historyDays int,
) (*StructureAnalyzer, error) {
	if err := detCfg.Validate(); err != nil {
		return nil, fmt.Errorf("structure analyzer: %w", err)
	}
	if err := seqCfg.Validate(); err != nil {
		return nil, fmt.Errorf("structure analyzer: %w", err)
	}
	if historyDays <= 0 {
		historyDays = 150
	}
	return &StructureAnalyzer{
		bars:        bars,
		barStore:    barStore,
		structStore: structStore,
		pub:         pub,
		metrics:     metrics,
		log:         log,
		detector:    wyckoff.NewDetector(detCfg),
		seqCfg:      seqCfg,
		historyDays: historyDays,
	}, nil
}

// Analyze runs the full structural pass for a ticker. Short histories
// skip detection without error; re-running over the same window rewrites
// identical keys.
func (a *StructureAnalyzer) Analyze(ctx context.Context, ticker string) error {
	start := time.Now()
	defer func() {
		a.metrics.RecordLatency("structure_analyze", time.Since(start).Seconds())
	}()

	bars, err := a.refreshBars(ctx, ticker)
	if err != nil {
		return err
	}

	events := a.detector.DetectEvents(ticker, bars)
	if len(bars) > 0 && events == nil && len(bars) < a.detector.Config().MinHistory() {
		a.log.Info("history below detector baseline, skipping",
			logger.String("ticker", ticker), logger.Int("bars", len(bars)))
		a.metrics.RecordTickerScanned("structure_skipped", ticker)
		return nil
	}

	if err := a.structStore.UpsertEvents(ctx, events); err != nil {
		a.metrics.RecordError("events_upsert")
		return fmt.Errorf("upsert events %s: %w", ticker, err)
	}
	a.metrics.RecordEventsDetected(ticker, len(events))

	seed, err := a.structStore.GetLatestRegime(ctx, ticker)
	if err != nil && !errors.Is(err, chrepo.ErrNotFound) {
		a.metrics.RecordError("regime_seed")
		return fmt.Errorf("load regime seed %s: %w", ticker, err)
	}

	states := wyckoff.FoldRegimes(ticker, bars, events, seed)
	if err := a.structStore.UpsertRegimes(ctx, states); err != nil {
		a.metrics.RecordError("regime_upsert")
		return fmt.Errorf("upsert regimes %s: %w", ticker, err)
	}

	seqs := wyckoff.BuildSequences(ticker, events, a.seqCfg)
	if err := a.structStore.UpsertSequences(ctx, seqs); err != nil {
		a.metrics.RecordError("sequence_upsert")
		return fmt.Errorf("upsert sequences %s: %w", ticker, err)
	}
	for i := range seqs {
		if err := a.pub.PublishSequence(ctx, &seqs[i]); err != nil {
			a.metrics.RecordError("publish")
			a.log.Warn("sequence publish failed",
				logger.String("ticker", ticker), logger.Error(err))
			break
		}
	}

	a.metrics.RecordTickerScanned("structure", ticker)
	a.log.Info("structure analyzed",
		logger.String("ticker", ticker),
		logger.Int("bars", len(bars)),
		logger.Int("events", len(events)),
		logger.Int("regime_days", len(states)),
		logger.Int("sequences", len(seqs)))
	return nil
}

// refreshBars pulls the provider window, upserts it, and reads back the
// canonical store view so detection always runs on persisted data.
func (a *StructureAnalyzer) refreshBars(ctx context.Context, ticker string) ([]models.PriceBar, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -a.historyDays)

	fetched, err := a.bars.DailyBars(ctx, ticker, from, to)
	if err != nil {
		a.metrics.RecordError("bars_fetch")
		return nil, fmt.Errorf("fetch bars %s: %w", ticker, err)
	}
	if err := a.barStore.UpsertBars(ctx, fetched); err != nil {
		a.metrics.RecordError("bars_upsert")
		return nil, fmt.Errorf("upsert bars %s: %w", ticker, err)
	}

	bars, err := a.barStore.GetBars(ctx, ticker, from, to)
	if err != nil {
		a.metrics.RecordError("bars_read")
		return nil, fmt.Errorf("read bars %s: %w", ticker, err)
	}
	return bars, nil
}
