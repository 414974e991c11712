package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"GammaPull/pkg/logger"
	"GammaPull/pkg/workerpool"

	"GammaPull/internal/domain/repository"
)

// ScanRunner drives batch analysis across the configured ticker set on a
// bounded worker pool. A failing ticker degrades (logged and counted) and
// the run continues; only systemic setup errors abort.
type ScanRunner struct {
	snapshots *SnapshotAnalyzer
	structure *StructureAnalyzer
	metrics   repository.Metrics
	log       *logger.Logger

	tickers  []string
	workers  int
	interval time.Duration
}

func NewScanRunner(
	snapshots *SnapshotAnalyzer,
	structure *StructureAnalyzer,
	metrics repository.Metrics,
	log *logger.Logger,
	tickers []string,
	workers int,
	interval time.Duration,
) (*ScanRunner, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("scan runner: ticker set is empty")
	}
	if workers < 1 {
		workers = 4
	}
	return &ScanRunner{
		snapshots: snapshots,
		structure: structure,
		metrics:   metrics,
		log:       log,
		tickers:   tickers,
		workers:   workers,
		interval:  interval,
	}, nil
}

// RunOnce fans the ticker set across the pool and waits for completion.
// Returns the number of degraded tickers.
func (r *ScanRunner) RunOnce(ctx context.Context) int {
	start := time.Now()
	pool := workerpool.New(ctx, r.workers, len(r.tickers))

	var degraded int64
	for _, ticker := range r.tickers {
		ticker := ticker
		pool.Submit(func(ctx context.Context) {
			if err := r.structure.Analyze(ctx, ticker); err != nil {
				atomic.AddInt64(&degraded, 1)
				r.metrics.RecordDegraded(ticker, "structure")
				r.log.Warn("structure analysis degraded",
					logger.String("ticker", ticker), logger.Error(err))
			}
			if _, err := r.snapshots.Analyze(ctx, ticker); err != nil {
				atomic.AddInt64(&degraded, 1)
				r.metrics.RecordDegraded(ticker, "dealer")
				r.log.Warn("dealer analysis degraded",
					logger.String("ticker", ticker), logger.Error(err))
			}
		})
	}
	pool.Close()

	n := int(atomic.LoadInt64(&degraded))
	r.metrics.RecordLatency("scan_run", time.Since(start).Seconds())
	r.log.Info("scan complete",
		logger.Int("tickers", len(r.tickers)),
		logger.Int("degraded", n),
		logger.Duration("took", time.Since(start)))
	return n
}

// Run executes scans on the configured interval until the context ends.
// runOnStart fires an immediate scan before the first tick; an interval
// of zero means one-shot.
func (r *ScanRunner) Run(ctx context.Context, runOnStart bool) {
	if runOnStart || r.interval <= 0 {
		r.RunOnce(ctx)
	}
	if r.interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}
