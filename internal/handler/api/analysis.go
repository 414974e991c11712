package api

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"GammaPull/pkg/cache"
	xhttp "GammaPull/pkg/http"
	"GammaPull/pkg/logger"
	"GammaPull/pkg/util"

	chrepo "GammaPull/internal/repository/clickhouse"

	"GammaPull/internal/domain/models"
	"GammaPull/internal/domain/repository"
)

// CacheTTL holds per-endpoint cache lifetimes.
type CacheTTL struct {
	Dealer    time.Duration
	Regime    time.Duration
	Events    time.Duration
	Sequences time.Duration
}

// AnalysisHandler serves the read API over the persisted analysis state.
// Responses are cached; the stores remain the source of truth.
type AnalysisHandler struct {
	dealer    repository.DealerStore
	structure repository.StructureStore
	bars      repository.BarStore
	cache     cache.Service
	ttl       CacheTTL
	log       *logger.Logger
}

func NewAnalysisHandler(
	dealer repository.DealerStore,
	structure repository.StructureStore,
	bars repository.BarStore,
	c cache.Service,
	ttl CacheTTL,
	log *logger.Logger,
) *AnalysisHandler {
	return &AnalysisHandler{
		dealer:    dealer,
		structure: structure,
		bars:      bars,
		cache:     c,
		ttl:       ttl,
		log:       log,
	}
}

// RegisterRoutes implements http.Handler.
func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/dealer/:ticker", h.DealerMetrics)
	g.GET("/regime/:ticker", h.Regime)
	g.GET("/events/:ticker", h.Events)
	g.GET("/sequences/:ticker", h.Sequences)
}

func (h *AnalysisHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()
	if err := h.bars.Health(ctx); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("storage unavailable: %v", err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *AnalysisHandler) DealerMetrics(c echo.Context) error {
	req := new(models.DealerMetricsRequest)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	key := cache.GenerateKeyWithParams("dealer", req.Ticker, req.At)
	var cached models.DealerMetricsRecord
	if err := h.cache.Get(c.Request().Context(), key, &cached); err == nil {
		return xhttp.SuccessResponse(c, &cached)
	}

	var (
		rec *models.DealerMetricsRecord
		err error
	)
	if at, ok := util.ParseTime(req.At); ok {
		rec, err = h.dealer.GetAt(c.Request().Context(), req.Ticker, at)
	} else {
		rec, err = h.dealer.GetLatest(c.Request().Context(), req.Ticker)
	}
	if errors.Is(err, chrepo.ErrNotFound) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no dealer metrics for %s", req.Ticker))
	}
	if err != nil {
		h.log.Error("dealer metrics read failed", logger.String("ticker", req.Ticker), logger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	_ = h.cache.Set(c.Request().Context(), key, rec, h.ttl.Dealer)
	return xhttp.SuccessResponse(c, rec)
}

func (h *AnalysisHandler) Regime(c echo.Context) error {
	req := new(models.RegimeRequest)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	key := cache.GenerateKeyWithParams("regime", req.Ticker, req.Day)
	var cached models.RegimeState
	if err := h.cache.Get(c.Request().Context(), key, &cached); err == nil {
		return xhttp.SuccessResponse(c, &cached)
	}

	var (
		st  *models.RegimeState
		err error
	)
	if day, ok := util.ParseTime(req.Day); ok {
		st, err = h.structure.GetRegime(c.Request().Context(), req.Ticker, day)
	} else {
		st, err = h.structure.GetLatestRegime(c.Request().Context(), req.Ticker)
	}
	if errors.Is(err, chrepo.ErrNotFound) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no regime state for %s", req.Ticker))
	}
	if err != nil {
		h.log.Error("regime read failed", logger.String("ticker", req.Ticker), logger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	_ = h.cache.Set(c.Request().Context(), key, st, h.ttl.Regime)
	return xhttp.SuccessResponse(c, st)
}

func (h *AnalysisHandler) Events(c echo.Context) error {
	req := new(models.EventsRequest)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}
	from, to := rangeOrDefault(req.From, req.To)

	key := cache.GenerateKeyWithParams("events", req.Ticker, util.DayString(from), util.DayString(to), req.Limit)
	var cached []models.WyckoffEvent
	if err := h.cache.Get(c.Request().Context(), key, &cached); err == nil {
		return xhttp.ListResponse(c, cached, int64(len(cached)))
	}

	events, err := h.structure.GetEvents(c.Request().Context(), req.Ticker, from, to, req.Limit)
	if err != nil {
		h.log.Error("events read failed", logger.String("ticker", req.Ticker), logger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	_ = h.cache.Set(c.Request().Context(), key, events, h.ttl.Events)
	return xhttp.ListResponse(c, events, int64(len(events)))
}

func (h *AnalysisHandler) Sequences(c echo.Context) error {
	req := new(models.SequencesRequest)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}
	from, to := rangeOrDefault(req.From, req.To)

	key := cache.GenerateKeyWithParams("sequences", req.Ticker, util.DayString(from), util.DayString(to), req.Limit)
	var cached []models.Sequence
	if err := h.cache.Get(c.Request().Context(), key, &cached); err == nil {
		return xhttp.ListResponse(c, cached, int64(len(cached)))
	}

	seqs, err := h.structure.GetSequences(c.Request().Context(), req.Ticker, from, to, req.Limit)
	if err != nil {
		h.log.Error("sequences read failed", logger.String("ticker", req.Ticker), logger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	_ = h.cache.Set(c.Request().Context(), key, seqs, h.ttl.Sequences)
	return xhttp.ListResponse(c, seqs, int64(len(seqs)))
}

// rangeOrDefault parses the from/to query values, defaulting to the
// trailing year ending today.
func rangeOrDefault(fromStr, toStr string) (time.Time, time.Time) {
	now := time.Now().UTC()
	to := util.ParseTimeDefault(toStr, now)
	from := util.ParseTimeDefault(fromStr, to.AddDate(-1, 0, 0))
	return from, to
}
