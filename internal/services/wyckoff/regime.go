package wyckoff

import (
	"sort"
	"time"

	"GammaPull/internal/domain/models"
)

// Regime transitions triggered by a single event type. SOS/SOW are
// terminal confirmations; climaxes only open a phase candidacy at reduced
// confidence.
const candidacyDiscount = 0.6

// confidence bump when a spring/upthrust confirms the current phase
const confirmBump = 0.15

// Advance folds one trading day into the sticky per-ticker regime state.
// With no regime-setting event the prior state carries forward unchanged
// (only the day advances), which makes the full history a fold over the
// ordered day sequence.
func Advance(prev models.RegimeState, ticker string, day time.Time, events []models.WyckoffEvent) models.RegimeState {
	next := prev
	next.Ticker = ticker
	next.Day = day
	if next.Regime == "" {
		next.Regime = models.RegimeUnknown
	}

	if ev, ok := dominantEvent(events); ok {
		switch ev.Type {
		case models.EventSOS:
			next.Regime = models.RegimeMarkup
			next.Confidence = ev.Confidence
			next.SetByEvent = ev.Type
			next.SetOn = day
		case models.EventSOW:
			next.Regime = models.RegimeMarkdown
			next.Confidence = ev.Confidence
			next.SetByEvent = ev.Type
			next.SetOn = day
		case models.EventSellingClimax:
			next.Regime = models.RegimeAccumulation
			next.Confidence = ev.Confidence * candidacyDiscount
			next.SetByEvent = ev.Type
			next.SetOn = day
		case models.EventBuyingClimax:
			next.Regime = models.RegimeDistribution
			next.Confidence = ev.Confidence * candidacyDiscount
			next.SetByEvent = ev.Type
			next.SetOn = day
		case models.EventSpring:
			if prev.Regime == models.RegimeAccumulation {
				next.Confidence = clamp01(prev.Confidence + confirmBump)
				next.SetByEvent = ev.Type
				next.SetOn = day
			}
		case models.EventUpthrust:
			if prev.Regime == models.RegimeDistribution {
				next.Confidence = clamp01(prev.Confidence + confirmBump)
				next.SetByEvent = ev.Type
				next.SetOn = day
			}
		}
	}

	return next
}

// regimePriority orders same-day events so the fold stays deterministic:
// terminal confirmations beat climaxes beat phase confirmations.
var regimePriority = map[models.EventType]int{
	models.EventSOS:           0,
	models.EventSOW:           1,
	models.EventSellingClimax: 2,
	models.EventBuyingClimax:  3,
	models.EventSpring:        4,
	models.EventUpthrust:      5,
}

func dominantEvent(events []models.WyckoffEvent) (models.WyckoffEvent, bool) {
	best := -1
	for i, ev := range events {
		p, ok := regimePriority[ev.Type]
		if !ok {
			continue
		}
		if best == -1 || p < regimePriority[events[best].Type] {
			best = i
		}
	}
	if best == -1 {
		return models.WyckoffEvent{}, false
	}
	return events[best], true
}

// FoldRegimes replays the day sequence in non-decreasing date order,
// seeding from the last persisted state (nil means UNKNOWN). One state
// per distinct trading day in bars.
func FoldRegimes(ticker string, bars []models.PriceBar, events []models.WyckoffEvent, seed *models.RegimeState) []models.RegimeState {
	if len(bars) == 0 {
		return nil
	}

	byDay := make(map[time.Time][]models.WyckoffEvent)
	for _, ev := range events {
		d := ev.Date.UTC().Truncate(24 * time.Hour)
		byDay[d] = append(byDay[d], ev)
	}

	days := make([]time.Time, 0, len(bars))
	for _, b := range bars {
		days = append(days, b.Day.UTC().Truncate(24*time.Hour))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	prev := models.RegimeState{Ticker: ticker, Regime: models.RegimeUnknown}
	if seed != nil {
		prev = *seed
	}

	out := make([]models.RegimeState, 0, len(days))
	for _, day := range days {
		if seed != nil && !day.After(seed.Day.UTC().Truncate(24*time.Hour)) {
			continue // already persisted
		}
		prev = Advance(prev, ticker, day, byDay[day])
		out = append(out, prev)
	}
	return out
}
