package wyckoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GammaPull/internal/domain/models"
)

func ev(t models.EventType, day time.Time, conf float64) models.WyckoffEvent {
	return models.WyckoffEvent{Ticker: "TEST", Date: day, Type: t, Confidence: conf}
}

func TestAdvanceCarriesStateForward(t *testing.T) {
	prev := models.RegimeState{
		Ticker:     "TEST",
		Day:        day0,
		Regime:     models.RegimeMarkup,
		Confidence: 0.8,
		SetByEvent: models.EventSOS,
		SetOn:      day0,
	}

	next := Advance(prev, "TEST", day0.AddDate(0, 0, 1), nil)
	assert.Equal(t, models.RegimeMarkup, next.Regime)
	assert.Equal(t, 0.8, next.Confidence)
	assert.Equal(t, models.EventSOS, next.SetByEvent)
	assert.True(t, next.SetOn.Equal(day0))
	assert.True(t, next.Day.Equal(day0.AddDate(0, 0, 1)))
}

func TestAdvanceTerminalConfirmations(t *testing.T) {
	day := day0.AddDate(0, 0, 3)
	prev := models.RegimeState{Ticker: "TEST", Regime: models.RegimeAccumulation, Confidence: 0.4}

	next := Advance(prev, "TEST", day, []models.WyckoffEvent{ev(models.EventSOS, day, 0.9)})
	assert.Equal(t, models.RegimeMarkup, next.Regime)
	assert.Equal(t, 0.9, next.Confidence)
	assert.Equal(t, models.EventSOS, next.SetByEvent)
	assert.True(t, next.SetOn.Equal(day))

	next = Advance(prev, "TEST", day, []models.WyckoffEvent{ev(models.EventSOW, day, 0.7)})
	assert.Equal(t, models.RegimeMarkdown, next.Regime)
	assert.Equal(t, 0.7, next.Confidence)
}

func TestAdvanceClimaxOpensCandidacy(t *testing.T) {
	day := day0.AddDate(0, 0, 3)
	prev := models.RegimeState{Ticker: "TEST", Regime: models.RegimeUnknown}

	next := Advance(prev, "TEST", day, []models.WyckoffEvent{ev(models.EventSellingClimax, day, 1.0)})
	assert.Equal(t, models.RegimeAccumulation, next.Regime)
	assert.InDelta(t, candidacyDiscount, next.Confidence, 1e-9)

	next = Advance(prev, "TEST", day, []models.WyckoffEvent{ev(models.EventBuyingClimax, day, 0.5)})
	assert.Equal(t, models.RegimeDistribution, next.Regime)
	assert.InDelta(t, 0.5*candidacyDiscount, next.Confidence, 1e-9)
}

func TestAdvanceSpringConfirmsOnlyInPhase(t *testing.T) {
	day := day0.AddDate(0, 0, 3)

	// In accumulation a spring bumps confidence without changing phase.
	prev := models.RegimeState{Ticker: "TEST", Regime: models.RegimeAccumulation, Confidence: 0.6}
	next := Advance(prev, "TEST", day, []models.WyckoffEvent{ev(models.EventSpring, day, 0.7)})
	assert.Equal(t, models.RegimeAccumulation, next.Regime)
	assert.InDelta(t, 0.6+confirmBump, next.Confidence, 1e-9)
	assert.Equal(t, models.EventSpring, next.SetByEvent)

	// Out of phase the same spring is ignored.
	prev = models.RegimeState{Ticker: "TEST", Regime: models.RegimeMarkdown, Confidence: 0.6}
	next = Advance(prev, "TEST", day, []models.WyckoffEvent{ev(models.EventSpring, day, 0.7)})
	assert.Equal(t, models.RegimeMarkdown, next.Regime)
	assert.Equal(t, 0.6, next.Confidence)

	// Confidence saturates at 1.
	prev = models.RegimeState{Ticker: "TEST", Regime: models.RegimeAccumulation, Confidence: 0.95}
	next = Advance(prev, "TEST", day, []models.WyckoffEvent{ev(models.EventSpring, day, 0.7)})
	assert.Equal(t, 1.0, next.Confidence)
}

func TestAdvanceSameDayPriority(t *testing.T) {
	day := day0.AddDate(0, 0, 3)
	prev := models.RegimeState{Ticker: "TEST", Regime: models.RegimeUnknown}

	// A terminal confirmation wins over a same-day climax regardless of
	// slice order.
	events := []models.WyckoffEvent{
		ev(models.EventSellingClimax, day, 1.0),
		ev(models.EventSOS, day, 0.8),
	}
	next := Advance(prev, "TEST", day, events)
	assert.Equal(t, models.RegimeMarkup, next.Regime)

	events[0], events[1] = events[1], events[0]
	next = Advance(prev, "TEST", day, events)
	assert.Equal(t, models.RegimeMarkup, next.Regime)

	// Non-regime events never move the state.
	next = Advance(prev, "TEST", day, []models.WyckoffEvent{ev(models.EventSecondaryTest, day, 0.9)})
	assert.Equal(t, models.RegimeUnknown, next.Regime)
}

func TestFoldRegimesStickiness(t *testing.T) {
	bars := baseBars(10)
	scDay := bars[3].Day
	events := []models.WyckoffEvent{ev(models.EventSellingClimax, scDay, 1.0)}

	states := FoldRegimes("TEST", bars, events, nil)
	require.Len(t, states, 10)

	for i, st := range states {
		assert.Equal(t, "TEST", st.Ticker)
		assert.True(t, st.Day.Equal(bars[i].Day))
		if i < 3 {
			assert.Equal(t, models.RegimeUnknown, st.Regime)
		} else {
			// Sticky: the candidacy survives every quiet day after it.
			assert.Equal(t, models.RegimeAccumulation, st.Regime)
			assert.True(t, st.SetOn.Equal(scDay))
		}
	}
}

func TestFoldRegimesSeedSkipsPersistedDays(t *testing.T) {
	bars := baseBars(10)
	seed := &models.RegimeState{
		Ticker:     "TEST",
		Day:        bars[4].Day,
		Regime:     models.RegimeMarkup,
		Confidence: 0.9,
		SetByEvent: models.EventSOS,
		SetOn:      bars[2].Day,
	}

	states := FoldRegimes("TEST", bars, nil, seed)
	require.Len(t, states, 5)
	assert.True(t, states[0].Day.Equal(bars[5].Day))
	for _, st := range states {
		assert.Equal(t, models.RegimeMarkup, st.Regime)
		assert.Equal(t, 0.9, st.Confidence)
	}
}

// Replaying the same inputs yields the same states, so upserts keyed by
// (ticker, day) are safe to repeat.
func TestFoldRegimesDeterministic(t *testing.T) {
	bars := baseBars(15)
	events := []models.WyckoffEvent{
		ev(models.EventSellingClimax, bars[3].Day, 1.0),
		ev(models.EventSpring, bars[6].Day, 0.7),
		ev(models.EventSOS, bars[9].Day, 0.85),
	}

	first := FoldRegimes("TEST", bars, events, nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, FoldRegimes("TEST", bars, events, nil))
	}

	// Spot-check the arc: candidacy, confirmation bump, then markup.
	assert.Equal(t, models.RegimeAccumulation, first[3].Regime)
	assert.InDelta(t, candidacyDiscount, first[3].Confidence, 1e-9)
	assert.InDelta(t, candidacyDiscount+confirmBump, first[6].Confidence, 1e-9)
	assert.Equal(t, models.RegimeMarkup, first[9].Regime)
	assert.Equal(t, models.RegimeMarkup, first[14].Regime)
}

func TestFoldRegimesEmptyBars(t *testing.T) {
	assert.Nil(t, FoldRegimes("TEST", nil, nil, nil))
}
