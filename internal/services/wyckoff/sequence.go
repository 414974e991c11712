package wyckoff

import (
	"fmt"
	"sort"

	"GammaPull/internal/domain/models"
)

// SequenceConfig bounds the bar windows between chained events and
// toggles the opposing-climax invalidator.
type SequenceConfig struct {
	SpringToTestMaxBars        int  `yaml:"spring_to_test_max_bars" json:"spring_to_test_max_bars"`
	TestToSOSMaxBars           int  `yaml:"test_to_sos_max_bars" json:"test_to_sos_max_bars"`
	SpringToSOSMaxBars         int  `yaml:"spring_to_sos_max_bars" json:"spring_to_sos_max_bars"`
	InvalidateOnOpposingClimax bool `yaml:"invalidate_on_opposing_climax" json:"invalidate_on_opposing_climax"`
}

func DefaultSequenceConfig() SequenceConfig {
	return SequenceConfig{
		SpringToTestMaxBars:        10,
		TestToSOSMaxBars:           15,
		SpringToSOSMaxBars:         20,
		InvalidateOnOpposingClimax: true,
	}
}

func (c SequenceConfig) Validate() error {
	if c.SpringToTestMaxBars <= 0 || c.TestToSOSMaxBars <= 0 || c.SpringToSOSMaxBars <= 0 {
		return fmt.Errorf("sequence: bar windows must be positive")
	}
	if c.SpringToSOSMaxBars < c.SpringToTestMaxBars {
		return fmt.Errorf("sequence: spring_to_sos_max_bars %d below spring_to_test_max_bars %d",
			c.SpringToSOSMaxBars, c.SpringToTestMaxBars)
	}
	return nil
}

// BuildSequences assembles validated event chains from a ticker's
// detected events:
//
//	accumulation:  SPRING -> TEST -> SOS, rejected when a BC lands in
//	               [spring, sos];
//	distribution:  UPTHRUST -> TEST -> SOW, rejected when an SC lands in
//	               [upthrust, sow].
//
// Matching is nearest-prior over each type's sorted per-ticker list, not
// an all-pairs search. An event's bar index is unique per type, so the
// nearest-prior candidate at a given gap is unique; the documented
// tie-break (smallest gap, then earliest date) is realized by taking the
// greatest qualifying prior index. Sequences are keyed by (ticker,
// terminal event, terminal date) and emitted once.
func BuildSequences(ticker string, events []models.WyckoffEvent, cfg SequenceConfig) []models.Sequence {
	springs := filterByType(events, models.EventSpring)
	upthrusts := filterByType(events, models.EventUpthrust)
	downTests := filterTests(events, models.DirectionDown)
	upTests := filterTests(events, models.DirectionUp)
	sosList := filterByType(events, models.EventSOS)
	sowList := filterByType(events, models.EventSOW)
	bcs := filterByType(events, models.EventBuyingClimax)
	scs := filterByType(events, models.EventSellingClimax)

	seen := make(map[string]bool)
	var out []models.Sequence

	emit := func(kind string, anchor, test, terminal models.WyckoffEvent) {
		id := models.SequenceID(ticker, terminal.Type, terminal.Date)
		if seen[id] {
			return
		}
		seen[id] = true
		out = append(out, models.Sequence{
			Ticker:         ticker,
			ID:             id,
			Kind:           kind,
			StartDate:      anchor.Date,
			CompletionDate: terminal.Date,
			Legs: []models.SequenceLeg{
				{Type: anchor.Type, Date: anchor.Date, Role: anchor.Role},
				{Type: test.Type, Date: test.Date, Role: test.Role},
				{Type: terminal.Type, Date: terminal.Date, Role: terminal.Role},
			},
			TerminalType: terminal.Type,
			TerminalDate: terminal.Date,
		})
	}

	for _, sos := range sosList {
		test, ok := nearestPrior(downTests, sos.BarIndex, cfg.TestToSOSMaxBars)
		if !ok {
			continue
		}
		spring, ok := nearestPrior(springs, test.BarIndex, cfg.SpringToTestMaxBars)
		if !ok {
			continue
		}
		if sos.BarIndex-spring.BarIndex > cfg.SpringToSOSMaxBars {
			continue
		}
		if cfg.InvalidateOnOpposingClimax && anyWithin(bcs, spring.BarIndex, sos.BarIndex) {
			continue
		}
		emit("accumulation", spring, test, sos)
	}

	for _, sow := range sowList {
		test, ok := nearestPrior(upTests, sow.BarIndex, cfg.TestToSOSMaxBars)
		if !ok {
			continue
		}
		ut, ok := nearestPrior(upthrusts, test.BarIndex, cfg.SpringToTestMaxBars)
		if !ok {
			continue
		}
		if sow.BarIndex-ut.BarIndex > cfg.SpringToSOSMaxBars {
			continue
		}
		if cfg.InvalidateOnOpposingClimax && anyWithin(scs, ut.BarIndex, sow.BarIndex) {
			continue
		}
		emit("distribution", ut, test, sow)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CompletionDate.Equal(out[j].CompletionDate) {
			return out[i].CompletionDate.Before(out[j].CompletionDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func filterByType(events []models.WyckoffEvent, t models.EventType) []models.WyckoffEvent {
	var out []models.WyckoffEvent
	for _, ev := range events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BarIndex < out[j].BarIndex })
	return out
}

// filterTests splits TEST events by direction: DOWN tests belong to
// springs, UP tests to upthrusts.
func filterTests(events []models.WyckoffEvent, dir models.Direction) []models.WyckoffEvent {
	var out []models.WyckoffEvent
	for _, ev := range events {
		if ev.Type == models.EventTest && ev.Direction == dir {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BarIndex < out[j].BarIndex })
	return out
}

// nearestPrior returns the event with the greatest bar index strictly
// before `before` and within maxGap bars. The slice must be sorted by bar
// index ascending.
func nearestPrior(sorted []models.WyckoffEvent, before, maxGap int) (models.WyckoffEvent, bool) {
	// first index with BarIndex >= before
	n := sort.Search(len(sorted), func(i int) bool { return sorted[i].BarIndex >= before })
	if n == 0 {
		return models.WyckoffEvent{}, false
	}
	cand := sorted[n-1]
	if before-cand.BarIndex > maxGap {
		return models.WyckoffEvent{}, false
	}
	return cand, true
}

// anyWithin reports whether any event's bar index falls in [lo, hi].
func anyWithin(sorted []models.WyckoffEvent, lo, hi int) bool {
	n := sort.Search(len(sorted), func(i int) bool { return sorted[i].BarIndex >= lo })
	return n < len(sorted) && sorted[n].BarIndex <= hi
}
