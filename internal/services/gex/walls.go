package gex

import (
	"math"
	"sort"

	"GammaPull/internal/domain/models"
)

// ProximityWeight maps moneyness to a step-decayed weight. No
// interpolation between steps; anything past the last step gets zero.
func ProximityWeight(moneyness float64) float64 {
	switch {
	case moneyness <= 0.05:
		return 1.0
	case moneyness <= 0.10:
		return 0.7
	case moneyness <= 0.15:
		return 0.4
	case moneyness <= 0.20:
		return 0.2
	default:
		return 0.0
	}
}

// RankWalls proximity-weights the aggregates and returns the top-n walls
// per side, ranked by weighted exposure descending with strike-ascending
// tie-break. Pure function: no randomness, no clock.
func RankWalls(aggs []StrikeAggregate, spot float64, n int) (calls, puts []models.Wall) {
	all := make([]models.Wall, 0, len(aggs))
	for _, a := range aggs {
		m := Moneyness(a.Strike, spot)
		all = append(all, models.Wall{
			Strike:        a.Strike,
			Side:          a.Side,
			RawGex:        a.RawGex,
			WeightedGex:   math.Abs(a.RawGex) * ProximityWeight(m),
			Moneyness:     m,
			OpenInterest:  a.OpenInterest,
			ContractCount: a.ContractCount,
		})
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].WeightedGex != all[j].WeightedGex {
			return all[i].WeightedGex > all[j].WeightedGex
		}
		return all[i].Strike < all[j].Strike
	})

	calls = make([]models.Wall, 0, n)
	puts = make([]models.Wall, 0, n)
	for _, w := range all {
		switch w.Side {
		case models.SideCall:
			if len(calls) < n {
				calls = append(calls, w)
			}
		case models.SidePut:
			if len(puts) < n {
				puts = append(puts, w)
			}
		}
	}
	return calls, puts
}

// Primary picks the first-ranked wall, nil when the side is empty.
func Primary(walls []models.Wall, spot float64) *models.PrimaryWall {
	if len(walls) == 0 {
		return nil
	}
	w := walls[0]
	return &models.PrimaryWall{
		Strike:         w.Strike,
		RawGex:         w.RawGex,
		DistanceToSpot: w.Strike - spot,
	}
}

// Totals sums absolute and net exposure over all aggregates.
func Totals(aggs []StrikeAggregate) (gexTotal, gexNet float64) {
	for _, a := range aggs {
		gexTotal += math.Abs(a.RawGex)
		gexNet += a.RawGex
	}
	return gexTotal, gexNet
}

// Position infers dealer posture from the net exposure sign.
func Position(gexNet float64) models.DealerPosition {
	switch {
	case gexNet > 0:
		return models.PositionLongGamma
	case gexNet < 0:
		return models.PositionShortGamma
	default:
		return models.PositionUnknown
	}
}

// GammaFlip estimates the strike where cumulative net exposure crosses
// zero, interpolating linearly between the bracketing strikes. Nil when
// the profile never crosses.
func GammaFlip(aggs []StrikeAggregate) *float64 {
	if len(aggs) == 0 {
		return nil
	}

	// Net exposure per strike, both sides combined.
	net := make(map[float64]float64)
	for _, a := range aggs {
		net[a.Strike] += a.RawGex
	}
	strikes := make([]float64, 0, len(net))
	for s := range net {
		strikes = append(strikes, s)
	}
	sort.Float64s(strikes)

	cum := 0.0
	for i, s := range strikes {
		prev := cum
		cum += net[s]
		if i == 0 {
			continue
		}
		if cum == 0 {
			flip := s
			return &flip
		}
		if (prev < 0) != (cum < 0) {
			s0 := strikes[i-1]
			// Linear zero crossing between s0 and s.
			flip := s0 + (s-s0)*(0-prev)/(cum-prev)
			return &flip
		}
	}
	return nil
}

// PinRisk is a debug-only heuristic: spot sitting within 1% of a primary
// wall suggests pinning. Independent of, and never overriding, Status.
func PinRisk(spot float64, call, put *models.PrimaryWall) string {
	if spot <= 0 {
		return ""
	}
	const pinBand = 0.01
	if call != nil && math.Abs(call.Strike-spot)/spot <= pinBand {
		return "pinned_call"
	}
	if put != nil && math.Abs(put.Strike-spot)/spot <= pinBand {
		return "pinned_put"
	}
	return ""
}
