package gex

import (
	"math"
	"sort"
	"time"

	"GammaPull/internal/domain/models"
)

// Standard equity option multiplier.
const contractMultiplier = 100

// StrikeAggregate is the per-(strike, side) sum of surviving contracts.
// RawGex is signed: call gamma adds, put gamma subtracts.
type StrikeAggregate struct {
	Strike        float64
	Side          models.OptionSide
	RawGex        float64
	OpenInterest  float64
	ContractCount int
}

// Moneyness is the normalized distance of a strike from spot.
// Returns +Inf for a non-positive spot so callers fail the cutoff, not NaN.
func Moneyness(strike, spot float64) float64 {
	if spot <= 0 {
		return math.Inf(1)
	}
	return math.Abs(strike-spot) / spot
}

// DaysToExpiration is the whole-day distance between the snapshot day and
// the expiration day. Negative for already-expired contracts.
func DaysToExpiration(expiration, asof time.Time) int {
	e := expiration.UTC().Truncate(24 * time.Hour)
	a := asof.UTC().Truncate(24 * time.Hour)
	return int(e.Sub(a).Hours() / 24)
}

// Eligible applies every contract filter. All are required; bid/ask fields
// are never consulted so provider quote gaps cannot compound.
func Eligible(c models.OptionContract, spot float64, asof time.Time, cfg models.EligibilityConfig) bool {
	if c.Gamma == nil {
		return false
	}
	dte := DaysToExpiration(c.Expiration, asof)
	if dte < 0 || dte > cfg.MaxDTE {
		return false
	}
	if c.OpenInterest < cfg.MinOpenInterest {
		return false
	}
	if c.Volume < cfg.MinVolume {
		return false
	}
	if Moneyness(c.Strike, spot) > cfg.MaxMoneyness {
		return false
	}
	return true
}

// AggregateByStrike filters the snapshot's contracts and sums gamma
// exposure, open interest and contract count per (strike, side). The
// second return is the eligible contract count. Empty output is valid.
//
// Per-contract exposure: gamma x open interest x multiplier x spot,
// signed positive for calls and negative for puts.
func AggregateByStrike(contracts []models.OptionContract, spot float64, asof time.Time, cfg models.EligibilityConfig) ([]StrikeAggregate, int) {
	type key struct {
		strike float64
		side   models.OptionSide
	}

	sums := make(map[key]*StrikeAggregate)
	eligible := 0
	for _, c := range contracts {
		if !Eligible(c, spot, asof, cfg) {
			continue
		}
		eligible++

		gex := *c.Gamma * c.OpenInterest * contractMultiplier * spot
		if c.Side == models.SidePut {
			gex = -gex
		}

		k := key{strike: c.Strike, side: c.Side}
		agg, ok := sums[k]
		if !ok {
			agg = &StrikeAggregate{Strike: c.Strike, Side: c.Side}
			sums[k] = agg
		}
		agg.RawGex += gex
		agg.OpenInterest += c.OpenInterest
		agg.ContractCount++
	}

	out := make([]StrikeAggregate, 0, len(sums))
	for _, agg := range sums {
		out = append(out, *agg)
	}
	// Deterministic order regardless of map iteration.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Strike != out[j].Strike {
			return out[i].Strike < out[j].Strike
		}
		return out[i].Side < out[j].Side
	})
	return out, eligible
}
