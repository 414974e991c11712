package gex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GammaPull/internal/domain/models"
)

var asof = time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

func fp(v float64) *float64 { return &v }

func contract(side models.OptionSide, strike float64, gamma *float64, oi, vol float64, dte int) models.OptionContract {
	return models.OptionContract{
		Ticker:       "SPY",
		Side:         side,
		Strike:       strike,
		Expiration:   asof.AddDate(0, 0, dte),
		OpenInterest: oi,
		Volume:       vol,
		Gamma:        gamma,
	}
}

func TestEligibleFilters(t *testing.T) {
	cfg := models.DefaultEligibilityConfig()
	spot := 100.0

	ok := contract(models.SideCall, 105, fp(0.02), 100, 50, 10)
	assert.True(t, Eligible(ok, spot, asof, cfg))

	tests := []struct {
		name string
		c    models.OptionContract
	}{
		{"missing gamma", contract(models.SideCall, 105, nil, 100, 50, 10)},
		{"expired", contract(models.SideCall, 105, fp(0.02), 100, 50, -1)},
		{"dte too far", contract(models.SideCall, 105, fp(0.02), 100, 50, cfg.MaxDTE+1)},
		{"low open interest", contract(models.SideCall, 105, fp(0.02), cfg.MinOpenInterest-1, 50, 10)},
		{"no volume", contract(models.SideCall, 105, fp(0.02), 100, 0, 10)},
		{"beyond moneyness", contract(models.SideCall, 125, fp(0.02), 100, 50, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, Eligible(tt.c, spot, asof, cfg))
		})
	}
}

func TestMoneynessCutoffExcludesLargeGamma(t *testing.T) {
	// A contract beyond max_moneyness never contributes, regardless of its
	// raw gamma magnitude.
	cfg := models.DefaultEligibilityConfig()
	spot := 100.0
	far := contract(models.SideCall, 130, fp(50.0), 100000, 100000, 10)

	aggs, eligible := AggregateByStrike([]models.OptionContract{far}, spot, asof, cfg)
	assert.Empty(t, aggs)
	assert.Zero(t, eligible)

	calls, puts := RankWalls(aggs, spot, cfg.WallCount)
	assert.Empty(t, calls)
	assert.Empty(t, puts)
}

func TestAggregateByStrikeSums(t *testing.T) {
	cfg := models.DefaultEligibilityConfig()
	spot := 100.0
	cs := []models.OptionContract{
		contract(models.SideCall, 105, fp(0.01), 100, 10, 7),
		contract(models.SideCall, 105, fp(0.02), 200, 10, 21), // same strike, later expiry
		contract(models.SidePut, 95, fp(0.01), 300, 10, 7),
		contract(models.SideCall, 110, nil, 400, 10, 7), // dropped: no gamma
	}

	aggs, eligible := AggregateByStrike(cs, spot, asof, cfg)
	require.Len(t, aggs, 2)
	assert.Equal(t, 3, eligible)

	// Sorted by strike ascending: put 95 first.
	put := aggs[0]
	assert.Equal(t, models.SidePut, put.Side)
	assert.InDelta(t, -0.01*300*100*spot, put.RawGex, 1e-9)
	assert.Equal(t, 1, put.ContractCount)

	call := aggs[1]
	assert.Equal(t, 105.0, call.Strike)
	assert.InDelta(t, (0.01*100+0.02*200)*100*spot, call.RawGex, 1e-9)
	assert.Equal(t, 300.0, call.OpenInterest)
	assert.Equal(t, 2, call.ContractCount)
}

func TestAggregateEmptyChain(t *testing.T) {
	cfg := models.DefaultEligibilityConfig()
	aggs, eligible := AggregateByStrike(nil, 100, asof, cfg)
	assert.Empty(t, aggs)
	assert.Zero(t, eligible)
}

func TestAggregateDeterministicOrder(t *testing.T) {
	cfg := models.DefaultEligibilityConfig()
	spot := 100.0
	cs := []models.OptionContract{
		contract(models.SideCall, 108, fp(0.01), 100, 10, 7),
		contract(models.SidePut, 92, fp(0.01), 100, 10, 7),
		contract(models.SideCall, 101, fp(0.01), 100, 10, 7),
		contract(models.SidePut, 101, fp(0.01), 100, 10, 7),
	}

	first, _ := AggregateByStrike(cs, spot, asof, cfg)
	for i := 0; i < 20; i++ {
		again, _ := AggregateByStrike(cs, spot, asof, cfg)
		require.Equal(t, first, again)
	}
	// call sorts before put at the same strike
	assert.Equal(t, models.SideCall, first[1].Side)
	assert.Equal(t, models.SidePut, first[2].Side)
}
