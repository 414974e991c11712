package gex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GammaPull/internal/domain/models"
)

func TestProximityWeightSteps(t *testing.T) {
	tests := []struct {
		m    float64
		want float64
	}{
		{0.0, 1.0},
		{0.05, 1.0},
		{0.051, 0.7},
		{0.10, 0.7},
		{0.12, 0.4},
		{0.15, 0.4},
		{0.18, 0.2},
		{0.20, 0.2},
		{0.21, 0.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ProximityWeight(tt.m), "moneyness %v", tt.m)
	}
}

// Worked scenario: spot=100, calls at 101 (gex 500) and 108 (gex 9000).
// Moneyness 0.01 and 0.08 map to weights 1.0 and 0.7, giving weighted 500
// vs 6300: the primary call wall is 108 because ranking follows weighted,
// not raw, exposure.
func TestRankWallsWeightedScenario(t *testing.T) {
	aggs := []StrikeAggregate{
		{Strike: 101, Side: models.SideCall, RawGex: 500, OpenInterest: 10, ContractCount: 1},
		{Strike: 108, Side: models.SideCall, RawGex: 9000, OpenInterest: 90, ContractCount: 2},
	}

	calls, puts := RankWalls(aggs, 100, 5)
	require.Len(t, calls, 2)
	assert.Empty(t, puts)

	assert.Equal(t, 108.0, calls[0].Strike)
	assert.InDelta(t, 6300.0, calls[0].WeightedGex, 1e-9)
	assert.Equal(t, 101.0, calls[1].Strike)
	assert.InDelta(t, 500.0, calls[1].WeightedGex, 1e-9)

	primary := Primary(calls, 100)
	require.NotNil(t, primary)
	assert.Equal(t, 108.0, primary.Strike)
	assert.Equal(t, 9000.0, primary.RawGex)
	assert.Equal(t, 8.0, primary.DistanceToSpot)
}

// Equal raw exposure: a strike within 5% of spot must outrank one beyond 15%.
func TestProximityDominance(t *testing.T) {
	aggs := []StrikeAggregate{
		{Strike: 118, Side: models.SideCall, RawGex: 4000},
		{Strike: 103, Side: models.SideCall, RawGex: 4000},
	}
	calls, _ := RankWalls(aggs, 100, 5)
	require.Len(t, calls, 2)
	assert.Equal(t, 103.0, calls[0].Strike)
}

func TestRankWallsTieBreakStrikeAscending(t *testing.T) {
	aggs := []StrikeAggregate{
		{Strike: 104, Side: models.SideCall, RawGex: 1000},
		{Strike: 102, Side: models.SideCall, RawGex: 1000},
	}
	calls, _ := RankWalls(aggs, 100, 5)
	require.Len(t, calls, 2)
	assert.Equal(t, 102.0, calls[0].Strike)
}

func TestRankWallsTopN(t *testing.T) {
	aggs := []StrikeAggregate{
		{Strike: 101, Side: models.SideCall, RawGex: 100},
		{Strike: 102, Side: models.SideCall, RawGex: 200},
		{Strike: 103, Side: models.SideCall, RawGex: 300},
		{Strike: 99, Side: models.SidePut, RawGex: -400},
	}
	calls, puts := RankWalls(aggs, 100, 2)
	assert.Len(t, calls, 2)
	assert.Equal(t, 103.0, calls[0].Strike)
	require.Len(t, puts, 1)
	// Weighted exposure uses the magnitude of the signed sum.
	assert.InDelta(t, 400.0, puts[0].WeightedGex, 1e-9)
}

func TestPrimaryEmptySide(t *testing.T) {
	assert.Nil(t, Primary(nil, 100))
}

func TestTotalsAndPosition(t *testing.T) {
	aggs := []StrikeAggregate{
		{Strike: 105, Side: models.SideCall, RawGex: 3000},
		{Strike: 95, Side: models.SidePut, RawGex: -5000},
	}
	total, net := Totals(aggs)
	assert.Equal(t, 8000.0, total)
	assert.Equal(t, -2000.0, net)
	assert.Equal(t, models.PositionShortGamma, Position(net))
	assert.Equal(t, models.PositionLongGamma, Position(2000))
	assert.Equal(t, models.PositionUnknown, Position(0))
}

func TestGammaFlipInterpolation(t *testing.T) {
	// Cumulative: -4000 at 95, +4000-4000=0 crossing between 95 and 105.
	aggs := []StrikeAggregate{
		{Strike: 95, Side: models.SidePut, RawGex: -4000},
		{Strike: 105, Side: models.SideCall, RawGex: 8000},
	}
	flip := GammaFlip(aggs)
	require.NotNil(t, flip)
	assert.InDelta(t, 100.0, *flip, 1e-9)
}

func TestGammaFlipNoCrossing(t *testing.T) {
	aggs := []StrikeAggregate{
		{Strike: 101, Side: models.SideCall, RawGex: 100},
		{Strike: 105, Side: models.SideCall, RawGex: 300},
	}
	assert.Nil(t, GammaFlip(aggs))
	assert.Nil(t, GammaFlip(nil))
}
