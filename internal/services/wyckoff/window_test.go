package wyckoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GammaPull/internal/domain/models"
)

var day0 = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

// baseBars builds a quiet tape around 100 with slight deterministic
// variation so baselines have non-zero spread.
func baseBars(n int) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	for i := range bars {
		r, v := 0.9, 950.0
		if i%2 == 0 {
			r, v = 1.1, 1050.0
		}
		bars[i] = models.PriceBar{
			Ticker: "TEST",
			Day:    day0.AddDate(0, 0, i),
			Open:   100,
			High:   100 + r,
			Low:    100 - r,
			Close:  100,
			Volume: v,
		}
	}
	return bars
}

func TestZScoreFlatBaseline(t *testing.T) {
	// A flat baseline resolves to z=0, never NaN.
	assert.Equal(t, 0.0, zScore(5, 5, 0))
	assert.Equal(t, 0.0, zScore(100, 5, 0))
}

func TestMeanStd(t *testing.T) {
	mean, std := meanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-9)
	assert.InDelta(t, 2.0, std, 1e-9)

	mean, std = meanStd(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)
}

func TestTrueRangeUsesGaps(t *testing.T) {
	bars := []models.PriceBar{
		{High: 101, Low: 99, Close: 100},
		{High: 96, Low: 95, Close: 95.5}, // gap down: TR measured off prior close
	}
	assert.InDelta(t, 2.0, trueRange(bars, 0), 1e-9)
	assert.InDelta(t, 5.0, trueRange(bars, 1), 1e-9)
}

func TestComputeStatsSpike(t *testing.T) {
	bars := baseBars(30)
	bars[25].High = 106
	bars[25].Low = 94
	bars[25].Volume = 5000

	stats := computeStats(bars, 20)
	assert.Greater(t, stats[25].rangeZ, 2.0)
	assert.Greater(t, stats[25].volumeZ, 2.0)
	// pre-baseline bars stay zeroed
	assert.Zero(t, stats[5].rangeZ)
}

func TestSupportResistanceLevels(t *testing.T) {
	bars := baseBars(30)
	bars[10].Low = 97.5
	bars[12].High = 103.0

	sup, ok := supportLevel(bars, 20, 20)
	require.True(t, ok)
	assert.Equal(t, 97.5, sup)

	res, ok := resistanceLevel(bars, 20, 20)
	require.True(t, ok)
	assert.Equal(t, 103.0, res)

	_, ok = supportLevel(bars, 0, 20)
	assert.False(t, ok)
}

func TestDetectorConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultDetectorConfig().Validate())

	bad := DefaultDetectorConfig()
	bad.BaselineBars = 2
	assert.Error(t, bad.Validate())

	bad = DefaultDetectorConfig()
	bad.ClimaxClosePct = 1.5
	assert.Error(t, bad.Validate())

	bad = DefaultDetectorConfig()
	bad.SpringBreakPct = 0
	assert.Error(t, bad.Validate())
}
