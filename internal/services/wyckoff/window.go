package wyckoff

import (
	"fmt"
	"math"

	"GammaPull/internal/domain/models"
)

// DetectorConfig holds the normalized thresholds for structural event
// detection. All detectors are pure functions of the bar window and this
// configuration.
type DetectorConfig struct {
	BaselineBars     int     `yaml:"baseline_bars" json:"baseline_bars"`       // trailing baseline for z-scores
	RangeLookback    int     `yaml:"range_lookback" json:"range_lookback"`     // bars defining support/resistance
	ClimaxZ          float64 `yaml:"climax_z" json:"climax_z"`                 // range and volume z for SC/BC
	ClimaxClosePct   float64 `yaml:"climax_close_pct" json:"climax_close_pct"` // close within this fraction of the bar extreme
	ARMaxBars        int     `yaml:"ar_max_bars" json:"ar_max_bars"`
	ARMinMovePct     float64 `yaml:"ar_min_move_pct" json:"ar_min_move_pct"`
	STMaxBars        int     `yaml:"st_max_bars" json:"st_max_bars"`
	STProximityPct   float64 `yaml:"st_proximity_pct" json:"st_proximity_pct"`
	STVolumeRatio    float64 `yaml:"st_volume_ratio" json:"st_volume_ratio"` // vs the climax bar's volume
	SpringBreakPct   float64 `yaml:"spring_break_pct" json:"spring_break_pct"`
	SpringMaxBars    int     `yaml:"spring_max_bars" json:"spring_max_bars"` // re-entry window after the break
	SpringVolumeZ    float64 `yaml:"spring_volume_z" json:"spring_volume_z"` // volume z must stay at or below
	TestMaxBars      int     `yaml:"test_max_bars" json:"test_max_bars"`
	TestProximityPct float64 `yaml:"test_proximity_pct" json:"test_proximity_pct"`
	TestVolumeZ      float64 `yaml:"test_volume_z" json:"test_volume_z"`
	SOSBreakPct      float64 `yaml:"sos_break_pct" json:"sos_break_pct"`
	SOSVolumeZ       float64 `yaml:"sos_volume_z" json:"sos_volume_z"`
	SOSRangeZ        float64 `yaml:"sos_range_z" json:"sos_range_z"`
}

// DefaultDetectorConfig returns the stock thresholds tuned for a 40-60
// bar daily window.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		BaselineBars:     20,
		RangeLookback:    20,
		ClimaxZ:          2.0,
		ClimaxClosePct:   0.33,
		ARMaxBars:        5,
		ARMinMovePct:     0.02,
		STMaxBars:        15,
		STProximityPct:   0.01,
		STVolumeRatio:    0.6,
		SpringBreakPct:   0.003,
		SpringMaxBars:    3,
		SpringVolumeZ:    0.5,
		TestMaxBars:      10,
		TestProximityPct: 0.01,
		TestVolumeZ:      0.0,
		SOSBreakPct:      0.005,
		SOSVolumeZ:       1.0,
		SOSRangeZ:        1.0,
	}
}

// Validate rejects configurations the detectors cannot run under.
func (c DetectorConfig) Validate() error {
	if c.BaselineBars < 5 {
		return fmt.Errorf("wyckoff: baseline_bars must be >= 5, got %d", c.BaselineBars)
	}
	if c.RangeLookback < 5 {
		return fmt.Errorf("wyckoff: range_lookback must be >= 5, got %d", c.RangeLookback)
	}
	if c.ClimaxZ <= 0 || c.SOSVolumeZ < 0 || c.SOSRangeZ < 0 {
		return fmt.Errorf("wyckoff: z thresholds must be positive")
	}
	if c.ClimaxClosePct <= 0 || c.ClimaxClosePct >= 1 {
		return fmt.Errorf("wyckoff: climax_close_pct must be in (0,1), got %v", c.ClimaxClosePct)
	}
	if c.SpringBreakPct <= 0 || c.SOSBreakPct <= 0 {
		return fmt.Errorf("wyckoff: break percentages must be positive")
	}
	if c.SpringMaxBars <= 0 || c.TestMaxBars <= 0 || c.ARMaxBars <= 0 || c.STMaxBars <= 0 {
		return fmt.Errorf("wyckoff: bar windows must be positive")
	}
	return nil
}

// MinHistory is the shortest bar slice detection can run on.
func (c DetectorConfig) MinHistory() int {
	n := c.BaselineBars
	if c.RangeLookback > n {
		n = c.RangeLookback
	}
	return n + 2
}

// barStats is the per-bar normalization of true range and volume against
// the trailing baseline (baseline excludes the bar itself).
type barStats struct {
	trueRange float64
	rangeZ    float64
	volumeZ   float64
}

func trueRange(bars []models.PriceBar, i int) float64 {
	hl := bars[i].High - bars[i].Low
	if i == 0 {
		return hl
	}
	pc := bars[i-1].Close
	return math.Max(hl, math.Max(math.Abs(bars[i].High-pc), math.Abs(bars[i].Low-pc)))
}

func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		d := x - mean
		std += d * d
	}
	std = math.Sqrt(std / float64(len(xs)))
	return mean, std
}

// zScore resolves a flat baseline to 0, never NaN.
func zScore(x, mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return (x - mean) / std
}

// computeStats normalizes every bar; bars before a full baseline get zero
// z-scores and are skipped by the detectors.
func computeStats(bars []models.PriceBar, baseline int) []barStats {
	stats := make([]barStats, len(bars))
	trs := make([]float64, len(bars))
	for i := range bars {
		trs[i] = trueRange(bars, i)
		stats[i].trueRange = trs[i]
	}
	for i := baseline; i < len(bars); i++ {
		trMean, trStd := meanStd(trs[i-baseline : i])
		var vols []float64
		for _, b := range bars[i-baseline : i] {
			vols = append(vols, b.Volume)
		}
		vMean, vStd := meanStd(vols)
		stats[i].rangeZ = zScore(trs[i], trMean, trStd)
		stats[i].volumeZ = zScore(bars[i].Volume, vMean, vStd)
	}
	return stats
}

// supportLevel is the lowest low over [i-lookback, i), clipped at the
// slice start. Returns (level, ok).
func supportLevel(bars []models.PriceBar, i, lookback int) (float64, bool) {
	lo := i - lookback
	if lo < 0 {
		lo = 0
	}
	if lo >= i {
		return 0, false
	}
	level := bars[lo].Low
	for _, b := range bars[lo+1 : i] {
		if b.Low < level {
			level = b.Low
		}
	}
	return level, true
}

// resistanceLevel is the highest high over [i-lookback, i).
func resistanceLevel(bars []models.PriceBar, i, lookback int) (float64, bool) {
	lo := i - lookback
	if lo < 0 {
		lo = 0
	}
	if lo >= i {
		return 0, false
	}
	level := bars[lo].High
	for _, b := range bars[lo+1 : i] {
		if b.High > level {
			level = b.High
		}
	}
	return level, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
