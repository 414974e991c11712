package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GammaPull/internal/services/wyckoff"
	"GammaPull/pkg/config"
	applogger "GammaPull/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	return log
}

func TestProvideStructureAnalyzerDefaultsWhenUnset(t *testing.T) {
	cfg := &config.Config{}

	a, err := ProvideStructureAnalyzer(cfg, nil, nil, nil, nil, nil, testLogger(t))
	require.NoError(t, err)
	assert.NotNil(t, a)
}

// Configured analysis.wyckoff and analysis.sequence sections are used
// as-is, not silently replaced by the defaults.
func TestProvideStructureAnalyzerThreadsConfiguredThresholds(t *testing.T) {
	log := testLogger(t)

	cfg := &config.Config{}
	w := wyckoff.DefaultDetectorConfig()
	w.ClimaxZ = 2.5
	cfg.Analysis.Wyckoff = w
	s := wyckoff.DefaultSequenceConfig()
	s.InvalidateOnOpposingClimax = false
	cfg.Analysis.Sequence = s

	a, err := ProvideStructureAnalyzer(cfg, nil, nil, nil, nil, nil, log)
	require.NoError(t, err)
	assert.NotNil(t, a)

	// An out-of-range configured value must surface instead of being
	// masked by the defaults.
	cfg.Analysis.Wyckoff.BaselineBars = 3
	_, err = ProvideStructureAnalyzer(cfg, nil, nil, nil, nil, nil, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baseline_bars")

	cfg.Analysis.Wyckoff = w
	cfg.Analysis.Sequence.SpringToTestMaxBars = 30 // above the combined cap
	_, err = ProvideStructureAnalyzer(cfg, nil, nil, nil, nil, nil, log)
	require.Error(t, err)
}
