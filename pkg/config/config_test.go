package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const baseYAML = `
environment: test
polygon:
  api_key: k
clickhouse:
  host: localhost
scan:
  tickers: [SPY]
`

func TestLoadAnalysisThresholds(t *testing.T) {
	path := writeConfig(t, baseYAML+`
analysis:
  wyckoff:
    baseline_bars: 30
    range_lookback: 25
    climax_z: 2.5
    sos_volume_z: 1.2
  sequence:
    spring_to_test_max_bars: 8
    test_to_sos_max_bars: 12
    spring_to_sos_max_bars: 16
    invalidate_on_opposing_climax: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Analysis.Wyckoff.BaselineBars; got != 30 {
		t.Errorf("baseline_bars = %d, want 30", got)
	}
	if got := cfg.Analysis.Wyckoff.RangeLookback; got != 25 {
		t.Errorf("range_lookback = %d, want 25", got)
	}
	if got := cfg.Analysis.Wyckoff.ClimaxZ; got != 2.5 {
		t.Errorf("climax_z = %v, want 2.5", got)
	}
	if got := cfg.Analysis.Wyckoff.SOSVolumeZ; got != 1.2 {
		t.Errorf("sos_volume_z = %v, want 1.2", got)
	}
	if got := cfg.Analysis.Sequence.SpringToTestMaxBars; got != 8 {
		t.Errorf("spring_to_test_max_bars = %d, want 8", got)
	}
	if got := cfg.Analysis.Sequence.TestToSOSMaxBars; got != 12 {
		t.Errorf("test_to_sos_max_bars = %d, want 12", got)
	}
	if got := cfg.Analysis.Sequence.SpringToSOSMaxBars; got != 16 {
		t.Errorf("spring_to_sos_max_bars = %d, want 16", got)
	}
	if cfg.Analysis.Sequence.InvalidateOnOpposingClimax {
		t.Error("invalidate_on_opposing_climax = true, want false")
	}
}

func TestLoadWithoutAnalysisSections(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Absent sections stay zero-valued; the DI layer substitutes defaults.
	if got := cfg.Analysis.Wyckoff.BaselineBars; got != 0 {
		t.Errorf("baseline_bars = %d, want 0", got)
	}
	if got := cfg.Analysis.Sequence.SpringToTestMaxBars; got != 0 {
		t.Errorf("spring_to_test_max_bars = %d, want 0", got)
	}
}

func TestLoadRejectsMissingTickers(t *testing.T) {
	if _, err := Load(writeConfig(t, `
environment: test
polygon:
  api_key: k
clickhouse:
  host: localhost
`)); err == nil {
		t.Fatal("expected validation error for empty scan.tickers")
	}
}
