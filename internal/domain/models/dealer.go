package models

import (
	"fmt"
	"time"
)

// MetricsStatus is the tri-state usability contract on a dealer metrics
// record. It encodes statistical sufficiency, not computational success:
// a record with plausible walls can still be INVALID on sample size alone.
type MetricsStatus string

const (
	StatusFull    MetricsStatus = "FULL"
	StatusLimited MetricsStatus = "LIMITED"
	StatusInvalid MetricsStatus = "INVALID"
)

// Status reasons recorded alongside INVALID (and LIMITED) classifications.
const (
	ReasonOK                 = "ok"
	ReasonNoOptionsAvailable = "no_options_available"
	ReasonAllFiltered        = "all_contracts_filtered"
	ReasonSpotUnresolved     = "spot_unresolved"
	ReasonZeroTotals         = "zero_totals"
	ReasonCriteriaNotMet     = "criteria_not_met"
	ReasonLimitedSample      = "limited_sample"
)

// Confidence grades the completeness of the option data a record was
// computed from.
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceInvalid Confidence = "invalid"
)

// DealerPosition is the inferred aggregate market-maker gamma posture.
type DealerPosition string

const (
	PositionLongGamma  DealerPosition = "long_gamma"
	PositionShortGamma DealerPosition = "short_gamma"
	PositionUnknown    DealerPosition = "unknown"
)

// Wall is one strike-level gamma concentration. Walls are fully recomputed
// each run, never patched.
type Wall struct {
	Strike        float64    `json:"strike"`
	Side          OptionSide `json:"side"`
	RawGex        float64    `json:"raw_gex"`
	WeightedGex   float64    `json:"weighted_gex"`
	Moneyness     float64    `json:"moneyness"`
	OpenInterest  float64    `json:"open_interest"`
	ContractCount int        `json:"contract_count"`
}

// PrimaryWall is the top-ranked wall on a side, reported with raw exposure
// and the signed distance strike-spot.
type PrimaryWall struct {
	Strike         float64 `json:"strike"`
	RawGex         float64 `json:"raw_gex"`
	DistanceToSpot float64 `json:"distance_to_spot"`
}

// DealerMetricsRecord is the persisted dealer-positioning state for one
// (ticker, snapshot time). Status is the authoritative field; PinRisk is a
// debug-only heuristic computed independently and must never be used for
// downstream decisions.
type DealerMetricsRecord struct {
	Ticker     string    `json:"ticker"`
	SnapshotAt time.Time `json:"snapshot_at"`

	Spot       float64 `json:"spot"`
	SpotSource string  `json:"spot_source"`

	GexTotal  float64  `json:"gex_total"`
	GexNet    float64  `json:"gex_net"`
	GammaFlip *float64 `json:"gamma_flip,omitempty"`

	CallWalls       []Wall       `json:"call_walls"`
	PutWalls        []Wall       `json:"put_walls"`
	PrimaryCallWall *PrimaryWall `json:"primary_call_wall,omitempty"`
	PrimaryPutWall  *PrimaryWall `json:"primary_put_wall,omitempty"`

	RawContractCount int            `json:"raw_contract_count"`
	EligibleCount    int            `json:"eligible_options_count"`
	Position         DealerPosition `json:"position"`
	Confidence       Confidence     `json:"confidence"`

	Status       MetricsStatus `json:"status"`
	StatusReason string        `json:"status_reason"`

	// PinRisk flags spot sitting on a large wall. Debug only.
	PinRisk string `json:"pin_risk,omitempty"`

	Config EligibilityConfig `json:"config"`
}

// EligibilityConfig is the contract filter and ranking configuration a
// record was computed with; stored on the record for auditability.
type EligibilityConfig struct {
	MaxDTE          int     `yaml:"max_dte" json:"max_dte"`
	MinOpenInterest float64 `yaml:"min_open_interest" json:"min_open_interest"`
	MinVolume       float64 `yaml:"min_volume" json:"min_volume"`
	MaxMoneyness    float64 `yaml:"max_moneyness" json:"max_moneyness"`
	WallCount       int     `yaml:"wall_count" json:"wall_count"`
}

// DefaultEligibilityConfig returns the stock thresholds.
func DefaultEligibilityConfig() EligibilityConfig {
	return EligibilityConfig{
		MaxDTE:          45,
		MinOpenInterest: 10,
		MinVolume:       1,
		MaxMoneyness:    0.20,
		WallCount:       5,
	}
}

// Validate rejects nonsensical thresholds; invalid analysis configuration
// is a systemic error that aborts the run.
func (c EligibilityConfig) Validate() error {
	if c.MaxDTE <= 0 {
		return fmt.Errorf("eligibility: max_dte must be positive, got %d", c.MaxDTE)
	}
	if c.MinOpenInterest < 0 || c.MinVolume < 0 {
		return fmt.Errorf("eligibility: negative min_open_interest/min_volume")
	}
	if c.MaxMoneyness <= 0 || c.MaxMoneyness > 1 {
		return fmt.Errorf("eligibility: max_moneyness must be in (0,1], got %v", c.MaxMoneyness)
	}
	if c.WallCount <= 0 {
		return fmt.Errorf("eligibility: wall_count must be positive, got %d", c.WallCount)
	}
	return nil
}
