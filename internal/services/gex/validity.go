package gex

import (
	"math"

	"GammaPull/internal/domain/models"
)

// Minimum eligible contracts for a statistically full read.
const fullSampleMin = 25

// ValidityInput is everything the classifier is allowed to look at. The
// classification is a pure function of these fields; for fixed inputs the
// status never changes retroactively.
type ValidityInput struct {
	SpotResolved  bool
	RawCount      int
	EligibleCount int
	TotalsPresent bool
	GexTotal      float64
	Position      models.DealerPosition
	Confidence    models.Confidence
}

// Classify maps the input onto exactly one of FULL, LIMITED or INVALID
// plus a reason. A mathematically complete payload can still come out
// INVALID purely on sample size; status encodes statistical sufficiency,
// not computational success.
func Classify(in ValidityInput) (models.MetricsStatus, string) {
	if !in.SpotResolved {
		return models.StatusInvalid, models.ReasonSpotUnresolved
	}
	if in.RawCount == 0 {
		return models.StatusInvalid, models.ReasonNoOptionsAvailable
	}
	if in.EligibleCount == 0 {
		return models.StatusInvalid, models.ReasonAllFiltered
	}
	if !in.TotalsPresent || math.Abs(in.GexTotal) == 0 {
		return models.StatusInvalid, models.ReasonZeroTotals
	}
	if in.Position == models.PositionUnknown {
		return models.StatusInvalid, models.ReasonCriteriaNotMet
	}

	if in.EligibleCount >= fullSampleMin {
		if in.Confidence == models.ConfidenceHigh || in.Confidence == models.ConfidenceMedium {
			return models.StatusFull, models.ReasonOK
		}
		return models.StatusInvalid, models.ReasonCriteriaNotMet
	}

	// 1 <= count < fullSampleMin
	if in.Confidence == models.ConfidenceMedium || in.Confidence == models.ConfidenceInvalid {
		return models.StatusLimited, models.ReasonLimitedSample
	}
	return models.StatusInvalid, models.ReasonCriteriaNotMet
}

// GradeConfidence grades chain completeness from gamma coverage: the
// fraction of raw contracts carrying a gamma value.
func GradeConfidence(rawCount, withGamma int) models.Confidence {
	if rawCount == 0 {
		return models.ConfidenceInvalid
	}
	cov := float64(withGamma) / float64(rawCount)
	switch {
	case cov >= 0.9:
		return models.ConfidenceHigh
	case cov >= 0.5:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceInvalid
	}
}
