package wyckoff

import (
	"math"

	"GammaPull/internal/domain/models"
)

// Detector scans OHLCV history for discrete Wyckoff structural events.
// Every detector is a pure function of the window ending at the event
// date: an unchanged window yields an identical event set.
type Detector struct {
	cfg DetectorConfig
}

func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{cfg: cfg}
}

// Config returns the detector's configuration.
func (d *Detector) Config() DetectorConfig {
	return d.cfg
}

// DetectEvents scans the full bar slice in date order and returns all
// events, sparse and date-ordered. Returns nil when the history is too
// short for a baseline.
func (d *Detector) DetectEvents(ticker string, bars []models.PriceBar) []models.WyckoffEvent {
	cfg := d.cfg
	if len(bars) < cfg.MinHistory() {
		return nil
	}
	stats := computeStats(bars, cfg.BaselineBars)

	var events []models.WyckoffEvent

	// Anchors for the path-dependent detectors. Each anchor is itself a
	// function of the bars before the current one, so purity holds.
	lastSC, lastBC := -1, -1
	arAfterSC, arAfterBC := false, false
	lastSpring, lastUpthrust := -1, -1

	start := cfg.BaselineBars
	if cfg.RangeLookback > start {
		start = cfg.RangeLookback
	}

	for i := start; i < len(bars); i++ {
		b := bars[i]
		st := stats[i]

		emit := func(t models.EventType, dir models.Direction, role models.EventRole, price, conf float64) {
			events = append(events, models.WyckoffEvent{
				Ticker:     ticker,
				Date:       b.Day,
				BarIndex:   i,
				Type:       t,
				Direction:  dir,
				Role:       role,
				Confidence: clamp01(conf),
				Price:      price,
				RangeZ:     st.rangeZ,
				VolumeZ:    st.volumeZ,
			})
		}

		// Climax: range and volume both stretched, close pinned at the
		// extreme of the bar.
		climaxBar := false
		if st.rangeZ >= cfg.ClimaxZ && st.volumeZ >= cfg.ClimaxZ && b.Range() > 0 {
			closePos := (b.Close - b.Low) / b.Range()
			conf := 0.5 + (math.Min(st.rangeZ, st.volumeZ)-cfg.ClimaxZ)/(2*cfg.ClimaxZ)
			if closePos <= cfg.ClimaxClosePct && b.Close < b.Open {
				emit(models.EventSellingClimax, models.DirectionDown, models.RoleContext, b.Close, conf)
				lastSC, arAfterSC = i, false
				climaxBar = true
			} else if closePos >= 1-cfg.ClimaxClosePct && b.Close > b.Open {
				emit(models.EventBuyingClimax, models.DirectionUp, models.RoleExit, b.Close, conf)
				lastBC, arAfterBC = i, false
				climaxBar = true
			}
		}

		// Automatic rally: first meaningful bounce off the SC low on
		// volume below the climax bar's.
		if lastSC >= 0 && !arAfterSC && i > lastSC && i-lastSC <= cfg.ARMaxBars {
			sc := bars[lastSC]
			if sc.Low > 0 && (b.Close-sc.Low)/sc.Low >= cfg.ARMinMovePct && b.Volume < sc.Volume {
				emit(models.EventAutoRally, models.DirectionUp, models.RoleContext, b.Close, 0.6)
				arAfterSC = true
			}
		}
		// Automatic reaction after a buying climax, mirrored.
		if lastBC >= 0 && !arAfterBC && i > lastBC && i-lastBC <= cfg.ARMaxBars {
			bc := bars[lastBC]
			if bc.High > 0 && (bc.High-b.Close)/bc.High >= cfg.ARMinMovePct && b.Volume < bc.Volume {
				emit(models.EventAutoRally, models.DirectionDown, models.RoleContext, b.Close, 0.6)
				arAfterBC = true
			}
		}

		// Secondary test: retest of the climax extreme on markedly lower
		// volume.
		if lastSC >= 0 && i > lastSC+1 && i-lastSC <= cfg.STMaxBars {
			sc := bars[lastSC]
			if sc.Low > 0 && math.Abs(b.Low-sc.Low)/sc.Low <= cfg.STProximityPct &&
				b.Volume <= cfg.STVolumeRatio*sc.Volume {
				emit(models.EventSecondaryTest, models.DirectionDown, models.RoleContext, b.Low, 0.65)
			}
		}
		if lastBC >= 0 && i > lastBC+1 && i-lastBC <= cfg.STMaxBars {
			bc := bars[lastBC]
			if bc.High > 0 && math.Abs(b.High-bc.High)/bc.High <= cfg.STProximityPct &&
				b.Volume <= cfg.STVolumeRatio*bc.Volume {
				emit(models.EventSecondaryTest, models.DirectionUp, models.RoleContext, b.High, 0.65)
			}
		}

		// Spring: brief break below support, quick re-entry, quiet volume.
		if sup, ok := supportLevel(bars, i-cfg.SpringMaxBars, cfg.RangeLookback); ok && sup > 0 {
			clusterLow := b.Low
			for j := i - cfg.SpringMaxBars; j < i; j++ {
				if j >= 0 && bars[j].Low < clusterLow {
					clusterLow = bars[j].Low
				}
			}
			broke := clusterLow < sup*(1-cfg.SpringBreakPct)
			reentered := b.Close > sup
			firstReentry := b.Low < sup*(1-cfg.SpringBreakPct) || bars[i-1].Close <= sup
			if broke && reentered && firstReentry && st.volumeZ <= cfg.SpringVolumeZ {
				emit(models.EventSpring, models.DirectionDown, models.RoleEntry, clusterLow, 0.7)
				lastSpring = i
			}
		}

		// Upthrust: mirror image above resistance.
		if res, ok := resistanceLevel(bars, i-cfg.SpringMaxBars, cfg.RangeLookback); ok && res > 0 {
			clusterHigh := b.High
			for j := i - cfg.SpringMaxBars; j < i; j++ {
				if j >= 0 && bars[j].High > clusterHigh {
					clusterHigh = bars[j].High
				}
			}
			broke := clusterHigh > res*(1+cfg.SpringBreakPct)
			reentered := b.Close < res
			firstReentry := b.High > res*(1+cfg.SpringBreakPct) || bars[i-1].Close >= res
			if broke && reentered && firstReentry && st.volumeZ <= cfg.SpringVolumeZ {
				emit(models.EventUpthrust, models.DirectionUp, models.RoleExit, clusterHigh, 0.7)
				lastUpthrust = i
			}
		}

		// Test: low-volume retest of the spring/upthrust area that holds.
		if lastSpring >= 0 && i > lastSpring && i-lastSpring <= cfg.TestMaxBars {
			springLow := events[lastEventIndex(events, models.EventSpring)].Price
			if springLow > 0 && math.Abs(b.Low-springLow)/springLow <= cfg.TestProximityPct &&
				st.volumeZ <= cfg.TestVolumeZ && b.Close > springLow {
				emit(models.EventTest, models.DirectionDown, models.RoleEntry, b.Low, 0.65)
			}
		}
		if lastUpthrust >= 0 && i > lastUpthrust && i-lastUpthrust <= cfg.TestMaxBars {
			utHigh := events[lastEventIndex(events, models.EventUpthrust)].Price
			if utHigh > 0 && math.Abs(b.High-utHigh)/utHigh <= cfg.TestProximityPct &&
				st.volumeZ <= cfg.TestVolumeZ && b.Close < utHigh {
				emit(models.EventTest, models.DirectionUp, models.RoleEntry, b.High, 0.65)
			}
		}

		// Sign of strength/weakness: expansion breakout beyond the level
		// on above-average volume. A climax bar reads as exhaustion, not
		// continuation, so it never doubles as SOS/SOW.
		if !climaxBar {
			if res, ok := resistanceLevel(bars, i, cfg.RangeLookback); ok && res > 0 {
				if b.Close > res*(1+cfg.SOSBreakPct) && st.volumeZ >= cfg.SOSVolumeZ && st.rangeZ >= cfg.SOSRangeZ {
					emit(models.EventSOS, models.DirectionUp, models.RoleEntry, b.Close, 0.6+st.volumeZ/8)
				}
			}
			if sup, ok := supportLevel(bars, i, cfg.RangeLookback); ok && sup > 0 {
				if b.Close < sup*(1-cfg.SOSBreakPct) && st.volumeZ >= cfg.SOSVolumeZ && st.rangeZ >= cfg.SOSRangeZ {
					emit(models.EventSOW, models.DirectionDown, models.RoleExit, b.Close, 0.6+st.volumeZ/8)
				}
			}
		}
	}

	return events
}

// lastEventIndex finds the most recent event of the given type; the
// caller guarantees one exists.
func lastEventIndex(events []models.WyckoffEvent, t models.EventType) int {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == t {
			return i
		}
	}
	return -1
}
