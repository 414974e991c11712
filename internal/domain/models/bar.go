package models

import "time"

// Ticker is a tracked underlying. Tickers are deactivated, never deleted,
// so historical records keep a valid reference.
type Ticker struct {
	Symbol  string    `json:"symbol"`
	Name    string    `json:"name,omitempty"`
	Active  bool      `json:"active"`
	AddedAt time.Time `json:"added_at"`
}

// PriceBar is one OHLCV observation per ticker per trading day.
// Bars are append-only; they feed the volatility/volume baselines.
type PriceBar struct {
	Ticker string    `json:"ticker"`
	Day    time.Time `json:"day"` // trading day at UTC midnight
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Range returns the bar's high-low span.
func (b PriceBar) Range() float64 {
	return b.High - b.Low
}
