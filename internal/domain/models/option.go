package models

import "time"

// OptionSide is the contract side.
type OptionSide string

const (
	SideCall OptionSide = "call"
	SidePut  OptionSide = "put"
)

// OptionContract is a single contract from a point-in-time chain snapshot.
// Contracts are ephemeral: re-fetched per snapshot, never persisted.
// Gamma is a pointer because providers omit greeks on thin contracts.
type OptionContract struct {
	Ticker       string     `json:"ticker"`
	Side         OptionSide `json:"side"`
	Strike       float64    `json:"strike"`
	Expiration   time.Time  `json:"expiration"`
	OpenInterest float64    `json:"open_interest"`
	Volume       float64    `json:"volume"`
	Gamma        *float64   `json:"gamma,omitempty"`
}

// ChainSnapshot is all contracts for a ticker at one snapshot time.
// Spot is the provider-embedded underlying price, 0 when absent.
type ChainSnapshot struct {
	Ticker    string           `json:"ticker"`
	TakenAt   time.Time        `json:"taken_at"`
	Spot      float64          `json:"spot"`
	Contracts []OptionContract `json:"contracts"`
}
