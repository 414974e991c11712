package models

import (
	"fmt"
	"time"
)

// EventType is a discrete Wyckoff structural event.
type EventType string

const (
	EventSellingClimax EventType = "SC"
	EventBuyingClimax  EventType = "BC"
	EventAutoRally     EventType = "AR"
	EventSecondaryTest EventType = "ST"
	EventSpring        EventType = "SPRING"
	EventUpthrust      EventType = "UPTHRUST"
	EventTest          EventType = "TEST"
	EventSOS           EventType = "SOS"
	EventSOW           EventType = "SOW"
)

// Direction is the price direction of the bar that produced the event,
// not its trading implication (a SPRING breaks DOWN but reads bullish).
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// EventRole classifies how downstream consumers should read the event.
type EventRole string

const (
	RoleEntry   EventRole = "ENTRY"
	RoleExit    EventRole = "EXIT"
	RoleContext EventRole = "CONTEXT"
)

// WyckoffEvent is one detected structural event. Sparse: most days emit
// nothing. BarIndex is the bar's position within the analyzed history and
// is what sequence windows are measured in.
type WyckoffEvent struct {
	Ticker     string    `json:"ticker"`
	Date       time.Time `json:"event_date"`
	BarIndex   int       `json:"bar_index"`
	Type       EventType `json:"event_type"`
	Direction  Direction `json:"direction"`
	Role       EventRole `json:"role"`
	Confidence float64   `json:"confidence"`
	Price      float64   `json:"price"`
	RangeZ     float64   `json:"range_z"`
	VolumeZ    float64   `json:"volume_z"`
}

// Regime is the sticky Wyckoff phase label.
type Regime string

const (
	RegimeAccumulation Regime = "ACCUMULATION"
	RegimeMarkup       Regime = "MARKUP"
	RegimeDistribution Regime = "DISTRIBUTION"
	RegimeMarkdown     Regime = "MARKDOWN"
	RegimeUnknown      Regime = "UNKNOWN"
)

// RegimeState is the per-ticker per-day regime. Absent a regime-setting
// event the prior day's state carries forward unchanged, so the full
// history is a fold, not a per-day function.
type RegimeState struct {
	Ticker     string    `json:"ticker"`
	Day        time.Time `json:"day"`
	Regime     Regime    `json:"regime"`
	Confidence float64   `json:"confidence"`
	SetByEvent EventType `json:"set_by_event,omitempty"`
	SetOn      time.Time `json:"set_on"`
}

// SequenceLeg is one ordered element of a validated event chain.
type SequenceLeg struct {
	Type EventType `json:"event_type"`
	Date time.Time `json:"date"`
	Role EventRole `json:"role"`
}

// Sequence is an immutable validated multi-event chain, uniquely keyed by
// (ticker, terminal event, terminal date).
type Sequence struct {
	Ticker         string        `json:"ticker"`
	ID             string        `json:"sequence_id"`
	Kind           string        `json:"kind"` // accumulation | distribution
	StartDate      time.Time     `json:"start_date"`
	CompletionDate time.Time     `json:"completion_date"`
	Legs           []SequenceLeg `json:"legs"`
	TerminalType   EventType     `json:"terminal_type"`
	TerminalDate   time.Time     `json:"terminal_date"`
}

// SequenceID builds the canonical unique key for a sequence.
func SequenceID(ticker string, terminal EventType, date time.Time) string {
	return fmt.Sprintf("%s|%s|%s", ticker, terminal, date.UTC().Format("2006-01-02"))
}
