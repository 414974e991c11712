package models

// Requests for the read API. Defined in domain for consistency and reuse.

type DealerMetricsRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,min=1,max=12"`
	At     string `query:"at" json:"at"` // RFC3339 or unix seconds; empty = latest
}

type RegimeRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,min=1,max=12"`
	Day    string `query:"day" json:"day"` // YYYY-MM-DD; empty = latest
}

type EventsRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,min=1,max=12"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"200" validate:"gte=1,lte=2000"`
}

type SequencesRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,min=1,max=12"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}
