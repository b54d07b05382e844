package models

import "time"

// Snapshot is the per-symbol validated quote/trade state maintained by the
// Tier-2 validator. Fields are merged in piecemeal as partial ticks arrive;
// the record is only created whole on symbol first-sight.
type Snapshot struct {
	Symbol     string    `json:"symbol"`
	Bid        float64   `json:"bid"`
	Ask        float64   `json:"ask"`
	BidSize    float64   `json:"bid_size"`
	AskSize    float64   `json:"ask_size"`
	Price      float64   `json:"price"`
	Volume     float64   `json:"volume"`
	LastUpdate time.Time `json:"last_update"`
}

// UniverseQuote is the coarse per-symbol reading the Tier-1 prefilter runs
// its bounds against.
type UniverseQuote struct {
	Symbol    string
	Price     float64
	AvgVolume float64
}

// StreamEventType discriminates the payload of a StreamEvent.
type StreamEventType int

const (
	EventQuote StreamEventType = iota
	EventTrade
	EventSummary
)

// StreamEvent is one partial tick from a quote/trade stream. Quote events
// carry bid/ask fields, trade events carry price/volume, summary events
// carry daily reference fields; the receiver merges only the fields
// belonging to the event type.
type StreamEvent struct {
	Type      StreamEventType
	Symbol    string
	Bid       float64
	Ask       float64
	BidSize   float64
	AskSize   float64
	Price     float64
	Volume    float64
	PrevClose float64
	DayHigh   float64
	Timestamp time.Time
}

// ApplyTo merges the event's fields into the snapshot. The merge is
// idempotent: applying the same event twice leaves the snapshot unchanged.
func (e StreamEvent) ApplyTo(s *Snapshot) {
	s.Symbol = e.Symbol
	switch e.Type {
	case EventQuote:
		s.Bid = e.Bid
		s.Ask = e.Ask
		s.BidSize = e.BidSize
		s.AskSize = e.AskSize
	case EventTrade:
		s.Price = e.Price
		s.Volume = e.Volume
	}
	s.LastUpdate = e.Timestamp
}
