package models

import "time"

// Channel is a named category of market behavior a symbol currently exhibits.
type Channel string

const (
	ChannelNone     Channel = ""
	ChannelPregap   Channel = "pregap"
	ChannelHod      Channel = "hod"
	ChannelRunup    Channel = "runup"
	ChannelReversal Channel = "reversal"
)

// EnrichedRecord is the transient per-tick view the Tier-3 categorizer
// derives from a Snapshot plus its own rolling state. It is recomputed on
// every tick and never persisted; recomputing on unchanged inputs yields an
// identical record.
type EnrichedRecord struct {
	Symbol       string    `json:"symbol"`
	Price        float64   `json:"price"`
	Bid          float64   `json:"bid"`
	Ask          float64   `json:"ask"`
	Volume       float64   `json:"volume"`
	PrevClose    float64   `json:"prev_close"`
	GapPct       float64   `json:"gap_pct"`
	DayHigh      float64   `json:"day_high"`
	IsHod        bool      `json:"is_hod"`
	Rvol         float64   `json:"rvol"`
	Move5Min     float64   `json:"move_5min"`
	Move10Min    float64   `json:"move_10min"`
	BreakingNews bool      `json:"breaking_news"`
	NewsAgeHours float64   `json:"news_age_hours"`
	Timestamp    time.Time `json:"timestamp"`
}

// StockEvent is one categorized record emitted to the presentation layer.
type StockEvent struct {
	Channel Channel        `json:"channel"`
	Record  EnrichedRecord `json:"record"`
}
