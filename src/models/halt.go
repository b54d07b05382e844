package models

import (
	"fmt"
	"time"
)

// Halt lifecycle states. A record moves HALTED -> RESUMED at most once per
// episode; a later HALTED for the same symbol starts a new episode.
const (
	HaltStatusHalted  = "HALTED"
	HaltStatusResumed = "RESUMED"
)

// HaltRecord is one halt episode as parsed from the exchange halt feed.
type HaltRecord struct {
	Symbol     string     `json:"symbol"`
	Status     string     `json:"status"`
	HaltTime   time.Time  `json:"halt_time"`
	ResumeTime *time.Time `json:"resume_time,omitempty"`
	Reason     string     `json:"reason"`
	Price      float64    `json:"price"`
	Exchange   string     `json:"exchange"`
	LastUpdate time.Time  `json:"last_update"`
}

// HistoryID builds the identity under which a resumed episode is filed in
// the historical document, disambiguating repeated halts of one symbol.
func (h HaltRecord) HistoryID() string {
	t := h.HaltTime
	if h.ResumeTime != nil {
		t = *h.ResumeTime
	}
	return fmt.Sprintf("%s_%d", h.Symbol, t.Unix())
}
