package models

import "time"

// News categories assigned by the collector's age classifier.
const (
	NewsBreaking = "breaking"
	NewsGeneral  = "general"
)

// NewsItem is one canonical news record. Identity is the provider-assigned
// id; the collector never persists two items with the same id. AgeHours is
// derived at read time and not part of the stored identity.
type NewsItem struct {
	ID        string    `json:"news_id"`
	Symbol    string    `json:"symbol"`
	Headline  string    `json:"headline"`
	Summary   string    `json:"summary,omitempty"`
	Source    string    `json:"source"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider"`
	Category  string    `json:"category"`
}

// AgeHours returns the item's age relative to now.
func (n NewsItem) AgeHours(now time.Time) float64 {
	return now.Sub(n.Timestamp).Hours()
}
