package models

// LatestState is the payload pushed to presentation clients over the
// websocket hub. A freshly connected client receives the full state with
// Type "INITIAL"; incremental pushes use "UPDATE".
type LatestState struct {
	Type      string                    `json:"type"`
	Channels  map[Channel][]string      `json:"channels"`
	Records   map[string]EnrichedRecord `json:"records"`
	News      map[string]NewsItem       `json:"news"`
	Halts     map[string]HaltRecord     `json:"halts"`
	Timestamp int64                     `json:"timestamp"`
}

// HubMessage is one event pushed through the hub broadcast queue.
type HubMessage struct {
	Type  string      `json:"type"` // stock | news | halt
	Stock *StockEvent `json:"stock,omitempty"`
	News  *NewsItem   `json:"news,omitempty"`
	Halt  *HaltRecord `json:"halt,omitempty"`
}
