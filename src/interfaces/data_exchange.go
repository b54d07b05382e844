package interfaces

import "signalscan/src/models"

// -----------------------------------------------------------------------------
// EventSink receives categorized events for the presentation layer. The hub
// server implements it; scanners publish without knowing about websockets.
// -----------------------------------------------------------------------------

type EventSink interface {

	// PublishStock pushes one categorized stock event.
	PublishStock(event models.StockEvent)

	// -----------------------------------------------------------------------------

	// PublishNews pushes one persisted news item.
	PublishNews(item models.NewsItem)

	// -----------------------------------------------------------------------------

	// PublishHalt pushes one halt lifecycle transition.
	PublishHalt(record models.HaltRecord)
}

// -----------------------------------------------------------------------------
// Scanner is the lifecycle contract every pipeline component implements.
// Start is idempotent with respect to a fresh stop state; Stop signals
// shutdown and joins background goroutines within a bounded timeout.
// -----------------------------------------------------------------------------

type Scanner interface {
	Start() error
	Stop() error
}
