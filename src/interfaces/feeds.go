package interfaces

import (
	"context"

	"signalscan/src/models"
)

// -----------------------------------------------------------------------------
// StreamFeed is a push-based quote/trade subscription. Implementations own
// the network connection and convert wire messages into typed StreamEvents
// on the Events channel; subscribers never see the socket.
// -----------------------------------------------------------------------------

type StreamFeed interface {

	// Connect establishes the stream session. The context bounds the life of
	// the connection; cancelling it closes the socket.
	Connect(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// Subscribe adds symbols to the live subscription. Additive: symbols
	// already subscribed are skipped, nothing is ever unsubscribed.
	Subscribe(symbols []string) error

	// -----------------------------------------------------------------------------

	// Events returns the channel typed ticks are delivered on.
	Events() <-chan models.StreamEvent

	// -----------------------------------------------------------------------------

	// Connected reports whether the stream session is currently established.
	Connected() bool

	// -----------------------------------------------------------------------------

	// Close tears down the connection. Subscriptions are remembered so a
	// later Connect can re-establish them.
	Close() error
}

// -----------------------------------------------------------------------------
// QuoteClient is the pull-based counterpart used to backfill snapshot fields
// before the first stream tick arrives.
// -----------------------------------------------------------------------------

type QuoteClient interface {

	// LatestQuote fetches the most recent quote for one symbol.
	LatestQuote(ctx context.Context, symbol string) (models.StreamEvent, error)
}

// -----------------------------------------------------------------------------
// UniverseSource supplies coarse quotes for a batch of registry symbols.
// -----------------------------------------------------------------------------

type UniverseSource interface {

	// FetchUniverse fetches coarse quotes for the given symbols. Partial
	// coverage is acceptable; implementations fail only on total loss.
	FetchUniverse(ctx context.Context, symbols []string) ([]models.UniverseQuote, error)
}

// -----------------------------------------------------------------------------
// NewsProvider is one pull-based secondary news source in the rotation.
// -----------------------------------------------------------------------------

type NewsProvider interface {

	// Name returns the provider identifier used in logs and item provenance.
	Name() string

	// -----------------------------------------------------------------------------

	// Fetch pulls the provider's current headlines. An empty result is
	// treated by the collector as a failure signal for rotation purposes.
	Fetch(ctx context.Context) ([]models.NewsItem, error)
}

// -----------------------------------------------------------------------------
// NewsStream is the always-on push news feed.
// -----------------------------------------------------------------------------

type NewsStream interface {
	Connect(ctx context.Context) error
	Items() <-chan models.NewsItem
	Close() error
}

// -----------------------------------------------------------------------------
// HaltFeed is the periodically polled trading-halt notice feed.
// -----------------------------------------------------------------------------

type HaltFeed interface {

	// Fetch retrieves and parses the current halt notices. Entries that fail
	// to parse are skipped by the implementation, not surfaced as errors.
	Fetch(ctx context.Context) ([]models.HaltRecord, error)
}
