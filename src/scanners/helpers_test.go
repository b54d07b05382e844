package scanners

import (
	"context"
	"sync"
	"testing"
	"time"

	"signalscan/src/interfaces"
	"signalscan/src/logger"
	"signalscan/src/models"
	"signalscan/src/vault"
)

// -----------------------------------------------------------------------------
// Shared test doubles
// -----------------------------------------------------------------------------

func testConfig() *models.Config {
	return &models.Config{
		Name: "test",
		Scan: models.ScanConfig{
			PrefilterInterval:  7200,
			ValidatorInterval:  10,
			CategorizerResub:   10,
			NewsInterval:       180,
			HaltInterval:       150,
			ReconnectDelay:     30,
			MinVolume:          5_000_000,
			MinPrice:           0.75,
			MaxPrice:           17.00,
			DefaultAvgVolume:   1_000_000,
			PriceWindowMinutes: 15,
		},
		Rules: models.DefaultChannelRules(),
	}
}

// -----------------------------------------------------------------------------

func newTestStore(t *testing.T) *vault.Store {
	t.Helper()
	backend, err := vault.NewFileVault(t.TempDir(), logger.NewLogger("test"))
	if err != nil {
		t.Fatalf("NewFileVault: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	return vault.NewStoreWith(backend, logger.NewLogger("test"))
}

// -----------------------------------------------------------------------------

type fakeSink struct {
	mu     sync.Mutex
	stocks []models.StockEvent
	news   []models.NewsItem
	halts  []models.HaltRecord
}

func (f *fakeSink) PublishStock(event models.StockEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stocks = append(f.stocks, event)
}

func (f *fakeSink) PublishNews(item models.NewsItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.news = append(f.news, item)
}

func (f *fakeSink) PublishHalt(record models.HaltRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.halts = append(f.halts, record)
}

// -----------------------------------------------------------------------------

type fakeStream struct {
	mu         sync.Mutex
	events     chan models.StreamEvent
	subscribed []string
	connected  bool
	connectErr error
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan models.StreamEvent, 64)}
}

func (f *fakeStream) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeStream) Subscribe(symbols []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = append(f.subscribed, symbols...)
	return nil
}

func (f *fakeStream) Events() <-chan models.StreamEvent { return f.events }

func (f *fakeStream) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}

// -----------------------------------------------------------------------------

type fakeQuoteClient struct {
	quotes map[string]models.StreamEvent
}

func (f *fakeQuoteClient) LatestQuote(ctx context.Context, symbol string) (models.StreamEvent, error) {
	if ev, ok := f.quotes[symbol]; ok {
		return ev, nil
	}
	return models.StreamEvent{Type: models.EventQuote, Symbol: symbol}, nil
}

// -----------------------------------------------------------------------------

type fakeHaltFeed struct {
	notices []models.HaltRecord
	err     error
}

func (f *fakeHaltFeed) Fetch(ctx context.Context) ([]models.HaltRecord, error) {
	return f.notices, f.err
}

// -----------------------------------------------------------------------------

type fakeProvider struct {
	mu    sync.Mutex
	name  string
	items []models.NewsItem
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(ctx context.Context) ([]models.NewsItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.items, f.err
}

// -----------------------------------------------------------------------------

type fakeUniverseSource struct {
	mu          sync.Mutex
	quotes      []models.UniverseQuote
	err         error
	requests    [][]string
	inFlight    int
	maxInFlight int
}

func (f *fakeUniverseSource) FetchUniverse(ctx context.Context, symbols []string) ([]models.UniverseQuote, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.requests = append(f.requests, append([]string(nil), symbols...))
	quotes, err := f.quotes, f.err
	f.mu.Unlock()

	// Hold the call open so overlapping passes are observable.
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	return quotes, err
}

// -----------------------------------------------------------------------------

type fakeNewsStream struct {
	items chan models.NewsItem
}

func newFakeNewsStream() *fakeNewsStream {
	return &fakeNewsStream{items: make(chan models.NewsItem, 16)}
}

func (f *fakeNewsStream) Connect(ctx context.Context) error { return nil }
func (f *fakeNewsStream) Items() <-chan models.NewsItem     { return f.items }
func (f *fakeNewsStream) Close() error                      { return nil }

// -----------------------------------------------------------------------------

var _ interfaces.StreamFeed = (*fakeStream)(nil)
var _ interfaces.UniverseSource = (*fakeUniverseSource)(nil)
var _ interfaces.QuoteClient = (*fakeQuoteClient)(nil)
var _ interfaces.HaltFeed = (*fakeHaltFeed)(nil)
var _ interfaces.NewsProvider = (*fakeProvider)(nil)
var _ interfaces.NewsStream = (*fakeNewsStream)(nil)
var _ interfaces.EventSink = (*fakeSink)(nil)
