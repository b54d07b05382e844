package scanners

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"signalscan/src/interfaces"
	"signalscan/src/logger"
	"signalscan/src/models"
	"signalscan/src/vault"
)

// -----------------------------------------------------------------------------

// Age bounds for the news classifier, in hours.
const (
	breakingMaxAgeHours = 2
	generalMaxAgeHours  = 72
)

// -----------------------------------------------------------------------------

// NewsCollector merges two inflows into the news documents: the always-on
// push stream, drained as items arrive, and a rotation of pull providers
// polled on a fixed cadence. One provider serves per cycle; the rotation
// advances only when that provider comes back empty or failing, so a
// healthy provider keeps its slot.
type NewsCollector struct {
	Config    *models.Config
	Store     *vault.Store
	Stream    interfaces.NewsStream
	Providers []interfaces.NewsProvider
	Backfill  interfaces.NewsProvider
	Sink      interfaces.EventSink
	Logger    *logger.Logger

	seenMu sync.Mutex
	seen   map[string]struct{}

	// pullMu serializes scheduled pulls with forced refreshes and guards
	// the rotation position.
	pullMu      sync.Mutex
	providerIdx int

	// docMu guards the read-merge-write cycles on the news documents.
	docMu sync.Mutex

	lastConnect time.Time

	cancelFunc context.CancelFunc
	ctx        context.Context
	isRunning  atomic.Bool
	wg         sync.WaitGroup
	mu         sync.Mutex
}

// -----------------------------------------------------------------------------

func NewNewsCollector(cfg *models.Config, store *vault.Store, stream interfaces.NewsStream,
	providers []interfaces.NewsProvider, backfill interfaces.NewsProvider, sink interfaces.EventSink) *NewsCollector {
	return &NewsCollector{
		Config:    cfg,
		Store:     store,
		Stream:    stream,
		Providers: providers,
		Backfill:  backfill,
		Sink:      sink,
		Logger:    logger.NewLogger("NewsCollector"),
		seen:      make(map[string]struct{}),
	}
}

// -----------------------------------------------------------------------------

func (n *NewsCollector) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.isRunning.Load() {
		return fmt.Errorf("news collector is already running")
	}

	// Persisted items count as seen so a restart never re-publishes them.
	for id := range n.Store.LoadBreakingNews() {
		n.seen[id] = struct{}{}
	}
	for id := range n.Store.LoadGeneralNews() {
		n.seen[id] = struct{}{}
	}
	n.Logger.Info("Seeded %d seen news ids from vault", len(n.seen))

	ctx, cancel := context.WithCancel(context.Background())
	n.ctx = ctx
	n.cancelFunc = cancel
	n.isRunning.Store(true)

	n.wg.Add(2)
	go n.streamLoop(ctx)
	go n.rotationLoop(ctx)
	n.Logger.Info("Started news collector: %d pull providers, interval %ds",
		len(n.Providers), n.Config.Scan.NewsInterval)
	return nil
}

// -----------------------------------------------------------------------------

func (n *NewsCollector) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.isRunning.Load() {
		return fmt.Errorf("news collector is not running")
	}

	n.cancelFunc()
	n.Stream.Close()
	n.wg.Wait()
	n.isRunning.Store(false)
	n.Logger.Info("Stopped news collector")
	return nil
}

// -----------------------------------------------------------------------------

// ForceRefresh runs one-shot fetches from every pull provider plus the
// backfill client, without touching the rotation position. Used by the
// control API.
func (n *NewsCollector) ForceRefresh() error {
	if !n.isRunning.Load() {
		return fmt.Errorf("news collector is not running")
	}
	n.mu.Lock()
	ctx := n.ctx
	n.mu.Unlock()

	sources := make([]interfaces.NewsProvider, 0, len(n.Providers)+1)
	if n.Backfill != nil {
		sources = append(sources, n.Backfill)
	}
	sources = append(sources, n.Providers...)
	if len(sources) == 0 {
		return fmt.Errorf("no pull providers configured")
	}

	n.pullMu.Lock()
	defer n.pullMu.Unlock()

	var items []models.NewsItem
	failed := 0
	for _, src := range sources {
		batch, err := src.Fetch(ctx)
		if err != nil {
			n.Logger.Warning("Forced refresh: provider %s failed: %v", src.Name(), err)
			failed++
			continue
		}
		items = append(items, batch...)
	}
	if failed == len(sources) {
		return fmt.Errorf("forced refresh: all %d providers failed", failed)
	}

	n.ingest(items)
	return nil
}

// -----------------------------------------------------------------------------

// streamLoop drains the push feed, reconnecting on loss with the fixed
// reconnect delay.
func (n *NewsCollector) streamLoop(ctx context.Context) {
	defer n.wg.Done()

	delay := time.Duration(n.Config.Scan.ReconnectDelay) * time.Second
	check := time.NewTicker(5 * time.Second)
	defer check.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case item := <-n.Stream.Items():
			n.ingest([]models.NewsItem{item})
		case <-check.C:
			if time.Since(n.lastConnect) < delay {
				continue
			}
			n.lastConnect = time.Now()
			if err := n.Stream.Connect(ctx); err != nil {
				n.Logger.Warning("News stream reconnect failed: %v", err)
			}
		}
	}
}

// -----------------------------------------------------------------------------

// rotationLoop polls one pull provider per cycle and prunes aged-out items.
func (n *NewsCollector) rotationLoop(ctx context.Context) {
	defer n.wg.Done()

	interval := time.Duration(n.Config.Scan.NewsInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.pullOnce(ctx)
			n.pruneAged()
		}
	}
}

// -----------------------------------------------------------------------------

func (n *NewsCollector) pullOnce(ctx context.Context) {
	if len(n.Providers) == 0 {
		return
	}

	n.pullMu.Lock()
	defer n.pullMu.Unlock()

	provider := n.Providers[n.providerIdx%len(n.Providers)]
	items, err := provider.Fetch(ctx)
	if err != nil || len(items) == 0 {
		if err != nil {
			n.Logger.Warning("Provider %s failed: %v", provider.Name(), err)
		} else {
			n.Logger.Debug("Provider %s returned nothing", provider.Name())
		}
		n.providerIdx = (n.providerIdx + 1) % len(n.Providers)
		n.Logger.Info("Rotating to provider %s", n.Providers[n.providerIdx].Name())
		return
	}

	n.Logger.Debug("Provider %s returned %d items", provider.Name(), len(items))
	n.ingest(items)
}

// -----------------------------------------------------------------------------

// classifyAge places an item into an age class. Both bounds are inclusive:
// an item sitting exactly on a bound stays in the younger class. Items past
// the general bound are dropped.
func classifyAge(item models.NewsItem, now time.Time) (string, bool) {
	switch age := item.AgeHours(now); {
	case age <= breakingMaxAgeHours:
		return models.NewsBreaking, true
	case age <= generalMaxAgeHours:
		return models.NewsGeneral, true
	default:
		return "", false
	}
}

// -----------------------------------------------------------------------------

// ingest filters, classifies, persists, and publishes a batch of items.
func (n *NewsCollector) ingest(items []models.NewsItem) {
	now := time.Now().UTC()

	var breaking, general []models.NewsItem
	for _, item := range items {
		if !n.markSeen(item.ID) {
			continue
		}
		if !n.keywordMatch(item) {
			continue
		}

		category, keep := classifyAge(item, now)
		if !keep {
			continue
		}
		item.Category = category
		if category == models.NewsBreaking {
			breaking = append(breaking, item)
		} else {
			general = append(general, item)
		}
	}

	n.docMu.Lock()
	if len(breaking) > 0 {
		doc := n.Store.LoadBreakingNews()
		for _, item := range breaking {
			doc[item.ID] = item
		}
		if err := n.Store.SaveBreakingNews(doc); err != nil {
			n.Logger.Error("Failed to persist breaking news: %v", err)
		}
	}
	if len(general) > 0 {
		doc := n.Store.LoadGeneralNews()
		for _, item := range general {
			doc[item.ID] = item
		}
		if err := n.Store.SaveGeneralNews(doc); err != nil {
			n.Logger.Error("Failed to persist general news: %v", err)
		}
	}
	n.docMu.Unlock()

	for _, item := range breaking {
		n.Sink.PublishNews(item)
	}
	for _, item := range general {
		n.Sink.PublishNews(item)
	}
}

// -----------------------------------------------------------------------------

// markSeen records the id and reports whether it was new.
func (n *NewsCollector) markSeen(id string) bool {
	n.seenMu.Lock()
	defer n.seenMu.Unlock()
	if _, ok := n.seen[id]; ok {
		return false
	}
	n.seen[id] = struct{}{}
	return true
}

// -----------------------------------------------------------------------------

// keywordMatch applies the exclusion list first, then requires at least one
// match keyword. An empty match list accepts everything not excluded.
func (n *NewsCollector) keywordMatch(item models.NewsItem) bool {
	text := strings.ToLower(item.Headline + " " + item.Summary)

	for _, kw := range n.Config.Feeds.News.ExcludeKeywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return false
		}
	}

	match := n.Config.Feeds.News.MatchKeywords
	if len(match) == 0 {
		return true
	}
	for _, kw := range match {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// pruneAged demotes breaking items past the breaking bound to general and
// drops general items past the general bound.
func (n *NewsCollector) pruneAged() {
	now := time.Now().UTC()

	n.docMu.Lock()
	defer n.docMu.Unlock()

	breaking := n.Store.LoadBreakingNews()
	general := n.Store.LoadGeneralNews()

	breakingDirty, generalDirty := false, false
	for id, item := range breaking {
		if item.AgeHours(now) > breakingMaxAgeHours {
			delete(breaking, id)
			breakingDirty = true
			if item.AgeHours(now) <= generalMaxAgeHours {
				item.Category = models.NewsGeneral
				general[id] = item
				generalDirty = true
			}
		}
	}
	for id, item := range general {
		if item.AgeHours(now) > generalMaxAgeHours {
			delete(general, id)
			generalDirty = true
		}
	}

	if breakingDirty {
		if err := n.Store.SaveBreakingNews(breaking); err != nil {
			n.Logger.Error("Failed to persist breaking news prune: %v", err)
		}
	}
	if generalDirty {
		if err := n.Store.SaveGeneralNews(general); err != nil {
			n.Logger.Error("Failed to persist general news prune: %v", err)
		}
	}
}
