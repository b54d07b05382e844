package scanners

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"signalscan/src/analysis"
	"signalscan/src/interfaces"
	"signalscan/src/logger"
	"signalscan/src/models"
	"signalscan/src/utils"
	"signalscan/src/vault"
)

// -----------------------------------------------------------------------------

// symbolState is the rolling per-symbol context the categorizer accumulates
// across ticks: daily reference values plus the recent price window the
// momentum figures are derived from.
type symbolState struct {
	PrevClose float64
	AvgVolume float64
	DayHigh   float64
	Window    *analysis.PriceWindow
	Snapshot  models.Snapshot
}

// -----------------------------------------------------------------------------

// Categorizer is the Tier-3 live pass. It subscribes the live stream to the
// union of validated, halted, and breaking-news symbols, enriches each tick
// against its rolling state, classifies the result into a channel, and
// publishes categorized events to the sink.
type Categorizer struct {
	Config   *models.Config
	Store    *vault.Store
	Stream   interfaces.StreamFeed
	Universe interfaces.UniverseSource
	Sessions *utils.MarketSessions
	Sink     interfaces.EventSink
	Logger   *logger.Logger

	stateMu sync.Mutex
	state   map[string]*symbolState
	members map[models.Channel]map[string]struct{}
	records map[string]models.EnrichedRecord

	breakingMu sync.Mutex
	breaking   map[string]models.NewsItem // keyed by symbol

	subscribed  map[string]struct{}
	lastConnect time.Time

	cancelFunc context.CancelFunc
	isRunning  atomic.Bool
	wg         sync.WaitGroup
	mu         sync.Mutex
}

// -----------------------------------------------------------------------------

func NewCategorizer(cfg *models.Config, store *vault.Store, stream interfaces.StreamFeed,
	universe interfaces.UniverseSource, sessions *utils.MarketSessions, sink interfaces.EventSink) *Categorizer {
	return &Categorizer{
		Config:   cfg,
		Store:    store,
		Stream:   stream,
		Universe: universe,
		Sessions: sessions,
		Sink:     sink,
		Logger:   logger.NewLogger("Categorizer"),
		state:    make(map[string]*symbolState),
		members: map[models.Channel]map[string]struct{}{
			models.ChannelPregap:   {},
			models.ChannelHod:      {},
			models.ChannelRunup:    {},
			models.ChannelReversal: {},
		},
		records:    make(map[string]models.EnrichedRecord),
		breaking:   make(map[string]models.NewsItem),
		subscribed: make(map[string]struct{}),
	}
}

// -----------------------------------------------------------------------------

func (c *Categorizer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning.Load() {
		return fmt.Errorf("categorizer is already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelFunc = cancel
	c.isRunning.Store(true)

	c.wg.Add(2)
	go c.resubLoop(ctx)
	go c.drainLoop(ctx)
	c.Logger.Info("Started categorizer, resub interval %ds", c.Config.Scan.CategorizerResub)
	return nil
}

// -----------------------------------------------------------------------------

func (c *Categorizer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isRunning.Load() {
		return fmt.Errorf("categorizer is not running")
	}

	c.cancelFunc()
	c.Stream.Close()
	c.wg.Wait()
	c.isRunning.Store(false)
	c.Logger.Info("Stopped categorizer")
	return nil
}

// -----------------------------------------------------------------------------

// Memberships returns the current channel membership lists, sorted.
func (c *Categorizer) Memberships() map[models.Channel][]string {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	out := make(map[models.Channel][]string, len(c.members))
	for ch, set := range c.members {
		symbols := make([]string, 0, len(set))
		for sym := range set {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)
		out[ch] = symbols
	}
	return out
}

// -----------------------------------------------------------------------------

// Records returns a copy of the latest enriched record per symbol.
func (c *Categorizer) Records() map[string]models.EnrichedRecord {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	out := make(map[string]models.EnrichedRecord, len(c.records))
	for k, v := range c.records {
		out[k] = v
	}
	return out
}

// -----------------------------------------------------------------------------

// resubLoop reconciles the live subscription with the union of interesting
// symbols and refreshes the breaking-news cache on every tick.
func (c *Categorizer) resubLoop(ctx context.Context) {
	defer c.wg.Done()

	interval := time.Duration(c.Config.Scan.CategorizerResub) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.ensureConnected(ctx)
			c.refreshBreaking()
			c.reconcile(ctx)
		}
	}
}

// -----------------------------------------------------------------------------

func (c *Categorizer) ensureConnected(ctx context.Context) {
	if c.Stream.Connected() {
		return
	}

	delay := time.Duration(c.Config.Scan.ReconnectDelay) * time.Second
	if time.Since(c.lastConnect) < delay {
		return
	}
	c.lastConnect = time.Now()

	if err := c.Stream.Connect(ctx); err != nil {
		c.Logger.Warning("Stream reconnect failed: %v", err)
	}
}

// -----------------------------------------------------------------------------

// refreshBreaking re-reads the breaking-news document and indexes it by
// symbol, keeping the freshest item per symbol.
func (c *Categorizer) refreshBreaking() {
	items := c.Store.LoadBreakingNews()

	bySymbol := make(map[string]models.NewsItem)
	for _, item := range items {
		if item.Symbol == "" {
			continue
		}
		if prev, ok := bySymbol[item.Symbol]; !ok || item.Timestamp.After(prev.Timestamp) {
			bySymbol[item.Symbol] = item
		}
	}

	c.breakingMu.Lock()
	c.breaking = bySymbol
	c.breakingMu.Unlock()
}

// -----------------------------------------------------------------------------

// targetSymbols is the union of validated symbols, actively halted symbols,
// and symbols with live breaking news.
func (c *Categorizer) targetSymbols() []string {
	set := make(map[string]struct{})
	for sym := range c.Store.LoadValidated() {
		set[sym] = struct{}{}
	}
	for sym := range c.Store.LoadActiveHalts() {
		set[sym] = struct{}{}
	}
	c.breakingMu.Lock()
	for sym := range c.breaking {
		set[sym] = struct{}{}
	}
	c.breakingMu.Unlock()

	symbols := make([]string, 0, len(set))
	for sym := range set {
		symbols = append(symbols, sym)
	}
	return utils.FilterSymbols(symbols)
}

// -----------------------------------------------------------------------------

// reconcile subscribes fresh target symbols and seeds their average-volume
// baselines with one coarse batch fetch.
func (c *Categorizer) reconcile(ctx context.Context) {
	var fresh []string
	for _, sym := range c.targetSymbols() {
		if _, ok := c.subscribed[sym]; !ok {
			fresh = append(fresh, sym)
		}
	}
	if len(fresh) == 0 {
		return
	}

	if err := c.Stream.Subscribe(fresh); err != nil {
		c.Logger.Warning("Subscribe failed for %d symbols: %v", len(fresh), err)
		return
	}
	for _, sym := range fresh {
		c.subscribed[sym] = struct{}{}
	}
	c.Logger.Info("Watching %d new symbols (%d total)", len(fresh), len(c.subscribed))

	c.seedBaselines(ctx, fresh)
}

// -----------------------------------------------------------------------------

func (c *Categorizer) seedBaselines(ctx context.Context, symbols []string) {
	quotes, err := c.Universe.FetchUniverse(ctx, symbols)
	if err != nil {
		c.Logger.Debug("Baseline seed fetch failed: %v", err)
		return
	}

	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	for _, q := range quotes {
		st := c.stateLocked(q.Symbol)
		if st.AvgVolume <= 0 {
			st.AvgVolume = q.AvgVolume
		}
	}
}

// -----------------------------------------------------------------------------

// stateLocked returns the rolling state for a symbol, creating it on first
// sight. Caller holds stateMu.
func (c *Categorizer) stateLocked(symbol string) *symbolState {
	st, ok := c.state[symbol]
	if !ok {
		span := time.Duration(c.Config.Scan.PriceWindowMinutes) * time.Minute
		st = &symbolState{Window: analysis.NewPriceWindow(span)}
		c.state[symbol] = st
	}
	return st
}

// -----------------------------------------------------------------------------

func (c *Categorizer) drainLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.Stream.Events():
			c.handleEvent(ev)
		}
	}
}

// -----------------------------------------------------------------------------

// handleEvent folds one tick into the rolling state, derives the enriched
// record, classifies it, and publishes the result.
func (c *Categorizer) handleEvent(ev models.StreamEvent) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	st := c.stateLocked(ev.Symbol)

	if ev.Type == models.EventSummary {
		if ev.PrevClose > 0 {
			st.PrevClose = ev.PrevClose
		}
		if ev.DayHigh > st.DayHigh {
			st.DayHigh = ev.DayHigh
		}
		return
	}

	ev.ApplyTo(&st.Snapshot)

	price := analysis.EffectivePrice(st.Snapshot)
	if price <= 0 {
		return
	}

	now := ev.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	// High-of-day fires only on a strict break of the prior high.
	isHod := st.DayHigh > 0 && price > st.DayHigh
	if price > st.DayHigh {
		st.DayHigh = price
	}

	move5 := st.Window.MovePct(now, 5*time.Minute, price)
	move10 := st.Window.MovePct(now, 10*time.Minute, price)
	st.Window.Add(now, price)

	rec := models.EnrichedRecord{
		Symbol:    ev.Symbol,
		Price:     price,
		Bid:       st.Snapshot.Bid,
		Ask:       st.Snapshot.Ask,
		Volume:    st.Snapshot.Volume,
		PrevClose: st.PrevClose,
		GapPct:    analysis.GapPct(price, st.PrevClose),
		DayHigh:   st.DayHigh,
		IsHod:     isHod,
		Rvol:      analysis.Rvol(st.Snapshot.Volume, st.AvgVolume, c.Config.Scan.DefaultAvgVolume),
		Move5Min:  move5,
		Move10Min: move10,
		Timestamp: now,
	}

	c.breakingMu.Lock()
	if item, ok := c.breaking[ev.Symbol]; ok {
		rec.BreakingNews = true
		rec.NewsAgeHours = item.AgeHours(now)
	}
	c.breakingMu.Unlock()

	session := c.Sessions.At(now)
	channel := Classify(rec, session, c.Config.Rules)

	changed := c.updateMembership(ev.Symbol, channel)
	c.records[ev.Symbol] = rec

	if channel != models.ChannelNone || changed {
		c.Sink.PublishStock(models.StockEvent{Channel: channel, Record: rec})
	}
}

// -----------------------------------------------------------------------------

// updateMembership moves the symbol into its channel set and out of every
// other. Returns true when any set changed, so channel exits still reach
// the sink.
func (c *Categorizer) updateMembership(symbol string, channel models.Channel) bool {
	changed := false
	for ch, set := range c.members {
		_, in := set[symbol]
		if ch == channel && !in {
			set[symbol] = struct{}{}
			changed = true
		}
		if ch != channel && in {
			delete(set, symbol)
			changed = true
		}
	}
	return changed
}
