package scanners

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"signalscan/src/interfaces"
	"signalscan/src/logger"
	"signalscan/src/models"
	"signalscan/src/vault"
)

// -----------------------------------------------------------------------------

// Validator is the Tier-2 streaming pass. It keeps the quote/trade stream
// subscribed to the current prefilter set, merges partial ticks into
// per-symbol snapshots, and persists the whole snapshot document on a short
// fixed cadence. Subscriptions are additive; a symbol that drops out of the
// prefilter set stops updating but keeps its last snapshot.
type Validator struct {
	Config *models.Config
	Store  *vault.Store
	Stream interfaces.StreamFeed
	Quotes interfaces.QuoteClient
	Logger *logger.Logger

	snapMu      sync.Mutex
	snapshots   map[string]models.Snapshot
	subscribed  map[string]struct{}
	lastConnect time.Time

	cancelFunc context.CancelFunc
	isRunning  atomic.Bool
	wg         sync.WaitGroup
	mu         sync.Mutex
}

// -----------------------------------------------------------------------------

func NewValidator(cfg *models.Config, store *vault.Store, stream interfaces.StreamFeed, quotes interfaces.QuoteClient) *Validator {
	return &Validator{
		Config:     cfg,
		Store:      store,
		Stream:     stream,
		Quotes:     quotes,
		Logger:     logger.NewLogger("Validator"),
		snapshots:  make(map[string]models.Snapshot),
		subscribed: make(map[string]struct{}),
	}
}

// -----------------------------------------------------------------------------

func (v *Validator) Start() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.isRunning.Load() {
		return fmt.Errorf("validator is already running")
	}

	// Seed from the last persisted state so a restart resumes mid-day.
	v.snapshots = v.Store.LoadValidated()
	v.Logger.Info("Seeded %d snapshots from vault", len(v.snapshots))

	ctx, cancel := context.WithCancel(context.Background())
	v.cancelFunc = cancel
	v.isRunning.Store(true)

	v.wg.Add(2)
	go v.tickLoop(ctx)
	go v.drainLoop(ctx)
	v.Logger.Info("Started validator, interval %ds", v.Config.Scan.ValidatorInterval)
	return nil
}

// -----------------------------------------------------------------------------

func (v *Validator) Stop() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.isRunning.Load() {
		return fmt.Errorf("validator is not running")
	}

	v.cancelFunc()
	v.Stream.Close()
	v.wg.Wait()
	v.isRunning.Store(false)

	// Final persist so no merged tick is lost on shutdown.
	v.persist()
	v.Logger.Info("Stopped validator")
	return nil
}

// -----------------------------------------------------------------------------

// Snapshots returns a copy of the current snapshot map.
func (v *Validator) Snapshots() map[string]models.Snapshot {
	v.snapMu.Lock()
	defer v.snapMu.Unlock()

	out := make(map[string]models.Snapshot, len(v.snapshots))
	for k, s := range v.snapshots {
		out[k] = s
	}
	return out
}

// -----------------------------------------------------------------------------

// drainLoop merges stream events into the snapshot map as they arrive.
func (v *Validator) drainLoop(ctx context.Context) {
	defer v.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-v.Stream.Events():
			v.snapMu.Lock()
			snap := v.snapshots[ev.Symbol]
			ev.ApplyTo(&snap)
			v.snapshots[ev.Symbol] = snap
			v.snapMu.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------

// tickLoop reconciles subscriptions with the prefilter set and persists the
// snapshot document on every tick.
func (v *Validator) tickLoop(ctx context.Context) {
	defer v.wg.Done()

	interval := time.Duration(v.Config.Scan.ValidatorInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.ensureConnected(ctx)
			v.reconcile(ctx)
			v.persist()
		}
	}
}

// -----------------------------------------------------------------------------

// ensureConnected re-establishes the stream after a loss, holding the fixed
// reconnect delay between attempts. The stream replays its own subscription
// set on connect, so no tick is double-subscribed.
func (v *Validator) ensureConnected(ctx context.Context) {
	if v.Stream.Connected() {
		return
	}

	delay := time.Duration(v.Config.Scan.ReconnectDelay) * time.Second
	if time.Since(v.lastConnect) < delay {
		return
	}
	v.lastConnect = time.Now()

	if err := v.Stream.Connect(ctx); err != nil {
		v.Logger.Warning("Stream reconnect failed: %v", err)
	}
}

// -----------------------------------------------------------------------------

// reconcile subscribes any prefilter symbol not yet subscribed and backfills
// its snapshot over REST so the record exists before the first tick.
func (v *Validator) reconcile(ctx context.Context) {
	current := v.Store.LoadPrefilter()

	var fresh []string
	for _, sym := range current {
		if _, ok := v.subscribed[sym]; !ok {
			fresh = append(fresh, sym)
		}
	}
	if len(fresh) == 0 {
		return
	}

	if err := v.Stream.Subscribe(fresh); err != nil {
		v.Logger.Warning("Subscribe failed for %d symbols: %v", len(fresh), err)
		return
	}
	for _, sym := range fresh {
		v.subscribed[sym] = struct{}{}
	}
	v.Logger.Info("Subscribed %d new symbols (%d total)", len(fresh), len(v.subscribed))

	for _, sym := range fresh {
		v.backfill(ctx, sym)
	}
}

// -----------------------------------------------------------------------------

// backfill seeds a fresh symbol's snapshot from the latest REST quote. A
// failed backfill is fine, the next stream tick creates the record anyway.
func (v *Validator) backfill(ctx context.Context, symbol string) {
	v.snapMu.Lock()
	_, exists := v.snapshots[symbol]
	v.snapMu.Unlock()
	if exists {
		return
	}

	ev, err := v.Quotes.LatestQuote(ctx, symbol)
	if err != nil {
		v.Logger.Debug("Backfill failed for %s: %v", symbol, err)
		return
	}

	v.snapMu.Lock()
	if _, exists := v.snapshots[symbol]; !exists {
		var snap models.Snapshot
		ev.ApplyTo(&snap)
		v.snapshots[symbol] = snap
	}
	v.snapMu.Unlock()
}

// -----------------------------------------------------------------------------

func (v *Validator) persist() {
	if err := v.Store.SaveValidated(v.Snapshots()); err != nil {
		v.Logger.Error("Failed to persist snapshots: %v", err)
	}
}
