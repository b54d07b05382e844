package scanners

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"signalscan/src/feeds"
	"signalscan/src/interfaces"
	"signalscan/src/logger"
	"signalscan/src/models"
	"signalscan/src/vault"
)

// -----------------------------------------------------------------------------

// Prefilter is the Tier-1 coarse pass. On a slow cadence it pulls coarse
// quotes for the whole registry universe, keeps the symbols inside the
// volume and price bounds, and overwrites the prefilter document with the
// surviving set. Downstream tiers only ever see survivors.
type Prefilter struct {
	Config *models.Config
	Store  *vault.Store
	Source interfaces.UniverseSource
	Logger *logger.Logger

	cancelFunc context.CancelFunc
	ctx        context.Context
	isRunning  atomic.Bool
	wg         sync.WaitGroup
	mu         sync.Mutex

	// scanMu serializes scheduled passes with forced ones.
	scanMu sync.Mutex
}

// -----------------------------------------------------------------------------

func NewPrefilter(cfg *models.Config, store *vault.Store, source interfaces.UniverseSource) *Prefilter {
	return &Prefilter{
		Config: cfg,
		Store:  store,
		Source: source,
		Logger: logger.NewLogger("Prefilter"),
	}
}

// -----------------------------------------------------------------------------

func (p *Prefilter) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning.Load() {
		return fmt.Errorf("prefilter is already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.ctx = ctx
	p.cancelFunc = cancel
	p.isRunning.Store(true)

	p.wg.Add(1)
	go p.runLoop(ctx)
	p.Logger.Info("Started prefilter, interval %ds", p.Config.Scan.PrefilterInterval)
	return nil
}

// -----------------------------------------------------------------------------

func (p *Prefilter) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning.Load() {
		return fmt.Errorf("prefilter is not running")
	}

	p.cancelFunc()
	p.wg.Wait()
	p.isRunning.Store(false)
	p.Logger.Info("Stopped prefilter")
	return nil
}

// -----------------------------------------------------------------------------

func (p *Prefilter) runLoop(ctx context.Context) {
	defer p.wg.Done()

	// One pass right away so a fresh start is not blind for a whole interval.
	p.scanOnce(ctx)

	interval := time.Duration(p.Config.Scan.PrefilterInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.scanOnce(ctx)
		}
	}
}

// -----------------------------------------------------------------------------

// ForceScan runs one pass outside the schedule. Used by the control API.
func (p *Prefilter) ForceScan() error {
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()

	if !p.isRunning.Load() || ctx == nil {
		return fmt.Errorf("prefilter is not running")
	}
	p.scanOnce(ctx)
	return nil
}

// -----------------------------------------------------------------------------

// scanOnce re-reads the registry, fetches the universe, and replaces the
// prefilter set. A registry or universe failure aborts the pass and leaves
// the previous set untouched. Only one pass runs at a time.
func (p *Prefilter) scanOnce(ctx context.Context) {
	p.scanMu.Lock()
	defer p.scanMu.Unlock()

	started := time.Now()

	universe, err := feeds.LoadRegistry(p.Config.Scan.RegistryPath)
	if err != nil {
		p.Logger.Warning("Registry load failed, skipping pass: %v", err)
		return
	}

	quotes, err := p.Source.FetchUniverse(ctx, universe)
	if err != nil {
		p.Logger.Warning("Universe fetch failed, keeping previous set: %v", err)
		return
	}

	survivors := p.filter(quotes)
	if err := p.Store.SavePrefilter(survivors); err != nil {
		p.Logger.Error("Failed to save prefilter set: %v", err)
		return
	}

	p.Logger.Info("Prefilter pass: %d/%d survivors in %s",
		len(survivors), len(quotes), time.Since(started).Round(time.Millisecond))
}

// -----------------------------------------------------------------------------

// filter applies the coarse bounds. All comparisons are strict: a symbol
// sitting exactly on a bound does not survive.
func (p *Prefilter) filter(quotes []models.UniverseQuote) []string {
	cfg := p.Config.Scan
	survivors := make([]string, 0, len(quotes))
	for _, q := range quotes {
		if q.AvgVolume > cfg.MinVolume && q.Price > cfg.MinPrice && q.Price < cfg.MaxPrice {
			survivors = append(survivors, q.Symbol)
		}
	}
	return survivors
}
