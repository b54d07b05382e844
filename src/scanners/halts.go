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

// HaltCollector polls the exchange halt feed and maintains two documents:
// active halts keyed by symbol, and a history of completed episodes keyed by
// HistoryID. A HALTED notice opens or refreshes an episode; a RESUMED notice
// closes it and files it under history. A RESUMED for a symbol with no open
// episode leaves the active document alone but is still filed historically.
type HaltCollector struct {
	Config *models.Config
	Store  *vault.Store
	Feed   interfaces.HaltFeed
	Sink   interfaces.EventSink
	Logger *logger.Logger

	cancelFunc context.CancelFunc
	isRunning  atomic.Bool
	wg         sync.WaitGroup
	mu         sync.Mutex
}

// -----------------------------------------------------------------------------

func NewHaltCollector(cfg *models.Config, store *vault.Store, feed interfaces.HaltFeed, sink interfaces.EventSink) *HaltCollector {
	return &HaltCollector{
		Config: cfg,
		Store:  store,
		Feed:   feed,
		Sink:   sink,
		Logger: logger.NewLogger("HaltCollector"),
	}
}

// -----------------------------------------------------------------------------

func (h *HaltCollector) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.isRunning.Load() {
		return fmt.Errorf("halt collector is already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancelFunc = cancel
	h.isRunning.Store(true)

	h.wg.Add(1)
	go h.runLoop(ctx)
	h.Logger.Info("Started halt collector, interval %ds", h.Config.Scan.HaltInterval)
	return nil
}

// -----------------------------------------------------------------------------

func (h *HaltCollector) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.isRunning.Load() {
		return fmt.Errorf("halt collector is not running")
	}

	h.cancelFunc()
	h.wg.Wait()
	h.isRunning.Store(false)
	h.Logger.Info("Stopped halt collector")
	return nil
}

// -----------------------------------------------------------------------------

func (h *HaltCollector) runLoop(ctx context.Context) {
	defer h.wg.Done()

	h.pollOnce(ctx)

	interval := time.Duration(h.Config.Scan.HaltInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.pollOnce(ctx)
		}
	}
}

// -----------------------------------------------------------------------------

// pollOnce fetches the current notices and folds them into the documents.
// A failed fetch skips the cycle; both documents keep their previous state.
func (h *HaltCollector) pollOnce(ctx context.Context) {
	notices, err := h.Feed.Fetch(ctx)
	if err != nil {
		h.Logger.Warning("Halt feed fetch failed, skipping cycle: %v", err)
		return
	}

	active := h.Store.LoadActiveHalts()
	history := h.Store.LoadHaltHistory()

	var transitions []models.HaltRecord
	activeDirty, historyDirty := false, false

	for _, notice := range notices {
		switch notice.Status {
		case models.HaltStatusHalted:
			existing, open := active[notice.Symbol]
			if open {
				// Same episode, refresh metadata only.
				existing.Reason = notice.Reason
				existing.LastUpdate = notice.LastUpdate
				active[notice.Symbol] = existing
				activeDirty = true
				continue
			}
			active[notice.Symbol] = notice
			activeDirty = true
			transitions = append(transitions, notice)
			h.Logger.Info("Halt opened: %s (%s)", notice.Symbol, notice.Reason)

		case models.HaltStatusResumed:
			if existing, open := active[notice.Symbol]; open {
				existing.Status = models.HaltStatusResumed
				existing.ResumeTime = notice.ResumeTime
				existing.LastUpdate = notice.LastUpdate
				delete(active, notice.Symbol)
				activeDirty = true

				if _, dup := history[existing.HistoryID()]; !dup {
					history[existing.HistoryID()] = existing
					historyDirty = true
					transitions = append(transitions, existing)
					h.Logger.Info("Halt resumed: %s after %s", notice.Symbol,
						resumeDuration(existing))
				}
				continue
			}

			// No open episode. Active state is untouched, but the resume is
			// still filed so the day's record stays complete.
			if _, dup := history[notice.HistoryID()]; !dup {
				history[notice.HistoryID()] = notice
				historyDirty = true
				h.Logger.Debug("Resume without open halt filed: %s", notice.Symbol)
			}
		}
	}

	if activeDirty {
		if err := h.Store.SaveActiveHalts(active); err != nil {
			h.Logger.Error("Failed to persist active halts: %v", err)
		}
	}
	if historyDirty {
		if err := h.Store.SaveHaltHistory(history); err != nil {
			h.Logger.Error("Failed to persist halt history: %v", err)
		}
	}

	for _, rec := range transitions {
		h.Sink.PublishHalt(rec)
	}
}

// -----------------------------------------------------------------------------

func resumeDuration(rec models.HaltRecord) time.Duration {
	if rec.ResumeTime == nil {
		return 0
	}
	return rec.ResumeTime.Sub(rec.HaltTime).Round(time.Second)
}
