package analysis

import (
	"testing"
	"time"

	"signalscan/src/models"
)

// -----------------------------------------------------------------------------

func TestEffectivePrice(t *testing.T) {
	tests := []struct {
		name string
		snap models.Snapshot
		want float64
	}{
		{"trade price wins", models.Snapshot{Price: 5.0, Bid: 4.0, Ask: 6.0}, 5.0},
		{"mid before first trade", models.Snapshot{Bid: 4.0, Ask: 6.0}, 5.0},
		{"one-sided book yields zero", models.Snapshot{Bid: 4.0}, 0},
		{"empty snapshot yields zero", models.Snapshot{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectivePrice(tt.snap); got != tt.want {
				t.Errorf("EffectivePrice(%+v) = %v, want %v", tt.snap, got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------

func TestGapPct(t *testing.T) {
	tests := []struct {
		name      string
		price     float64
		prevClose float64
		want      float64
	}{
		{"gap up", 11.0, 10.0, 10.0},
		{"gap down", 9.0, 10.0, -10.0},
		{"unknown prev close", 11.0, 0, 0},
		{"negative prev close", 11.0, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GapPct(tt.price, tt.prevClose); got != tt.want {
				t.Errorf("GapPct(%v, %v) = %v, want %v", tt.price, tt.prevClose, got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------

func TestRvol(t *testing.T) {
	tests := []struct {
		name       string
		volume     float64
		avgVolume  float64
		defaultAvg float64
		want       float64
	}{
		{"known baseline", 2_000_000, 1_000_000, 500_000, 2.0},
		{"fallback baseline", 2_000_000, 0, 1_000_000, 2.0},
		{"no baseline at all", 2_000_000, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rvol(tt.volume, tt.avgVolume, tt.defaultAvg); got != tt.want {
				t.Errorf("Rvol(%v, %v, %v) = %v, want %v", tt.volume, tt.avgVolume, tt.defaultAvg, got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------

func TestPriceWindowPrunes(t *testing.T) {
	w := NewPriceWindow(15 * time.Minute)
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 20; i++ {
		w.Add(start.Add(time.Duration(i)*time.Minute), 10.0+float64(i))
	}

	// 20 minutes of samples in a 15 minute window: the oldest fell off.
	if w.Len() >= 20 {
		t.Errorf("window holds %d samples, expected pruning", w.Len())
	}
	if _, ok := w.PriceAgo(start.Add(19*time.Minute), 16*time.Minute); ok {
		t.Error("sample older than the span is still reachable")
	}
}

// -----------------------------------------------------------------------------

func TestPriceWindowMovePct(t *testing.T) {
	w := NewPriceWindow(15 * time.Minute)
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	w.Add(start, 10.0)
	w.Add(start.Add(3*time.Minute), 10.2)

	now := start.Add(6 * time.Minute)

	// The 5 minute base is the most recent sample at least 5 minutes old,
	// which is the first one.
	if got, want := w.MovePct(now, 5*time.Minute, 11.0), 10.0; got != want {
		t.Errorf("MovePct(5m) = %v, want %v", got, want)
	}
	// No sample is 10 minutes old yet.
	if got := w.MovePct(now, 10*time.Minute, 11.0); got != 0 {
		t.Errorf("MovePct(10m) = %v, want 0", got)
	}
}
