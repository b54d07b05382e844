package analysis

import "time"

// -----------------------------------------------------------------------------

type pricePoint struct {
	At    time.Time
	Price float64
}

// PriceWindow is a time-bounded series of price samples for one symbol.
// Samples older than the retention span are pruned on every append, so the
// window holds at most span worth of history.
type PriceWindow struct {
	span    time.Duration
	samples []pricePoint
}

// -----------------------------------------------------------------------------

func NewPriceWindow(span time.Duration) *PriceWindow {
	return &PriceWindow{span: span}
}

// -----------------------------------------------------------------------------

// Add appends a sample and prunes entries older than the retention span.
func (w *PriceWindow) Add(at time.Time, price float64) {
	w.samples = append(w.samples, pricePoint{At: at, Price: price})

	cutoff := at.Add(-w.span)
	drop := 0
	for drop < len(w.samples) && w.samples[drop].At.Before(cutoff) {
		drop++
	}
	if drop > 0 {
		w.samples = append(w.samples[:0], w.samples[drop:]...)
	}
}

// -----------------------------------------------------------------------------

// PriceAgo returns the most recent sample at least age old, relative to now.
// The second return is false if no sample is old enough.
func (w *PriceWindow) PriceAgo(now time.Time, age time.Duration) (float64, bool) {
	cutoff := now.Add(-age)
	for i := len(w.samples) - 1; i >= 0; i-- {
		if !w.samples[i].At.After(cutoff) {
			return w.samples[i].Price, true
		}
	}
	return 0, false
}

// -----------------------------------------------------------------------------

// MovePct returns the percent move from the most recent sample at least age
// old to the current price, or 0 when the window has no such sample.
func (w *PriceWindow) MovePct(now time.Time, age time.Duration, price float64) float64 {
	base, ok := w.PriceAgo(now, age)
	if !ok || base <= 0 {
		return 0
	}
	return (price - base) / base * 100
}

// -----------------------------------------------------------------------------

func (w *PriceWindow) Len() int {
	return len(w.samples)
}
