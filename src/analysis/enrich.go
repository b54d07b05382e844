// Package analysis holds the pure derivation math the Tier-3 categorizer
// applies to validated snapshots: effective price, gap percentage, relative
// volume, and windowed momentum.
package analysis

import "signalscan/src/models"

// -----------------------------------------------------------------------------

// EffectivePrice is the last trade price, or the bid/ask mid before the
// first trade of the day arrives. Zero when neither side is known.
func EffectivePrice(s models.Snapshot) float64 {
	if s.Price > 0 {
		return s.Price
	}
	if s.Bid > 0 && s.Ask > 0 {
		return (s.Bid + s.Ask) / 2
	}
	return 0
}

// -----------------------------------------------------------------------------

// GapPct is the percent gap of price over the previous close. Zero when the
// previous close is unknown or non-positive.
func GapPct(price, prevClose float64) float64 {
	if prevClose <= 0 {
		return 0
	}
	return (price - prevClose) / prevClose * 100
}

// -----------------------------------------------------------------------------

// Rvol is tick volume over baseline average volume. When the per-symbol
// average is unknown the configured default baseline is used; a zero
// default yields 0 rather than dividing by zero.
func Rvol(volume, avgVolume, defaultAvg float64) float64 {
	base := avgVolume
	if base <= 0 {
		base = defaultAvg
	}
	if base <= 0 {
		return 0
	}
	return volume / base
}
