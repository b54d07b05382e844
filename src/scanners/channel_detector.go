package scanners

import (
	"math"

	"signalscan/src/models"
	"signalscan/src/utils"
)

// -----------------------------------------------------------------------------

// Classify maps one enriched record to its channel for the given session
// phase. The function is pure and total: any record gets exactly one answer,
// ChannelNone meaning no channel fits. When several channels match, priority
// is pregap, runup, hod, reversal.
func Classify(rec models.EnrichedRecord, session utils.Session, rules models.ChannelRules) models.Channel {
	switch session {
	case utils.SessionPremarket:
		if matchPregap(rec, rules.Pregap) {
			return models.ChannelPregap
		}
	case utils.SessionRegular:
		if matchRunup(rec, rules.Runup) {
			return models.ChannelRunup
		}
		if matchHod(rec, rules.Hod) {
			return models.ChannelHod
		}
		if matchReversal(rec, rules.Reversal) {
			return models.ChannelReversal
		}
	}
	return models.ChannelNone
}

// -----------------------------------------------------------------------------

func matchPregap(rec models.EnrichedRecord, r models.PregapRules) bool {
	return rec.Price >= r.PriceMin &&
		rec.Price <= r.PriceMax &&
		rec.GapPct >= r.GapPctMin &&
		rec.Rvol >= r.RvolMin
}

// -----------------------------------------------------------------------------

func matchHod(rec models.EnrichedRecord, r models.HodRules) bool {
	return rec.IsHod &&
		rec.Price >= r.PriceMin &&
		rec.Price <= r.PriceMax &&
		rec.Rvol >= r.RvolMin &&
		rec.GapPct >= r.GapPctMin
}

// -----------------------------------------------------------------------------

func matchRunup(rec models.EnrichedRecord, r models.RunupRules) bool {
	if rec.Price < r.PriceMin || rec.Price > r.PriceMax {
		return false
	}
	if rec.Rvol < r.RvolMin || rec.GapPct < r.GapPctMin {
		return false
	}
	return rec.Move5Min >= r.Move5MinPct || rec.Move10Min >= r.Move10Min
}

// -----------------------------------------------------------------------------

func matchReversal(rec models.EnrichedRecord, r models.ReversalRules) bool {
	return math.Abs(rec.GapPct) >= r.GapPctMin &&
		rec.Rvol >= r.RvolMin &&
		rec.Price <= r.PriceMax &&
		rec.Price > 0
}
