package scanners

import (
	"testing"

	"signalscan/src/models"
	"signalscan/src/utils"
)

// -----------------------------------------------------------------------------

func TestClassify(t *testing.T) {
	rules := models.DefaultChannelRules()

	tests := []struct {
		name    string
		rec     models.EnrichedRecord
		session utils.Session
		want    models.Channel
	}{
		{
			name:    "pregap match in premarket",
			rec:     models.EnrichedRecord{Price: 5.00, GapPct: 12.0, Rvol: 3.0},
			session: utils.SessionPremarket,
			want:    models.ChannelPregap,
		},
		{
			name:    "pregap gap below threshold",
			rec:     models.EnrichedRecord{Price: 5.00, GapPct: 9.9, Rvol: 3.0},
			session: utils.SessionPremarket,
			want:    models.ChannelNone,
		},
		{
			name:    "pregap rules do not fire in regular hours",
			rec:     models.EnrichedRecord{Price: 5.00, GapPct: 12.0, Rvol: 3.0},
			session: utils.SessionRegular,
			want:    models.ChannelNone,
		},
		{
			name:    "hod match",
			rec:     models.EnrichedRecord{Price: 5.00, GapPct: 12.0, Rvol: 6.0, IsHod: true},
			session: utils.SessionRegular,
			want:    models.ChannelHod,
		},
		{
			name:    "hod requires the high break",
			rec:     models.EnrichedRecord{Price: 5.00, GapPct: 12.0, Rvol: 6.0, IsHod: false},
			session: utils.SessionRegular,
			want:    models.ChannelNone,
		},
		{
			name:    "runup on 5 minute move",
			rec:     models.EnrichedRecord{Price: 5.00, GapPct: 12.0, Rvol: 6.0, Move5Min: 5.5},
			session: utils.SessionRegular,
			want:    models.ChannelRunup,
		},
		{
			name:    "runup on 10 minute move alone",
			rec:     models.EnrichedRecord{Price: 5.00, GapPct: 12.0, Rvol: 6.0, Move10Min: 11.0},
			session: utils.SessionRegular,
			want:    models.ChannelRunup,
		},
		{
			name:    "runup outranks hod when both match",
			rec:     models.EnrichedRecord{Price: 5.00, GapPct: 12.0, Rvol: 6.0, IsHod: true, Move5Min: 6.0},
			session: utils.SessionRegular,
			want:    models.ChannelRunup,
		},
		{
			name:    "reversal on negative gap",
			rec:     models.EnrichedRecord{Price: 5.00, GapPct: -9.0, Rvol: 9.0},
			session: utils.SessionRegular,
			want:    models.ChannelReversal,
		},
		{
			name:    "reversal rvol below threshold",
			rec:     models.EnrichedRecord{Price: 5.00, GapPct: -9.0, Rvol: 7.9},
			session: utils.SessionRegular,
			want:    models.ChannelNone,
		},
		{
			name:    "price above band matches nothing",
			rec:     models.EnrichedRecord{Price: 16.00, GapPct: 12.0, Rvol: 9.0, IsHod: true, Move5Min: 6.0},
			session: utils.SessionRegular,
			want:    models.ChannelNone,
		},
		{
			name:    "closed session matches nothing",
			rec:     models.EnrichedRecord{Price: 5.00, GapPct: 12.0, Rvol: 9.0, IsHod: true},
			session: utils.SessionClosed,
			want:    models.ChannelNone,
		},
		{
			name:    "after hours matches nothing",
			rec:     models.EnrichedRecord{Price: 5.00, GapPct: 12.0, Rvol: 9.0, IsHod: true},
			session: utils.SessionAfterHours,
			want:    models.ChannelNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.rec, tt.session, rules)
			if got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------

func TestClassifyBoundaries(t *testing.T) {
	rules := models.DefaultChannelRules()

	// Thresholds are inclusive: a record sitting exactly on every bound
	// still fires.
	rec := models.EnrichedRecord{Price: 15.00, GapPct: 10.0, Rvol: 2.0}
	if got := Classify(rec, utils.SessionPremarket, rules); got != models.ChannelPregap {
		t.Errorf("exact pregap bounds = %q, want %q", got, models.ChannelPregap)
	}

	rec = models.EnrichedRecord{Price: 1.00, GapPct: 8.0, Rvol: 8.0}
	if got := Classify(rec, utils.SessionRegular, rules); got != models.ChannelReversal {
		t.Errorf("exact reversal bounds = %q, want %q", got, models.ChannelReversal)
	}
}
