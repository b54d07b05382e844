package scanners

import (
	"testing"
	"time"

	"signalscan/src/logger"
	"signalscan/src/models"
	"signalscan/src/utils"
)

// -----------------------------------------------------------------------------

func newTestCategorizer(t *testing.T) (*Categorizer, *fakeSink) {
	t.Helper()
	sink := &fakeSink{}
	c := &Categorizer{
		Config:   testConfig(),
		Store:    newTestStore(t),
		Stream:   newFakeStream(),
		Sessions: utils.NewMarketSessions(),
		Sink:     sink,
		Logger:   logger.NewLogger("test"),
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
	return c, sink
}

// regularHoursInstant is a known NYSE regular-hours moment: Monday
// 2026-03-02, 10:30 ET.
func regularHoursInstant() time.Time {
	loc, _ := time.LoadLocation("America/New_York")
	return time.Date(2026, 3, 2, 10, 30, 0, 0, loc)
}

// -----------------------------------------------------------------------------

func TestCategorizerGapAndRvol(t *testing.T) {
	c, _ := newTestCategorizer(t)
	now := regularHoursInstant()

	c.handleEvent(models.StreamEvent{Type: models.EventSummary, Symbol: "AAA", PrevClose: 10.0, DayHigh: 12.0, Timestamp: now})
	c.handleEvent(models.StreamEvent{Type: models.EventTrade, Symbol: "AAA", Price: 11.0, Volume: 2_000_000, Timestamp: now})

	rec, ok := c.Records()["AAA"]
	if !ok {
		t.Fatal("no record after trade event")
	}
	if got, want := rec.GapPct, 10.0; got != want {
		t.Errorf("GapPct = %v, want %v", got, want)
	}
	// No per-symbol baseline seeded, so rvol falls back to the default.
	if got, want := rec.Rvol, 2.0; got != want {
		t.Errorf("Rvol = %v, want %v", got, want)
	}
}

// -----------------------------------------------------------------------------

func TestCategorizerDayHighMonotonic(t *testing.T) {
	c, _ := newTestCategorizer(t)
	now := regularHoursInstant()

	c.handleEvent(models.StreamEvent{Type: models.EventSummary, Symbol: "AAA", PrevClose: 10.0, DayHigh: 11.0, Timestamp: now})

	steps := []struct {
		price   float64
		isHod   bool
		dayHigh float64
	}{
		{10.5, false, 11.0}, // below the high
		{11.5, true, 11.5},  // strict break
		{11.5, false, 11.5}, // equal to the high is not a break
		{12.0, true, 12.0},
		{11.0, false, 12.0}, // pullback never lowers the high
	}

	for i, step := range steps {
		c.handleEvent(models.StreamEvent{Type: models.EventTrade, Symbol: "AAA",
			Price: step.price, Volume: 1000, Timestamp: now.Add(time.Duration(i) * time.Second)})
		rec := c.Records()["AAA"]
		if rec.IsHod != step.isHod {
			t.Errorf("step %d: IsHod = %v, want %v", i, rec.IsHod, step.isHod)
		}
		if rec.DayHigh != step.dayHigh {
			t.Errorf("step %d: DayHigh = %v, want %v", i, rec.DayHigh, step.dayHigh)
		}
	}
}

// -----------------------------------------------------------------------------

func TestCategorizerMomentum(t *testing.T) {
	c, _ := newTestCategorizer(t)
	start := regularHoursInstant()

	c.handleEvent(models.StreamEvent{Type: models.EventTrade, Symbol: "AAA", Price: 10.0, Volume: 100, Timestamp: start})
	c.handleEvent(models.StreamEvent{Type: models.EventTrade, Symbol: "AAA", Price: 10.5, Volume: 100, Timestamp: start.Add(6 * time.Minute)})

	rec := c.Records()["AAA"]
	if got, want := rec.Move5Min, 5.0; got != want {
		t.Errorf("Move5Min = %v, want %v", got, want)
	}
	// Nothing in the window is 10 minutes old yet.
	if rec.Move10Min != 0 {
		t.Errorf("Move10Min = %v, want 0", rec.Move10Min)
	}

	c.handleEvent(models.StreamEvent{Type: models.EventTrade, Symbol: "AAA", Price: 11.0, Volume: 100, Timestamp: start.Add(11 * time.Minute)})
	rec = c.Records()["AAA"]
	if got, want := rec.Move10Min, 10.0; got != want {
		t.Errorf("Move10Min = %v, want %v", got, want)
	}
}

// -----------------------------------------------------------------------------

func TestCategorizerBreakingNewsFlag(t *testing.T) {
	c, _ := newTestCategorizer(t)
	now := regularHoursInstant()

	item := models.NewsItem{ID: "n1", Symbol: "AAA", Headline: "FDA approval",
		Category: models.NewsBreaking, Timestamp: now.Add(-time.Hour)}
	c.Store.SaveBreakingNews(map[string]models.NewsItem{item.ID: item})
	c.refreshBreaking()

	c.handleEvent(models.StreamEvent{Type: models.EventTrade, Symbol: "AAA", Price: 5.0, Volume: 100, Timestamp: now})
	rec := c.Records()["AAA"]
	if !rec.BreakingNews {
		t.Error("BreakingNews flag not set")
	}
	if rec.NewsAgeHours < 0.9 || rec.NewsAgeHours > 1.1 {
		t.Errorf("NewsAgeHours = %v, want about 1", rec.NewsAgeHours)
	}

	c.handleEvent(models.StreamEvent{Type: models.EventTrade, Symbol: "BBB", Price: 5.0, Volume: 100, Timestamp: now})
	if c.Records()["BBB"].BreakingNews {
		t.Error("BreakingNews flag leaked to a symbol without news")
	}
}

// -----------------------------------------------------------------------------

func TestCategorizerMembershipTransitions(t *testing.T) {
	c, sink := newTestCategorizer(t)
	now := regularHoursInstant()

	// Deep gap, huge rvol, low price: reversal territory.
	c.handleEvent(models.StreamEvent{Type: models.EventSummary, Symbol: "AAA", PrevClose: 10.0, Timestamp: now})
	c.handleEvent(models.StreamEvent{Type: models.EventTrade, Symbol: "AAA", Price: 9.0, Volume: 10_000_000, Timestamp: now})

	members := c.Memberships()
	if got := members[models.ChannelReversal]; len(got) != 1 || got[0] != "AAA" {
		t.Fatalf("reversal members = %v, want [AAA]", got)
	}
	if len(sink.stocks) == 0 {
		t.Fatal("no stock event published on channel entry")
	}

	// Volume baseline unchanged but price normalizes: the symbol leaves.
	c.handleEvent(models.StreamEvent{Type: models.EventTrade, Symbol: "AAA", Price: 10.0, Volume: 100, Timestamp: now.Add(time.Second)})

	members = c.Memberships()
	if got := members[models.ChannelReversal]; len(got) != 0 {
		t.Errorf("reversal members after exit = %v, want empty", got)
	}
	last := sink.stocks[len(sink.stocks)-1]
	if last.Channel != models.ChannelNone {
		t.Errorf("exit event channel = %q, want none", last.Channel)
	}
}

// -----------------------------------------------------------------------------

func TestCategorizerTargetSymbols(t *testing.T) {
	c, _ := newTestCategorizer(t)

	c.Store.SaveValidated(map[string]models.Snapshot{"AAA": {Symbol: "AAA"}})
	c.Store.SaveActiveHalts(map[string]models.HaltRecord{"BBB": {Symbol: "BBB"}})
	c.Store.SaveBreakingNews(map[string]models.NewsItem{
		"n1": {ID: "n1", Symbol: "CCC", Timestamp: time.Now().UTC()},
		"n2": {ID: "n2", Symbol: "", Timestamp: time.Now().UTC()}, // untagged, ignored
	})
	c.refreshBreaking()

	got := c.targetSymbols()
	want := map[string]bool{"AAA": true, "BBB": true, "CCC": true}
	if len(got) != len(want) {
		t.Fatalf("targetSymbols() = %v, want 3 symbols", got)
	}
	for _, sym := range got {
		if !want[sym] {
			t.Errorf("unexpected symbol %q", sym)
		}
	}
}
