package scanners

import (
	"context"
	"testing"
	"time"

	"signalscan/src/logger"
	"signalscan/src/models"
)

// -----------------------------------------------------------------------------

func newTestValidator(t *testing.T, stream *fakeStream, quotes *fakeQuoteClient) *Validator {
	t.Helper()
	return &Validator{
		Config:     testConfig(),
		Store:      newTestStore(t),
		Stream:     stream,
		Quotes:     quotes,
		Logger:     logger.NewLogger("test"),
		snapshots:  make(map[string]models.Snapshot),
		subscribed: make(map[string]struct{}),
	}
}

// -----------------------------------------------------------------------------

func TestValidatorReconcileSubscribesDelta(t *testing.T) {
	stream := newFakeStream()
	v := newTestValidator(t, stream, &fakeQuoteClient{})
	ctx := context.Background()

	v.Store.SavePrefilter([]string{"AAA", "BBB"})
	v.reconcile(ctx)
	if len(stream.subscribed) != 2 {
		t.Fatalf("subscribed %d symbols, want 2", len(stream.subscribed))
	}

	// Same set again: nothing new goes out.
	v.reconcile(ctx)
	if len(stream.subscribed) != 2 {
		t.Fatalf("re-reconcile subscribed %d symbols, want 2", len(stream.subscribed))
	}

	// One addition: only the delta is sent.
	v.Store.SavePrefilter([]string{"AAA", "BBB", "CCC"})
	v.reconcile(ctx)
	if len(stream.subscribed) != 3 {
		t.Errorf("after delta, subscribed %d symbols, want 3", len(stream.subscribed))
	}
	if stream.subscribed[2] != "CCC" {
		t.Errorf("delta symbol = %q, want CCC", stream.subscribed[2])
	}
}

// -----------------------------------------------------------------------------

func TestValidatorBackfillSeedsSnapshot(t *testing.T) {
	stream := newFakeStream()
	quotes := &fakeQuoteClient{quotes: map[string]models.StreamEvent{
		"AAA": {Type: models.EventQuote, Symbol: "AAA", Bid: 4.9, Ask: 5.1, Timestamp: time.Now().UTC()},
	}}
	v := newTestValidator(t, stream, quotes)

	v.Store.SavePrefilter([]string{"AAA"})
	v.reconcile(context.Background())

	snap, ok := v.Snapshots()["AAA"]
	if !ok {
		t.Fatal("no snapshot after backfill")
	}
	if snap.Bid != 4.9 || snap.Ask != 5.1 {
		t.Errorf("backfilled snapshot = %+v, want bid 4.9 ask 5.1", snap)
	}
}

// -----------------------------------------------------------------------------

func TestValidatorBackfillNeverOverwrites(t *testing.T) {
	stream := newFakeStream()
	quotes := &fakeQuoteClient{quotes: map[string]models.StreamEvent{
		"AAA": {Type: models.EventQuote, Symbol: "AAA", Bid: 1.0, Ask: 1.2},
	}}
	v := newTestValidator(t, stream, quotes)

	// A stream tick already created the record.
	v.snapshots["AAA"] = models.Snapshot{Symbol: "AAA", Price: 5.0}
	v.backfill(context.Background(), "AAA")

	if got := v.Snapshots()["AAA"].Price; got != 5.0 {
		t.Errorf("backfill overwrote live snapshot, price = %v, want 5.0", got)
	}
}

// -----------------------------------------------------------------------------

func TestValidatorPersistRoundTrip(t *testing.T) {
	stream := newFakeStream()
	v := newTestValidator(t, stream, &fakeQuoteClient{})

	now := time.Now().UTC().Truncate(time.Second)
	v.snapshots["AAA"] = models.Snapshot{Symbol: "AAA", Price: 5.0, Volume: 100, LastUpdate: now}
	v.persist()

	restored := v.Store.LoadValidated()
	if got := restored["AAA"].Price; got != 5.0 {
		t.Errorf("restored price = %v, want 5.0", got)
	}
}

// -----------------------------------------------------------------------------

func TestSnapshotMergeIsPartial(t *testing.T) {
	var snap models.Snapshot

	quote := models.StreamEvent{Type: models.EventQuote, Symbol: "AAA", Bid: 4.9, Ask: 5.1, BidSize: 10, AskSize: 20}
	trade := models.StreamEvent{Type: models.EventTrade, Symbol: "AAA", Price: 5.0, Volume: 500}

	quote.ApplyTo(&snap)
	trade.ApplyTo(&snap)

	if snap.Bid != 4.9 || snap.Ask != 5.1 {
		t.Errorf("trade event clobbered quote fields: %+v", snap)
	}
	if snap.Price != 5.0 || snap.Volume != 500 {
		t.Errorf("trade fields not merged: %+v", snap)
	}

	// Idempotent: replaying the same event changes nothing.
	before := snap
	trade.ApplyTo(&snap)
	if snap != before {
		t.Errorf("replay changed snapshot: %+v vs %+v", snap, before)
	}
}
