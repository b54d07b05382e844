package feeds

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"signalscan/src/models"
)

// -----------------------------------------------------------------------------

func TestParseHaltItem(t *testing.T) {
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		item       haltRSSItem
		ok         bool
		wantSymbol string
		wantStatus string
	}{
		{
			name:       "halted notice",
			item:       haltRSSItem{Title: "Symbol: ABCD - Trading Halted", Description: "LUDP", PubDate: "Mon, 02 Mar 2026 14:30:00 GMT"},
			ok:         true,
			wantSymbol: "ABCD",
			wantStatus: models.HaltStatusHalted,
		},
		{
			name:       "resumed notice",
			item:       haltRSSItem{Title: "Symbol: ABCD - Trading Resumed", PubDate: "Mon, 02 Mar 2026 14:40:00 GMT"},
			ok:         true,
			wantSymbol: "ABCD",
			wantStatus: models.HaltStatusResumed,
		},
		{
			name:       "lowercase symbol is normalized",
			item:       haltRSSItem{Title: "Symbol: abcd - Trading Halted"},
			ok:         true,
			wantSymbol: "ABCD",
			wantStatus: models.HaltStatusHalted,
		},
		{
			name: "missing prefix",
			item: haltRSSItem{Title: "ABCD - Trading Halted"},
		},
		{
			name: "missing action separator",
			item: haltRSSItem{Title: "Symbol: ABCD Trading Halted"},
		},
		{
			name: "garbage symbol",
			item: haltRSSItem{Title: "Symbol: 123!! - Trading Halted"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := parseHaltItem(tt.item, now)
			if ok != tt.ok {
				t.Fatalf("parseHaltItem ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if rec.Symbol != tt.wantSymbol {
				t.Errorf("symbol = %q, want %q", rec.Symbol, tt.wantSymbol)
			}
			if rec.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", rec.Status, tt.wantStatus)
			}
			if rec.Status == models.HaltStatusResumed && rec.ResumeTime == nil {
				t.Error("resumed notice missing resume time")
			}
		})
	}
}

// -----------------------------------------------------------------------------

func TestDecodeAlpacaMsg(t *testing.T) {
	quote := alpacaWireMsg{Type: "q", Symbol: "AAA", BidPrice: 4.9, AskPrice: 5.1, BidSize: 2, AskSize: 3, Timestamp: "2026-03-02T14:30:00.5Z"}
	ev, ok := decodeAlpacaMsg(quote)
	if !ok {
		t.Fatal("quote message not decoded")
	}
	if ev.Type != models.EventQuote || ev.Bid != 4.9 || ev.Ask != 5.1 {
		t.Errorf("decoded quote = %+v", ev)
	}

	trade := alpacaWireMsg{Type: "t", Symbol: "AAA", Price: 5.0, Size: 100, Timestamp: "2026-03-02T14:30:01Z"}
	ev, ok = decodeAlpacaMsg(trade)
	if !ok {
		t.Fatal("trade message not decoded")
	}
	if ev.Type != models.EventTrade || ev.Price != 5.0 || ev.Volume != 100 {
		t.Errorf("decoded trade = %+v", ev)
	}

	if _, ok := decodeAlpacaMsg(alpacaWireMsg{Type: "success", Msg: "authenticated"}); ok {
		t.Error("control message should not decode to an event")
	}
}

// -----------------------------------------------------------------------------

func TestDecodeTradierMsg(t *testing.T) {
	// Tradier quotes numeric trade fields as strings.
	var m tradierWireMsg
	raw := `{"type":"trade","symbol":"AAA","price":"5.25","size":"100"}`
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	ev, ok := decodeTradierMsg(m)
	if !ok {
		t.Fatal("trade message not decoded")
	}
	if ev.Price != 5.25 || ev.Volume != 100 {
		t.Errorf("decoded trade = %+v", ev)
	}

	raw = `{"type":"summary","symbol":"AAA","prevClose":10.5,"high":"11.25"}`
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ev, ok = decodeTradierMsg(m)
	if !ok {
		t.Fatal("summary message not decoded")
	}
	if ev.Type != models.EventSummary || ev.PrevClose != 10.5 || ev.DayHigh != 11.25 {
		t.Errorf("decoded summary = %+v", ev)
	}

	if _, ok := decodeTradierMsg(tradierWireMsg{Type: "timesale"}); ok {
		t.Error("unhandled type should not decode to an event")
	}
}

// -----------------------------------------------------------------------------

func TestNewsItemsFromWire(t *testing.T) {
	m := alpacaNewsWireMsg{
		Type:      "n",
		ID:        42,
		Headline:  "Something happened",
		Symbols:   []string{"aaa", "BBB"},
		CreatedAt: "2026-03-02T14:30:00Z",
	}

	items := newsItemsFromWire(m)
	if len(items) != 2 {
		t.Fatalf("got %d items, want one per symbol", len(items))
	}
	if items[0].Symbol != "AAA" || items[1].Symbol != "BBB" {
		t.Errorf("symbols = %q, %q", items[0].Symbol, items[1].Symbol)
	}
	if items[0].ID == items[1].ID {
		t.Error("fanned-out items share an id")
	}

	// Untagged article survives once.
	m.Symbols = nil
	items = newsItemsFromWire(m)
	if len(items) != 1 || items[0].Symbol != "" {
		t.Errorf("untagged article = %+v, want single item without symbol", items)
	}
}

// -----------------------------------------------------------------------------

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master_registry.json")
	payload := `{"tickers": {"aapl": {"name": "Apple"}, "BRK.A": {}, "bad!sym": {}, "TSLA": {}}}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	symbols, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	want := []string{"AAPL", "BRK.A", "TSLA"}
	if !reflect.DeepEqual(symbols, want) {
		t.Errorf("LoadRegistry = %v, want %v", symbols, want)
	}

	if _, err := LoadRegistry(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing registry should return an error")
	}
}
