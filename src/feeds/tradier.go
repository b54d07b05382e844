package feeds

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"signalscan/src/helpers"
	"signalscan/src/interfaces"
	"signalscan/src/logger"
	"signalscan/src/models"
	"signalscan/src/utils"
)

// -----------------------------------------------------------------------------

// TradierStream is the Tier-3 quote/trade stream. Connecting is a two-step
// handshake: a REST call obtains a short-lived session id, then the websocket
// subscription payloads carry that id. Subscribe payloads are additive and
// batched to the configured size.
type TradierStream struct {
	cfg     models.TradierConfig
	network interfaces.NetworkManager
	log     *logger.Logger

	events chan models.StreamEvent

	mu         sync.Mutex
	conn       *websocket.Conn
	sessionID  string
	subscribed map[string]struct{}
	connected  bool
}

// -----------------------------------------------------------------------------

func NewTradierStream(cfg models.TradierConfig, network interfaces.NetworkManager, log *logger.Logger) *TradierStream {
	return &TradierStream{
		cfg:        cfg,
		network:    network,
		log:        log,
		events:     make(chan models.StreamEvent, streamEventBuffer),
		subscribed: make(map[string]struct{}),
	}
}

// -----------------------------------------------------------------------------

// flexFloat tolerates the stream's habit of quoting some numeric fields.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(raw []byte) error {
	s := strings.Trim(string(raw), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// -----------------------------------------------------------------------------

type tradierWireMsg struct {
	Type      string    `json:"type"`
	Symbol    string    `json:"symbol"`
	Bid       flexFloat `json:"bid"`
	Ask       flexFloat `json:"ask"`
	BidSize   flexFloat `json:"bidsz"`
	AskSize   flexFloat `json:"asksz"`
	Price     flexFloat `json:"price"`
	Size      flexFloat `json:"size"`
	PrevClose flexFloat `json:"prevClose"`
	High      flexFloat `json:"high"`
}

// -----------------------------------------------------------------------------

type tradierSessionResponse struct {
	Stream struct {
		SessionID string `json:"sessionid"`
		URL       string `json:"url"`
	} `json:"stream"`
}

// -----------------------------------------------------------------------------

// Connect performs the session handshake, dials the socket and replays the
// remembered subscription set.
func (t *TradierStream) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.connected {
		return nil
	}

	body, err := t.network.Post(t.cfg.SessionURL, map[string]string{
		"Authorization": "Bearer " + t.cfg.APIKey,
		"Accept":        "application/json",
	})
	if err != nil {
		return helpers.NewFeedError("tradier session request failed", err)
	}

	var sess tradierSessionResponse
	if err := json.Unmarshal(body, &sess); err != nil {
		return helpers.NewFeedError("tradier session decode failed", err)
	}
	if sess.Stream.SessionID == "" {
		return helpers.NewFeedError("tradier session response missing sessionid", nil)
	}
	t.sessionID = sess.Stream.SessionID

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 15 * time.Second
	conn, _, err := dialer.DialContext(ctx, t.cfg.StreamURL, nil)
	if err != nil {
		return helpers.NewFeedError("tradier stream dial failed", err)
	}

	t.conn = conn
	t.connected = true
	t.log.Info("tradier stream connected, session %s...", t.sessionID[:min(8, len(t.sessionID))])

	if len(t.subscribed) > 0 {
		symbols := make([]string, 0, len(t.subscribed))
		for s := range t.subscribed {
			symbols = append(symbols, s)
		}
		if err := t.sendSubscribe(symbols); err != nil {
			t.closeLocked()
			return err
		}
		t.log.Info("tradier stream re-subscribed %d symbols", len(symbols))
	}

	go t.readLoop(ctx, conn)
	return nil
}

// -----------------------------------------------------------------------------

// Subscribe adds symbols to the live subscription. Already subscribed symbols
// are skipped, nothing is ever unsubscribed.
func (t *TradierStream) Subscribe(symbols []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	fresh := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := t.subscribed[s]; !ok {
			fresh = append(fresh, s)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	if t.connected {
		if err := t.sendSubscribe(fresh); err != nil {
			return err
		}
	}

	for _, s := range fresh {
		t.subscribed[s] = struct{}{}
	}
	t.log.Debug("tradier stream subscribed %d new symbols", len(fresh))
	return nil
}

// -----------------------------------------------------------------------------

// sendSubscribe writes one payload per batch. Large symbol sets are split so
// each payload stays under the stream's per-message limit.
func (t *TradierStream) sendSubscribe(symbols []string) error {
	size := t.cfg.BatchSize
	if size < 1 {
		size = 50
	}
	for _, batch := range utils.Batch(symbols, size) {
		payload := map[string]interface{}{
			"symbols":   batch,
			"sessionid": t.sessionID,
			"filter":    []string{"summary", "quote", "trade"},
			"linebreak": true,
		}
		if err := t.conn.WriteJSON(payload); err != nil {
			return helpers.NewFeedError("tradier stream subscribe write failed", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (t *TradierStream) Events() <-chan models.StreamEvent {
	return t.events
}

// -----------------------------------------------------------------------------

func (t *TradierStream) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// -----------------------------------------------------------------------------

func (t *TradierStream) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeLocked()
	return nil
}

func (t *TradierStream) closeLocked() {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	t.connected = false
}

// -----------------------------------------------------------------------------

func (t *TradierStream) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			if t.conn == conn {
				t.closeLocked()
				if ctx.Err() == nil {
					t.log.Warning("tradier stream read failed: %v", err)
				}
			}
			t.mu.Unlock()
			return
		}

		// With linebreak mode on, a frame can carry several payloads.
		for _, line := range strings.Split(string(raw), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			var m tradierWireMsg
			if err := json.Unmarshal([]byte(line), &m); err != nil {
				t.log.Debug("tradier unparsable payload skipped: %v", err)
				continue
			}
			ev, ok := decodeTradierMsg(m)
			if !ok {
				continue
			}
			select {
			case t.events <- ev:
			default:
				t.log.Warning("tradier stream event buffer full, dropping %s tick", ev.Symbol)
			}
		}
	}
}

// -----------------------------------------------------------------------------

func decodeTradierMsg(m tradierWireMsg) (models.StreamEvent, bool) {
	now := time.Now().UTC()
	switch m.Type {
	case "quote":
		return models.StreamEvent{
			Type:      models.EventQuote,
			Symbol:    m.Symbol,
			Bid:       float64(m.Bid),
			Ask:       float64(m.Ask),
			BidSize:   float64(m.BidSize),
			AskSize:   float64(m.AskSize),
			Timestamp: now,
		}, true
	case "trade":
		return models.StreamEvent{
			Type:      models.EventTrade,
			Symbol:    m.Symbol,
			Price:     float64(m.Price),
			Volume:    float64(m.Size),
			Timestamp: now,
		}, true
	case "summary":
		return models.StreamEvent{
			Type:      models.EventSummary,
			Symbol:    m.Symbol,
			PrevClose: float64(m.PrevClose),
			DayHigh:   float64(m.High),
			Timestamp: now,
		}, true
	}
	return models.StreamEvent{}, false
}
