package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"signalscan/src/helpers"
	"signalscan/src/interfaces"
	"signalscan/src/logger"
	"signalscan/src/models"
)

// -----------------------------------------------------------------------------

const streamEventBuffer = 2048

// -----------------------------------------------------------------------------

// AlpacaStream is the push-based quote/trade stream used by the Tier-2
// validator. Wire messages are decoded on a reader goroutine and delivered as
// typed events; subscriptions are remembered across reconnects.
type AlpacaStream struct {
	cfg models.AlpacaConfig
	log *logger.Logger

	events chan models.StreamEvent

	mu         sync.Mutex
	conn       *websocket.Conn
	subscribed map[string]struct{}
	connected  bool
}

// -----------------------------------------------------------------------------

func NewAlpacaStream(cfg models.AlpacaConfig, log *logger.Logger) *AlpacaStream {
	return &AlpacaStream{
		cfg:        cfg,
		log:        log,
		events:     make(chan models.StreamEvent, streamEventBuffer),
		subscribed: make(map[string]struct{}),
	}
}

// -----------------------------------------------------------------------------

// alpacaWireMsg covers every stream payload we care about. The "T" field
// discriminates: "q" quote, "t" trade, everything else is control traffic.
type alpacaWireMsg struct {
	Type      string  `json:"T"`
	Symbol    string  `json:"S"`
	BidPrice  float64 `json:"bp"`
	AskPrice  float64 `json:"ap"`
	BidSize   float64 `json:"bs"`
	AskSize   float64 `json:"as"`
	Price     float64 `json:"p"`
	Size      float64 `json:"s"`
	Timestamp string  `json:"t"`
	Msg       string  `json:"msg"`
}

// -----------------------------------------------------------------------------

// Connect dials the stream, authenticates and re-subscribes the remembered
// symbol set. Safe to call again after a connection loss.
func (a *AlpacaStream) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.connected {
		return nil
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 15 * time.Second
	conn, _, err := dialer.DialContext(ctx, a.cfg.StreamURL, nil)
	if err != nil {
		return helpers.NewFeedError("alpaca stream dial failed", err)
	}

	auth := map[string]string{
		"action": "auth",
		"key":    a.cfg.APIKey,
		"secret": a.cfg.APISecret,
	}
	if err := conn.WriteJSON(auth); err != nil {
		conn.Close()
		return helpers.NewFeedError("alpaca stream auth write failed", err)
	}

	a.conn = conn
	a.connected = true
	a.log.Info("alpaca stream connected: %s", a.cfg.StreamURL)

	if len(a.subscribed) > 0 {
		symbols := make([]string, 0, len(a.subscribed))
		for s := range a.subscribed {
			symbols = append(symbols, s)
		}
		if err := a.sendSubscribe(symbols); err != nil {
			a.closeLocked()
			return err
		}
		a.log.Info("alpaca stream re-subscribed %d symbols", len(symbols))
	}

	go a.readLoop(ctx, conn)
	return nil
}

// -----------------------------------------------------------------------------

// Subscribe adds symbols to the live subscription. Symbols already subscribed
// are skipped so repeated calls with overlapping sets stay additive.
func (a *AlpacaStream) Subscribe(symbols []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	fresh := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := a.subscribed[s]; !ok {
			fresh = append(fresh, s)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	if a.connected {
		if err := a.sendSubscribe(fresh); err != nil {
			return err
		}
	}

	// Remembered even while disconnected; Connect replays the whole set.
	for _, s := range fresh {
		a.subscribed[s] = struct{}{}
	}
	a.log.Debug("alpaca stream subscribed %d new symbols", len(fresh))
	return nil
}

// -----------------------------------------------------------------------------

func (a *AlpacaStream) sendSubscribe(symbols []string) error {
	msg := map[string]interface{}{
		"action": "subscribe",
		"quotes": symbols,
		"trades": symbols,
	}
	if err := a.conn.WriteJSON(msg); err != nil {
		return helpers.NewFeedError("alpaca stream subscribe write failed", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (a *AlpacaStream) Events() <-chan models.StreamEvent {
	return a.events
}

// -----------------------------------------------------------------------------

func (a *AlpacaStream) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

// -----------------------------------------------------------------------------

// Close tears down the socket. The subscription set survives for the next
// Connect.
func (a *AlpacaStream) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closeLocked()
	return nil
}

func (a *AlpacaStream) closeLocked() {
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
	a.connected = false
}

// -----------------------------------------------------------------------------

func (a *AlpacaStream) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			a.mu.Lock()
			// Only report if this reader's conn is still current.
			if a.conn == conn {
				a.closeLocked()
				if ctx.Err() == nil {
					a.log.Warning("alpaca stream read failed: %v", err)
				}
			}
			a.mu.Unlock()
			return
		}

		var msgs []alpacaWireMsg
		if err := json.Unmarshal(raw, &msgs); err != nil {
			a.log.Debug("alpaca stream unparsable frame skipped: %v", err)
			continue
		}

		for _, m := range msgs {
			ev, ok := decodeAlpacaMsg(m)
			if !ok {
				continue
			}
			select {
			case a.events <- ev:
			default:
				a.log.Warning("alpaca stream event buffer full, dropping %s tick", ev.Symbol)
			}
		}
	}
}

// -----------------------------------------------------------------------------

func decodeAlpacaMsg(m alpacaWireMsg) (models.StreamEvent, bool) {
	ts, err := time.Parse(time.RFC3339Nano, m.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}

	switch m.Type {
	case "q":
		return models.StreamEvent{
			Type:      models.EventQuote,
			Symbol:    m.Symbol,
			Bid:       m.BidPrice,
			Ask:       m.AskPrice,
			BidSize:   m.BidSize,
			AskSize:   m.AskSize,
			Timestamp: ts,
		}, true
	case "t":
		return models.StreamEvent{
			Type:      models.EventTrade,
			Symbol:    m.Symbol,
			Price:     m.Price,
			Volume:    m.Size,
			Timestamp: ts,
		}, true
	}
	return models.StreamEvent{}, false
}

// -----------------------------------------------------------------------------

// AlpacaQuoteClient backfills snapshot fields over REST before the first
// stream tick arrives for a freshly validated symbol.
type AlpacaQuoteClient struct {
	cfg     models.AlpacaConfig
	network interfaces.NetworkManager
	log     *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAlpacaQuoteClient(cfg models.AlpacaConfig, network interfaces.NetworkManager, log *logger.Logger) *AlpacaQuoteClient {
	return &AlpacaQuoteClient{cfg: cfg, network: network, log: log}
}

// -----------------------------------------------------------------------------

type alpacaLatestQuoteResponse struct {
	Symbol string `json:"symbol"`
	Quote  struct {
		BidPrice  float64 `json:"bp"`
		AskPrice  float64 `json:"ap"`
		BidSize   float64 `json:"bs"`
		AskSize   float64 `json:"as"`
		Timestamp string  `json:"t"`
	} `json:"quote"`
}

// -----------------------------------------------------------------------------

// LatestQuote fetches the most recent quote for one symbol.
func (c *AlpacaQuoteClient) LatestQuote(ctx context.Context, symbol string) (models.StreamEvent, error) {
	url := fmt.Sprintf("%s/v2/stocks/%s/quotes/latest", c.cfg.DataURL, symbol)
	body, err := c.network.GetWithHeaders(url, nil, map[string]string{
		"APCA-API-KEY-ID":     c.cfg.APIKey,
		"APCA-API-SECRET-KEY": c.cfg.APISecret,
	})
	if err != nil {
		return models.StreamEvent{}, helpers.NewFeedError("alpaca latest quote fetch failed", err)
	}

	var resp alpacaLatestQuoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.StreamEvent{}, helpers.NewFeedError("alpaca latest quote decode failed", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, resp.Quote.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}

	return models.StreamEvent{
		Type:      models.EventQuote,
		Symbol:    symbol,
		Bid:       resp.Quote.BidPrice,
		Ask:       resp.Quote.AskPrice,
		BidSize:   resp.Quote.BidSize,
		AskSize:   resp.Quote.AskSize,
		Timestamp: ts,
	}, nil
}
