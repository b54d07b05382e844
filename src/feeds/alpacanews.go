package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"signalscan/src/helpers"
	"signalscan/src/interfaces"
	"signalscan/src/logger"
	"signalscan/src/models"
)

// -----------------------------------------------------------------------------

const newsItemBuffer = 512

// -----------------------------------------------------------------------------

// AlpacaNewsStream is the always-on push news feed. It subscribes to the
// firehose ("*") once and delivers typed items on a buffered channel.
type AlpacaNewsStream struct {
	cfg models.AlpacaConfig
	log *logger.Logger

	items chan models.NewsItem

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// -----------------------------------------------------------------------------

func NewAlpacaNewsStream(cfg models.AlpacaConfig, log *logger.Logger) *AlpacaNewsStream {
	return &AlpacaNewsStream{
		cfg:   cfg,
		log:   log,
		items: make(chan models.NewsItem, newsItemBuffer),
	}
}

// -----------------------------------------------------------------------------

type alpacaNewsWireMsg struct {
	Type      string   `json:"T"`
	ID        int64    `json:"id"`
	Headline  string   `json:"headline"`
	Summary   string   `json:"summary"`
	Source    string   `json:"source"`
	URL       string   `json:"url"`
	Symbols   []string `json:"symbols"`
	CreatedAt string   `json:"created_at"`
}

// -----------------------------------------------------------------------------

func (a *AlpacaNewsStream) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.connected {
		return nil
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 15 * time.Second
	conn, _, err := dialer.DialContext(ctx, a.cfg.NewsURL, nil)
	if err != nil {
		return helpers.NewFeedError("alpaca news stream dial failed", err)
	}

	auth := map[string]string{
		"action": "auth",
		"key":    a.cfg.APIKey,
		"secret": a.cfg.APISecret,
	}
	if err := conn.WriteJSON(auth); err != nil {
		conn.Close()
		return helpers.NewFeedError("alpaca news stream auth write failed", err)
	}

	sub := map[string]interface{}{
		"action": "subscribe",
		"news":   []string{"*"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return helpers.NewFeedError("alpaca news stream subscribe write failed", err)
	}

	a.conn = conn
	a.connected = true
	a.log.Info("alpaca news stream connected: %s", a.cfg.NewsURL)

	go a.readLoop(ctx, conn)
	return nil
}

// -----------------------------------------------------------------------------

func (a *AlpacaNewsStream) Items() <-chan models.NewsItem {
	return a.items
}

// -----------------------------------------------------------------------------

func (a *AlpacaNewsStream) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

// -----------------------------------------------------------------------------

func (a *AlpacaNewsStream) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
	a.connected = false
	return nil
}

// -----------------------------------------------------------------------------

func (a *AlpacaNewsStream) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			a.mu.Lock()
			if a.conn == conn {
				a.conn = nil
				a.connected = false
				if ctx.Err() == nil {
					a.log.Warning("alpaca news stream read failed: %v", err)
				}
			}
			a.mu.Unlock()
			return
		}

		var msgs []alpacaNewsWireMsg
		if err := json.Unmarshal(raw, &msgs); err != nil {
			a.log.Debug("alpaca news unparsable frame skipped: %v", err)
			continue
		}

		for _, m := range msgs {
			if m.Type != "n" {
				continue
			}
			for _, item := range newsItemsFromWire(m) {
				select {
				case a.items <- item:
				default:
					a.log.Warning("alpaca news buffer full, dropping item %s", item.ID)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------

// newsItemsFromWire fans one wire article out to one item per tagged symbol.
// Articles without symbols are kept once with an empty symbol so the keyword
// filter still sees them.
func newsItemsFromWire(m alpacaNewsWireMsg) []models.NewsItem {
	ts, err := time.Parse(time.RFC3339, m.CreatedAt)
	if err != nil {
		ts = time.Now().UTC()
	}

	id := fmt.Sprintf("%d", m.ID)
	if m.ID == 0 {
		id = uuid.NewString()
	}

	symbols := m.Symbols
	if len(symbols) == 0 {
		symbols = []string{""}
	}

	items := make([]models.NewsItem, 0, len(symbols))
	for _, sym := range symbols {
		itemID := id
		if sym != "" {
			itemID = id + "_" + sym
		}
		items = append(items, models.NewsItem{
			ID:        itemID,
			Symbol:    strings.ToUpper(sym),
			Headline:  m.Headline,
			Summary:   m.Summary,
			Source:    m.Source,
			URL:       m.URL,
			Timestamp: ts,
			Provider:  "alpaca",
		})
	}
	return items
}

// -----------------------------------------------------------------------------

// AlpacaNewsClient is the pull-based counterpart used for forced refreshes.
type AlpacaNewsClient struct {
	cfg     models.AlpacaConfig
	network interfaces.NetworkManager
	log     *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAlpacaNewsClient(cfg models.AlpacaConfig, network interfaces.NetworkManager, log *logger.Logger) *AlpacaNewsClient {
	return &AlpacaNewsClient{cfg: cfg, network: network, log: log}
}

// -----------------------------------------------------------------------------

func (c *AlpacaNewsClient) Name() string { return "alpaca" }

// -----------------------------------------------------------------------------

// Fetch pulls the latest articles over REST.
func (c *AlpacaNewsClient) Fetch(ctx context.Context) ([]models.NewsItem, error) {
	url := fmt.Sprintf("%s/v1beta1/news", c.cfg.DataURL)
	body, err := c.network.GetWithHeaders(url, map[string]string{"limit": "50"}, map[string]string{
		"APCA-API-KEY-ID":     c.cfg.APIKey,
		"APCA-API-SECRET-KEY": c.cfg.APISecret,
	})
	if err != nil {
		return nil, helpers.NewFeedError("alpaca news fetch failed", err)
	}

	var resp struct {
		News []alpacaNewsWireMsg `json:"news"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, helpers.NewFeedError("alpaca news decode failed", err)
	}

	var items []models.NewsItem
	for _, m := range resp.News {
		items = append(items, newsItemsFromWire(m)...)
	}
	return items, nil
}
