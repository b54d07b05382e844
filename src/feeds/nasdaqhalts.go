package feeds

import (
	"context"
	"encoding/xml"
	"strings"
	"time"

	"signalscan/src/helpers"
	"signalscan/src/interfaces"
	"signalscan/src/logger"
	"signalscan/src/models"
	"signalscan/src/utils"
)

// -----------------------------------------------------------------------------

// NasdaqHaltFeed polls the exchange's trading-halt RSS feed. One fetch
// returns the notices currently published; entries that fail to parse are
// skipped so a single malformed item never poisons a poll cycle.
type NasdaqHaltFeed struct {
	cfg     models.HaltFeedConfig
	network interfaces.NetworkManager
	log     *logger.Logger
}

// -----------------------------------------------------------------------------

func NewNasdaqHaltFeed(cfg models.HaltFeedConfig, network interfaces.NetworkManager, log *logger.Logger) *NasdaqHaltFeed {
	return &NasdaqHaltFeed{cfg: cfg, network: network, log: log}
}

// -----------------------------------------------------------------------------

type haltRSS struct {
	Channel struct {
		Items []haltRSSItem `xml:"item"`
	} `xml:"channel"`
}

type haltRSSItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// -----------------------------------------------------------------------------

// Fetch retrieves and parses the current halt notices.
func (f *NasdaqHaltFeed) Fetch(ctx context.Context) ([]models.HaltRecord, error) {
	body, err := f.network.Get(f.cfg.URL, nil)
	if err != nil {
		return nil, helpers.NewFeedError("halt feed fetch failed", err)
	}

	var feed haltRSS
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, helpers.NewFeedError("halt feed decode failed", err)
	}

	now := time.Now().UTC()
	records := make([]models.HaltRecord, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		rec, ok := parseHaltItem(item, now)
		if !ok {
			f.log.Debug("halt entry skipped, unparsable title: %q", item.Title)
			continue
		}
		records = append(records, rec)
	}

	f.log.Debug("halt feed returned %d notices", len(records))
	return records, nil
}

// -----------------------------------------------------------------------------

// parseHaltItem decodes one notice. Titles follow the form
// "Symbol: ABCD - Trading Halted" or "Symbol: ABCD - Trading Resumed".
func parseHaltItem(item haltRSSItem, now time.Time) (models.HaltRecord, bool) {
	title := strings.TrimSpace(item.Title)
	if !strings.HasPrefix(title, "Symbol:") {
		return models.HaltRecord{}, false
	}

	rest := strings.TrimSpace(strings.TrimPrefix(title, "Symbol:"))
	symbol, action, found := strings.Cut(rest, "-")
	if !found {
		return models.HaltRecord{}, false
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	action = strings.TrimSpace(action)

	if !utils.ValidSymbol(symbol) {
		return models.HaltRecord{}, false
	}

	published := now
	if item.PubDate != "" {
		if t, err := time.Parse(time.RFC1123, item.PubDate); err == nil {
			published = t.UTC()
		} else if t, err := time.Parse(time.RFC1123Z, item.PubDate); err == nil {
			published = t.UTC()
		}
	}

	rec := models.HaltRecord{
		Symbol:     symbol,
		Reason:     strings.TrimSpace(item.Description),
		Exchange:   "NASDAQ",
		LastUpdate: now,
	}

	if strings.Contains(strings.ToLower(action), "resum") {
		rec.Status = models.HaltStatusResumed
		resumed := published
		rec.ResumeTime = &resumed
		rec.HaltTime = published
	} else {
		rec.Status = models.HaltStatusHalted
		rec.HaltTime = published
	}

	return rec, true
}
