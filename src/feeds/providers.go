package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"signalscan/src/helpers"
	"signalscan/src/interfaces"
	"signalscan/src/logger"
	"signalscan/src/models"
)

// -----------------------------------------------------------------------------

// NewNewsProvider builds one pull-based provider from config. Unknown names
// are an error so a typo in the rotation list fails at startup, not at the
// first rotation slot.
func NewNewsProvider(cfg models.NewsProviderConfig, network interfaces.NetworkManager, log *logger.Logger) (interfaces.NewsProvider, error) {
	switch strings.ToLower(cfg.Name) {
	case "polygon":
		return &PolygonNews{apiKey: cfg.APIKey, network: network, log: log}, nil
	case "finnhub":
		return &FinnhubNews{apiKey: cfg.APIKey, network: network, log: log}, nil
	case "fmp":
		return &FMPNews{apiKey: cfg.APIKey, network: network, log: log}, nil
	case "marketaux":
		return &MarketauxNews{apiKey: cfg.APIKey, network: network, log: log}, nil
	}
	return nil, helpers.NewConfigurationError(fmt.Sprintf("unknown news provider %q", cfg.Name))
}

// -----------------------------------------------------------------------------
// Polygon
// -----------------------------------------------------------------------------

type PolygonNews struct {
	apiKey  string
	network interfaces.NetworkManager
	log     *logger.Logger
}

func (p *PolygonNews) Name() string { return "polygon" }

func (p *PolygonNews) Fetch(ctx context.Context) ([]models.NewsItem, error) {
	body, err := p.network.Get("https://api.polygon.io/v2/reference/news", map[string]string{
		"limit":  "50",
		"apiKey": p.apiKey,
	})
	if err != nil {
		return nil, helpers.NewFeedError("polygon news fetch failed", err)
	}

	var resp struct {
		Results []struct {
			ID           string   `json:"id"`
			Title        string   `json:"title"`
			Description  string   `json:"description"`
			ArticleURL   string   `json:"article_url"`
			PublishedUTC string   `json:"published_utc"`
			Tickers      []string `json:"tickers"`
			Publisher    struct {
				Name string `json:"name"`
			} `json:"publisher"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, helpers.NewFeedError("polygon news decode failed", err)
	}

	var items []models.NewsItem
	for _, r := range resp.Results {
		ts, err := time.Parse(time.RFC3339, r.PublishedUTC)
		if err != nil {
			ts = time.Now().UTC()
		}
		id := r.ID
		if id == "" {
			id = uuid.NewString()
		}
		items = append(items, fanOutBySymbol(models.NewsItem{
			ID:        id,
			Headline:  r.Title,
			Summary:   r.Description,
			Source:    r.Publisher.Name,
			URL:       r.ArticleURL,
			Timestamp: ts,
			Provider:  "polygon",
		}, r.Tickers)...)
	}
	return items, nil
}

// -----------------------------------------------------------------------------
// Finnhub
// -----------------------------------------------------------------------------

type FinnhubNews struct {
	apiKey  string
	network interfaces.NetworkManager
	log     *logger.Logger
}

func (f *FinnhubNews) Name() string { return "finnhub" }

func (f *FinnhubNews) Fetch(ctx context.Context) ([]models.NewsItem, error) {
	body, err := f.network.Get("https://finnhub.io/api/v1/news", map[string]string{
		"category": "general",
		"token":    f.apiKey,
	})
	if err != nil {
		return nil, helpers.NewFeedError("finnhub news fetch failed", err)
	}

	var resp []struct {
		ID       int64  `json:"id"`
		Headline string `json:"headline"`
		Summary  string `json:"summary"`
		Source   string `json:"source"`
		URL      string `json:"url"`
		Datetime int64  `json:"datetime"`
		Related  string `json:"related"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, helpers.NewFeedError("finnhub news decode failed", err)
	}

	var items []models.NewsItem
	for _, r := range resp {
		id := fmt.Sprintf("finnhub_%d", r.ID)
		if r.ID == 0 {
			id = uuid.NewString()
		}
		items = append(items, models.NewsItem{
			ID:        id,
			Symbol:    strings.ToUpper(strings.TrimSpace(r.Related)),
			Headline:  r.Headline,
			Summary:   r.Summary,
			Source:    r.Source,
			URL:       r.URL,
			Timestamp: time.Unix(r.Datetime, 0).UTC(),
			Provider:  "finnhub",
		})
	}
	return items, nil
}

// -----------------------------------------------------------------------------
// Financial Modeling Prep
// -----------------------------------------------------------------------------

type FMPNews struct {
	apiKey  string
	network interfaces.NetworkManager
	log     *logger.Logger
}

func (f *FMPNews) Name() string { return "fmp" }

func (f *FMPNews) Fetch(ctx context.Context) ([]models.NewsItem, error) {
	body, err := f.network.Get("https://financialmodelingprep.com/api/v3/stock_news", map[string]string{
		"limit":  "50",
		"apikey": f.apiKey,
	})
	if err != nil {
		return nil, helpers.NewFeedError("fmp news fetch failed", err)
	}

	var resp []struct {
		Symbol        string `json:"symbol"`
		PublishedDate string `json:"publishedDate"`
		Title         string `json:"title"`
		Text          string `json:"text"`
		Site          string `json:"site"`
		URL           string `json:"url"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, helpers.NewFeedError("fmp news decode failed", err)
	}

	var items []models.NewsItem
	for _, r := range resp {
		ts, err := time.Parse("2006-01-02 15:04:05", r.PublishedDate)
		if err != nil {
			ts = time.Now().UTC()
		} else {
			ts = ts.UTC()
		}
		items = append(items, models.NewsItem{
			ID:        uuid.NewString(),
			Symbol:    strings.ToUpper(strings.TrimSpace(r.Symbol)),
			Headline:  r.Title,
			Summary:   r.Text,
			Source:    r.Site,
			URL:       r.URL,
			Timestamp: ts,
			Provider:  "fmp",
		})
	}
	return items, nil
}

// -----------------------------------------------------------------------------
// Marketaux
// -----------------------------------------------------------------------------

type MarketauxNews struct {
	apiKey  string
	network interfaces.NetworkManager
	log     *logger.Logger
}

func (m *MarketauxNews) Name() string { return "marketaux" }

func (m *MarketauxNews) Fetch(ctx context.Context) ([]models.NewsItem, error) {
	body, err := m.network.Get("https://api.marketaux.com/v1/news/all", map[string]string{
		"api_token": m.apiKey,
		"limit":     "50",
	})
	if err != nil {
		return nil, helpers.NewFeedError("marketaux news fetch failed", err)
	}

	var resp struct {
		Data []struct {
			UUID        string `json:"uuid"`
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			Source      string `json:"source"`
			PublishedAt string `json:"published_at"`
			Entities    []struct {
				Symbol string `json:"symbol"`
			} `json:"entities"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, helpers.NewFeedError("marketaux news decode failed", err)
	}

	var items []models.NewsItem
	for _, r := range resp.Data {
		ts, err := time.Parse(time.RFC3339, r.PublishedAt)
		if err != nil {
			ts = time.Now().UTC()
		}
		id := r.UUID
		if id == "" {
			id = uuid.NewString()
		}
		symbols := make([]string, 0, len(r.Entities))
		for _, e := range r.Entities {
			symbols = append(symbols, e.Symbol)
		}
		items = append(items, fanOutBySymbol(models.NewsItem{
			ID:        id,
			Headline:  r.Title,
			Summary:   r.Description,
			Source:    r.Source,
			URL:       r.URL,
			Timestamp: ts,
			Provider:  "marketaux",
		}, symbols)...)
	}
	return items, nil
}

// -----------------------------------------------------------------------------

// fanOutBySymbol makes one item per tagged symbol, suffixing the id so each
// copy keeps a distinct identity. Untagged articles are kept once.
func fanOutBySymbol(base models.NewsItem, symbols []string) []models.NewsItem {
	if len(symbols) == 0 {
		return []models.NewsItem{base}
	}
	items := make([]models.NewsItem, 0, len(symbols))
	for _, sym := range symbols {
		item := base
		item.Symbol = strings.ToUpper(strings.TrimSpace(sym))
		item.ID = base.ID + "_" + item.Symbol
		items = append(items, item)
	}
	return items
}
