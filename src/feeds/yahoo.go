package feeds

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"signalscan/src/helpers"
	"signalscan/src/interfaces"
	"signalscan/src/logger"
	"signalscan/src/models"
	"signalscan/src/utils"
)

// -----------------------------------------------------------------------------

const yahooQuoteBatchSize = 100

// -----------------------------------------------------------------------------

// YahooUniverseSource fetches coarse quotes for the whole registry universe.
// Symbols are split into batches and fetched concurrently under the network
// concurrency limit.
type YahooUniverseSource struct {
	cfg     *models.Config
	network interfaces.NetworkManager
	log     *logger.Logger
}

// -----------------------------------------------------------------------------

func NewYahooUniverseSource(cfg *models.Config, network interfaces.NetworkManager, log *logger.Logger) *YahooUniverseSource {
	return &YahooUniverseSource{cfg: cfg, network: network, log: log}
}

// -----------------------------------------------------------------------------

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                   string  `json:"symbol"`
			RegularMarketPrice       float64 `json:"regularMarketPrice"`
			AverageDailyVolume3Month float64 `json:"averageDailyVolume3Month"`
			AverageDailyVolume10Day  float64 `json:"averageDailyVolume10Day"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

// -----------------------------------------------------------------------------

// FetchUniverse fetches coarse quotes for every symbol. It fails only when
// every batch fails; partial coverage is returned as-is and logged.
func (y *YahooUniverseSource) FetchUniverse(ctx context.Context, symbols []string) ([]models.UniverseQuote, error) {
	batches := utils.Batch(symbols, yahooQuoteBatchSize)
	if len(batches) == 0 {
		return nil, nil
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		quotes []models.UniverseQuote
		failed int
	)

	limit := y.cfg.Network.ConcurrentRequests
	if limit < 1 {
		limit = 1
	}
	sem := make(chan struct{}, limit)

	for _, batch := range batches {
		wg.Add(1)
		go func(batch []string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			result, err := y.fetchBatch(batch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				y.log.Warning("universe batch of %d symbols failed: %v", len(batch), err)
				return
			}
			quotes = append(quotes, result...)
		}(batch)
	}
	wg.Wait()

	if len(quotes) == 0 && failed > 0 {
		return nil, helpers.NewFeedError("universe fetch failed for every batch", nil)
	}

	y.log.Info("universe fetch: %d quotes from %d/%d batches", len(quotes), len(batches)-failed, len(batches))
	return quotes, nil
}

// -----------------------------------------------------------------------------

func (y *YahooUniverseSource) fetchBatch(symbols []string) ([]models.UniverseQuote, error) {
	body, err := y.network.Get("https://query1.finance.yahoo.com/v7/finance/quote", map[string]string{
		"symbols": strings.Join(symbols, ","),
		"fields":  "symbol,regularMarketPrice,averageDailyVolume3Month,averageDailyVolume10Day",
	})
	if err != nil {
		return nil, err
	}

	var resp yahooQuoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, helpers.NewFeedError("universe quote decode failed", err)
	}
	if e := resp.QuoteResponse.Error; e != nil {
		return nil, helpers.NewFeedError("universe quote api error: "+e.Code+" "+e.Description, nil)
	}

	quotes := make([]models.UniverseQuote, 0, len(resp.QuoteResponse.Result))
	for _, r := range resp.QuoteResponse.Result {
		avg := r.AverageDailyVolume3Month
		if avg <= 0 {
			avg = r.AverageDailyVolume10Day
		}
		quotes = append(quotes, models.UniverseQuote{
			Symbol:    strings.ToUpper(r.Symbol),
			Price:     r.RegularMarketPrice,
			AvgVolume: avg,
		})
	}
	return quotes, nil
}
