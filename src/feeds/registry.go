package feeds

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"signalscan/src/helpers"
	"signalscan/src/utils"
)

// -----------------------------------------------------------------------------

// registryFile mirrors the master registry layout: a tickers object keyed by
// symbol. Per-symbol metadata is ignored here, only membership matters.
type registryFile struct {
	Tickers map[string]json.RawMessage `json:"tickers"`
}

// -----------------------------------------------------------------------------

// LoadRegistry reads the master symbol registry and returns the tradable
// universe, uppercased, validated and sorted.
func LoadRegistry(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, helpers.NewFeedError("registry read failed", err)
	}

	var reg registryFile
	if err := json.Unmarshal(raw, &reg); err != nil {
		return nil, helpers.NewFeedError("registry decode failed", err)
	}

	symbols := make([]string, 0, len(reg.Tickers))
	for sym := range reg.Tickers {
		symbols = append(symbols, strings.ToUpper(strings.TrimSpace(sym)))
	}
	symbols = utils.FilterSymbols(symbols)
	sort.Strings(symbols)
	return symbols, nil
}
