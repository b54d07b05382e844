package models

// Config Structure
type Config struct {
	Name     string        `yaml:"name"`
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	LogLevel string        `yaml:"log_level"`
	LogFile  string        `yaml:"log_file"`
	Storage  StorageConfig `yaml:"storage"`
	Network  NetworkConfig `yaml:"network"`
	Feeds    FeedsConfig   `yaml:"feeds"`
	Scan     ScanConfig    `yaml:"scan"`
	Rules    ChannelRules  `yaml:"channel_rules"`
}

type StorageConfig struct {
	Backend            string `yaml:"backend"` // file | sqlite | postgres
	DataDir            string `yaml:"data_dir"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type NetworkConfig struct {
	RequestTimeout     int    `yaml:"timeout"`
	MaxRetries         int    `yaml:"retries"`
	ConcurrentRequests int    `yaml:"concurrent_requests"`
	UserAgent          string `yaml:"user_agent"`
}

type FeedsConfig struct {
	Alpaca  AlpacaConfig   `yaml:"alpaca"`
	Tradier TradierConfig  `yaml:"tradier"`
	Halts   HaltFeedConfig `yaml:"halts"`
	News    NewsConfig     `yaml:"news"`
}

type AlpacaConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	StreamURL string `yaml:"stream_url"`
	NewsURL   string `yaml:"news_url"`
	DataURL   string `yaml:"data_url"`
}

type TradierConfig struct {
	APIKey     string `yaml:"api_key"`
	SessionURL string `yaml:"session_url"`
	StreamURL  string `yaml:"stream_url"`
	BatchSize  int    `yaml:"batch_size"` // max symbols per subscribe message
}

type HaltFeedConfig struct {
	URL string `yaml:"url"`
}

// NewsProviderConfig holds credentials for one pull-based secondary provider.
type NewsProviderConfig struct {
	Name   string `yaml:"name"`
	APIKey string `yaml:"api_key"`
}

type NewsConfig struct {
	Providers       []NewsProviderConfig `yaml:"providers"`
	ExcludeKeywords []string             `yaml:"exclude_keywords"`
	MatchKeywords   []string             `yaml:"match_keywords"`
}

// ScanConfig holds the cadence of every polling loop, in seconds.
type ScanConfig struct {
	PrefilterInterval  int     `yaml:"prefilter_interval"`   // Tier-1, default 7200
	ValidatorInterval  int     `yaml:"validator_interval"`   // Tier-2, default 10
	CategorizerResub   int     `yaml:"categorizer_resub"`    // Tier-3 subscription poll, default 10
	NewsInterval       int     `yaml:"news_interval"`        // secondary rotation, default 180
	HaltInterval       int     `yaml:"halt_interval"`        // default 150
	ReconnectDelay     int     `yaml:"reconnect_delay"`      // stream reconnect, default 30
	RegistryPath       string  `yaml:"registry_path"`        // master symbol registry
	MinVolume          float64 `yaml:"min_volume"`           // Tier-1, default 5_000_000
	MinPrice           float64 `yaml:"min_price"`            // Tier-1, default 0.75
	MaxPrice           float64 `yaml:"max_price"`            // Tier-1, default 17.00
	DefaultAvgVolume   float64 `yaml:"default_avg_volume"`   // RVOL fallback baseline
	PriceWindowMinutes int     `yaml:"price_window_minutes"` // momentum window, default 15
}

// ChannelRules holds the classification thresholds for every channel.
// The zero value is not usable; call DefaultChannelRules.
type ChannelRules struct {
	Pregap   PregapRules   `yaml:"pregap"`
	Hod      HodRules      `yaml:"hod"`
	Runup    RunupRules    `yaml:"runup"`
	Reversal ReversalRules `yaml:"reversal"`
}

type PregapRules struct {
	PriceMin  float64 `yaml:"price_min"`
	PriceMax  float64 `yaml:"price_max"`
	GapPctMin float64 `yaml:"gap_pct_min"`
	RvolMin   float64 `yaml:"rvol_min"`
}

type HodRules struct {
	PriceMin  float64 `yaml:"price_min"`
	PriceMax  float64 `yaml:"price_max"`
	RvolMin   float64 `yaml:"rvol_min"`
	GapPctMin float64 `yaml:"gap_pct_min"`
}

type RunupRules struct {
	PriceMin    float64 `yaml:"price_min"`
	PriceMax    float64 `yaml:"price_max"`
	RvolMin     float64 `yaml:"rvol_min"`
	GapPctMin   float64 `yaml:"gap_pct_min"`
	Move5MinPct float64 `yaml:"move_5min_pct"`
	Move10Min   float64 `yaml:"move_10min_pct"`
}

type ReversalRules struct {
	PriceMax  float64 `yaml:"price_max"`
	RvolMin   float64 `yaml:"rvol_min"`
	GapPctMin float64 `yaml:"gap_pct_min"` // applied to |gap_pct|
}

// DefaultChannelRules returns the documented default thresholds.
func DefaultChannelRules() ChannelRules {
	return ChannelRules{
		Pregap:   PregapRules{PriceMin: 1.00, PriceMax: 15.00, GapPctMin: 10.0, RvolMin: 2.0},
		Hod:      HodRules{PriceMin: 1.00, PriceMax: 15.00, RvolMin: 5.0, GapPctMin: 10.0},
		Runup:    RunupRules{PriceMin: 1.00, PriceMax: 15.00, RvolMin: 5.0, GapPctMin: 10.0, Move5MinPct: 5.0, Move10Min: 10.0},
		Reversal: ReversalRules{PriceMax: 15.00, RvolMin: 8.0, GapPctMin: 8.0},
	}
}
