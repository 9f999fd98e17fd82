// Package config loads the bot configuration: YAML file for tunables,
// environment (.env supported) for secrets and overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tradekit/autobot/internal/domain"
)

// Config is the full bot configuration.
type Config struct {
	Trading TradingConfig `yaml:"trading"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`

	// Secrets, environment only — never in the YAML file.
	PrivateKey string `yaml:"-"`
	Twilio     TwilioConfig
}

// TradingConfig controls sizing, exits, and the pre-trade guards.
type TradingConfig struct {
	IntervalSeconds int     `yaml:"interval_seconds"`
	TradeSizeUSDC   float64 `yaml:"trade_size_usdc"`
	TakeProfitPct   float64 `yaml:"take_profit_pct"`
	StopLossPct     float64 `yaml:"stop_loss_pct"`

	MaxPositions     int     `yaml:"max_positions"`
	PortfolioCapUSDC float64 `yaml:"portfolio_cap_usdc"`
	DailyCapUSDC     float64 `yaml:"daily_cap_usdc"`
	MaxSpreadCents   int     `yaml:"max_spread_cents"`
	MaxNewPerCycle   int     `yaml:"max_new_per_cycle"`

	MinEdge      float64 `yaml:"min_edge"`
	MinLiquidity float64 `yaml:"min_liquidity"`
}

// APIConfig holds the service endpoints.
type APIConfig struct {
	CLOBBase   string `yaml:"clob_base"`
	GammaBase  string `yaml:"gamma_base"`
	PolygonRPC string `yaml:"polygon_rpc"`
}

// StorageConfig selects and locates the ledger backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // json | sqlite
	Path    string `yaml:"path"`
}

// LogConfig controls log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// TwilioConfig enables SMS trade notifications when all fields are set.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

// Load reads the YAML file, applies .env and environment overrides, then
// fills defaults. Env vars win over YAML for the keys they cover.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// PollInterval returns the cycle interval as a time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Trading.IntervalSeconds) * time.Second
}

// Limits assembles the guard limits from the trading section.
func (c *Config) Limits() domain.Limits {
	return domain.Limits{
		MaxPositions:     c.Trading.MaxPositions,
		PortfolioCapUSDC: c.Trading.PortfolioCapUSDC,
		DailyCapUSDC:     c.Trading.DailyCapUSDC,
		MaxSpreadCents:   c.Trading.MaxSpreadCents,
		MaxNewPerCycle:   c.Trading.MaxNewPerCycle,
	}
}

// Scoring assembles the strategy tuning knobs.
func (c *Config) Scoring() domain.ScoringConfig {
	return domain.ScoringConfig{
		MinEdge:      c.Trading.MinEdge,
		MinLiquidity: c.Trading.MinLiquidity,
	}
}

func applyEnvOverrides(cfg *Config) {
	cfg.PrivateKey = os.Getenv("PRIVATE_KEY")
	cfg.Twilio = TwilioConfig{
		AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		From:       os.Getenv("TWILIO_FROM"),
		To:         os.Getenv("SMS_TO"),
	}

	if v := os.Getenv("POLYGON_RPC"); v != "" {
		cfg.API.PolygonRPC = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Trading.IntervalSeconds <= 0 {
		cfg.Trading.IntervalSeconds = 120
	}
	if cfg.Trading.TradeSizeUSDC <= 0 {
		cfg.Trading.TradeSizeUSDC = 5
	}
	if cfg.Trading.TakeProfitPct <= 0 {
		cfg.Trading.TakeProfitPct = 0.30
	}
	if cfg.Trading.StopLossPct <= 0 {
		cfg.Trading.StopLossPct = 0.25
	}
	if cfg.Trading.MaxPositions <= 0 {
		cfg.Trading.MaxPositions = 10
	}
	if cfg.Trading.PortfolioCapUSDC <= 0 {
		cfg.Trading.PortfolioCapUSDC = 100
	}
	if cfg.Trading.DailyCapUSDC <= 0 {
		cfg.Trading.DailyCapUSDC = 25
	}
	if cfg.Trading.MaxSpreadCents <= 0 {
		cfg.Trading.MaxSpreadCents = 7
	}
	if cfg.Trading.MaxNewPerCycle <= 0 {
		cfg.Trading.MaxNewPerCycle = 2
	}
	if cfg.Trading.MinEdge <= 0 {
		cfg.Trading.MinEdge = 0.05
	}
	if cfg.Trading.MinLiquidity <= 0 {
		cfg.Trading.MinLiquidity = 3000
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.PolygonRPC == "" {
		cfg.API.PolygonRPC = "https://polygon-rpc.com"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "json"
	}
	if cfg.Storage.Path == "" {
		if cfg.Storage.Backend == "sqlite" {
			cfg.Storage.Path = "autobot.db"
		} else {
			cfg.Storage.Path = "state.json"
		}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
