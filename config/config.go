package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/courtside/internal/application/engine"
	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full agent configuration.
type Config struct {
	Strategy StrategyConfig `yaml:"strategy"`
	Model    ModelConfig    `yaml:"model"`
	Policy   PolicyConfig   `yaml:"policy"`
	Venue    VenueConfig    `yaml:"venue"`
	Feed     FeedConfig     `yaml:"feed"`
	Storage  StorageConfig  `yaml:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// StrategyConfig holds the trade settings. Keys left out of the file keep
// their production values; an explicit 0 is kept as 0.
type StrategyConfig struct {
	MinEdge                float64 `yaml:"min_edge"`
	MaxEdge                float64 `yaml:"max_edge"`
	MaxExposurePct         float64 `yaml:"max_exposure_pct"`
	MaxOrdersPerSide       int     `yaml:"max_orders_per_side"`
	OrderLifetimeSec       float64 `yaml:"order_lifetime_sec"`
	SpreadCaptureThreshold float64 `yaml:"spread_capture_threshold"`
	InitialCapital         float64 `yaml:"initial_capital"`
	TakeProfitThreshold    float64 `yaml:"take_profit_threshold"`
	InventorySkew          float64 `yaml:"inventory_skew"`
	HalfSpread             float64 `yaml:"half_spread"`
	QuoteEdge              float64 `yaml:"quote_edge"`
	DirectionalBuffer      float64 `yaml:"directional_buffer"`
	CaptureBuffer          float64 `yaml:"capture_buffer"`
	EdgeSizeDivisor        float64 `yaml:"edge_size_divisor"`
	CapitalFraction        float64 `yaml:"capital_fraction"`
	MinClip                float64 `yaml:"min_clip"`
}

// ModelConfig selects the fair value model.
type ModelConfig struct {
	Name     string  `yaml:"name"`      // score_diff | multi_factor
	TimeUnit float64 `yaml:"time_unit"` // score_diff: seconds per time unit
	AwayTeam bool    `yaml:"away_team"` // multi_factor: the contract is on the away team
}

// PolicyConfig selects the quoting policy.
type PolicyConfig struct {
	Name string     `yaml:"name"` // layered | grid
	Grid GridConfig `yaml:"grid"`
}

// GridConfig tunes the grid policy; zero values keep the defaults.
type GridConfig struct {
	Levels           int     `yaml:"levels"`
	Interval         float64 `yaml:"interval"`
	CapitalFraction  float64 `yaml:"capital_fraction"`
	FlattenWindowSec float64 `yaml:"flatten_window_sec"`
	RequoteMidMove   float64 `yaml:"requote_mid_move"`
}

// VenueConfig controls the paper venue, the order throttle and the circuit
// breaker in front of the venue.
type VenueConfig struct {
	Instrument             string  `yaml:"instrument"`
	OrdersPerSecond        float64 `yaml:"orders_per_second"` // 0 disables the throttle
	Burst                  int     `yaml:"burst"`
	BreakerFailures        uint32  `yaml:"breaker_failures"`
	BreakerCooldownSeconds int     `yaml:"breaker_cooldown_seconds"`
}

// FeedConfig selects the event source. Replay wins when both are set.
type FeedConfig struct {
	Replay             string `yaml:"replay"`
	URL                string `yaml:"url"`
	Subscribe          string `yaml:"subscribe"` // sent verbatim after every connect
	MaxRetries         int    `yaml:"max_retries"`
	ReadTimeoutSeconds int    `yaml:"read_timeout_seconds"`
}

// StorageConfig controls where the journal is written.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // path to the SQLite file, or ":memory:"
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables /metrics
}

// LogConfig controls the logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML file and a .env file if present. Environment variables
// override the YAML for the keys they cover.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes, applying env overrides and defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Config{Strategy: strategyFrom(domain.DefaultTradeSetting())}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.TradeSetting().Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides overwrites values with environment variables when set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("COURTSIDE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("COURTSIDE_POLICY"); v != "" {
		cfg.Policy.Name = v
	}
	if v := os.Getenv("COURTSIDE_MODEL"); v != "" {
		cfg.Model.Name = v
	}
}

// setDefaults fills the values that must not be empty.
func setDefaults(cfg *Config) {
	if cfg.Model.Name == "" {
		cfg.Model.Name = "score_diff"
	}
	if cfg.Model.TimeUnit <= 0 {
		cfg.Model.TimeUnit = domain.NewScoreDiffModel().TimeUnit
	}
	if cfg.Policy.Name == "" {
		cfg.Policy.Name = "layered"
	}
	if cfg.Venue.Instrument == "" {
		cfg.Venue.Instrument = string(domain.TeamA)
	}
	if cfg.Venue.OrdersPerSecond > 0 && cfg.Venue.Burst <= 0 {
		cfg.Venue.Burst = max(1, int(cfg.Venue.OrdersPerSecond))
	}
	if cfg.Venue.BreakerFailures == 0 {
		cfg.Venue.BreakerFailures = 5
	}
	if cfg.Venue.BreakerCooldownSeconds <= 0 {
		cfg.Venue.BreakerCooldownSeconds = 30
	}
	if cfg.Feed.ReadTimeoutSeconds <= 0 {
		cfg.Feed.ReadTimeoutSeconds = 60
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "courtside.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// TradeSetting returns the immutable settings passed to the engine.
func (c *Config) TradeSetting() domain.TradeSetting {
	s := c.Strategy
	return domain.TradeSetting{
		MinEdge:                s.MinEdge,
		MaxEdge:                s.MaxEdge,
		MaxExposurePct:         s.MaxExposurePct,
		MaxOrdersPerSide:       s.MaxOrdersPerSide,
		OrderLifetimeSec:       s.OrderLifetimeSec,
		SpreadCaptureThreshold: s.SpreadCaptureThreshold,
		InitialCapital:         s.InitialCapital,
		TakeProfitThreshold:    s.TakeProfitThreshold,
		InventorySkew:          s.InventorySkew,
		HalfSpread:             s.HalfSpread,
		QuoteEdge:              s.QuoteEdge,
		DirectionalBuffer:      s.DirectionalBuffer,
		CaptureBuffer:          s.CaptureBuffer,
		EdgeSizeDivisor:        s.EdgeSizeDivisor,
		CapitalFraction:        s.CapitalFraction,
		MinClip:                s.MinClip,
	}
}

func strategyFrom(s domain.TradeSetting) StrategyConfig {
	return StrategyConfig{
		MinEdge:                s.MinEdge,
		MaxEdge:                s.MaxEdge,
		MaxExposurePct:         s.MaxExposurePct,
		MaxOrdersPerSide:       s.MaxOrdersPerSide,
		OrderLifetimeSec:       s.OrderLifetimeSec,
		SpreadCaptureThreshold: s.SpreadCaptureThreshold,
		InitialCapital:         s.InitialCapital,
		TakeProfitThreshold:    s.TakeProfitThreshold,
		InventorySkew:          s.InventorySkew,
		HalfSpread:             s.HalfSpread,
		QuoteEdge:              s.QuoteEdge,
		DirectionalBuffer:      s.DirectionalBuffer,
		CaptureBuffer:          s.CaptureBuffer,
		EdgeSizeDivisor:        s.EdgeSizeDivisor,
		CapitalFraction:        s.CapitalFraction,
		MinClip:                s.MinClip,
	}
}

// FairValueModel builds the configured model.
func (c *Config) FairValueModel() (domain.FairValueModel, error) {
	switch strings.ToLower(c.Model.Name) {
	case "score_diff":
		m := domain.NewScoreDiffModel()
		m.TimeUnit = c.Model.TimeUnit
		return m, nil
	case "multi_factor":
		m := domain.NewMultiFactorModel()
		m.AwayTeam = c.Model.AwayTeam
		return m, nil
	}
	return nil, fmt.Errorf("config.FairValueModel: unknown model %q", c.Model.Name)
}

// QuotingPolicy builds the configured policy.
func (c *Config) QuotingPolicy() (engine.Policy, error) {
	switch strings.ToLower(c.Policy.Name) {
	case "layered":
		return engine.LayeredPolicy{}, nil
	case "grid":
		g := engine.NewGridPolicy()
		gc := c.Policy.Grid
		if gc.Levels > 0 {
			g.Levels = gc.Levels
		}
		if gc.Interval > 0 {
			g.Interval = gc.Interval
		}
		if gc.CapitalFraction > 0 {
			g.CapitalFraction = gc.CapitalFraction
		}
		if gc.FlattenWindowSec > 0 {
			g.FlattenWindowSec = gc.FlattenWindowSec
		}
		if gc.RequoteMidMove > 0 {
			g.RequoteMidMove = gc.RequoteMidMove
		}
		return g, nil
	}
	return nil, fmt.Errorf("config.QuotingPolicy: unknown policy %q", c.Policy.Name)
}

// BreakerCooldown is how long the venue circuit stays open.
func (c *Config) BreakerCooldown() time.Duration {
	return time.Duration(c.Venue.BreakerCooldownSeconds) * time.Second
}

// ReadTimeout is the websocket silence tolerated before reconnecting.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Feed.ReadTimeoutSeconds) * time.Second
}
