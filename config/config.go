package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/paperledger/market"
	"github.com/rustyeddy/paperledger/risk"
)

// Config is the complete service configuration.
type Config struct {
	Storage StorageConfig `json:"storage" yaml:"storage"`
	Risk    RiskConfig    `json:"risk" yaml:"risk"`
	Market  MarketConfig  `json:"market" yaml:"market"`
	Cache   CacheConfig   `json:"cache" yaml:"cache"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// StorageConfig locates the SQLite ledger.
type StorageConfig struct {
	Path string `json:"path" yaml:"path"`
}

// RiskConfig carries the gate thresholds. Percentages are fractions:
// 0.02 means two percent.
type RiskConfig struct {
	MaxPositionPct    float64 `json:"max_position_pct" yaml:"max_position_pct"`
	MaxOpenPositions  int     `json:"max_open_positions" yaml:"max_open_positions"`
	DailyLossLimitPct float64 `json:"daily_loss_limit_pct" yaml:"daily_loss_limit_pct"`
	MinStopLossPct    float64 `json:"min_stop_loss_pct" yaml:"min_stop_loss_pct"`
	MaxStopLossPct    float64 `json:"max_stop_loss_pct" yaml:"max_stop_loss_pct"`
	RiskPerTradePct   float64 `json:"risk_per_trade_pct" yaml:"risk_per_trade_pct"`
}

// Policy converts the thresholds into the gate's policy struct.
func (r RiskConfig) Policy() risk.Policy {
	return risk.Policy{
		MaxPositionPct:    r.MaxPositionPct,
		MaxOpenPositions:  r.MaxOpenPositions,
		DailyLossLimitPct: r.DailyLossLimitPct,
		MinStopLossPct:    r.MinStopLossPct,
		MaxStopLossPct:    r.MaxStopLossPct,
		RiskPerTradePct:   r.RiskPerTradePct,
	}
}

// MarketConfig defines the trading window. Times are "HH:MM" in Timezone.
type MarketConfig struct {
	Open     string `json:"open" yaml:"open"`
	Close    string `json:"close" yaml:"close"`
	Timezone string `json:"timezone" yaml:"timezone"`
}

// Window parses the configured hours into a market window.
func (m MarketConfig) Window() (market.Window, error) {
	return market.ParseWindow(m.Open, m.Close, m.Timezone)
}

// CacheConfig selects the analysis-cache backend.
type CacheConfig struct {
	Backend       string `json:"backend" yaml:"backend"` // "sqlite" or "redis"
	RedisAddr     string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
	TTLMinutes    int    `json:"ttl_minutes" yaml:"ttl_minutes"`
}

// TTL returns the configured analysis lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// ServerConfig tunes the HTTP listener.
type ServerConfig struct {
	Host           string `json:"host" yaml:"host"`
	Port           int    `json:"port" yaml:"port"`
	RequestTimeout string `json:"request_timeout" yaml:"request_timeout"`
	RateLimitRPS   int    `json:"rate_limit_rps" yaml:"rate_limit_rps"`
}

// Addr is the host:port the server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Timeout parses the request timeout, defaulting to ten seconds.
func (s ServerConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(s.RequestTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// LogConfig sets log verbosity.
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// Default returns the configuration the service runs with when no file is
// given: NSE hours, SQLite for both ledger and cache.
func Default() *Config {
	p := risk.Default()
	return &Config{
		Storage: StorageConfig{Path: "paperledger.db"},
		Risk: RiskConfig{
			MaxPositionPct:    p.MaxPositionPct,
			MaxOpenPositions:  p.MaxOpenPositions,
			DailyLossLimitPct: p.DailyLossLimitPct,
			MinStopLossPct:    p.MinStopLossPct,
			MaxStopLossPct:    p.MaxStopLossPct,
			RiskPerTradePct:   p.RiskPerTradePct,
		},
		Market: MarketConfig{Open: "09:30", Close: "15:15", Timezone: "Asia/Kolkata"},
		Cache:  CacheConfig{Backend: "sqlite", TTLMinutes: 30},
		Server: ServerConfig{Host: "127.0.0.1", Port: 8087, RequestTimeout: "10s", RateLimitRPS: 50},
		Log:    LogConfig{Level: "info"},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file, layered over
// the defaults so a partial file only overrides what it names.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML or JSON based on extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Risk.MaxPositionPct <= 0 || c.Risk.MaxPositionPct > 1 {
		return fmt.Errorf("risk.max_position_pct must be in (0, 1]")
	}
	if c.Risk.MaxOpenPositions <= 0 {
		return fmt.Errorf("risk.max_open_positions must be positive")
	}
	if c.Risk.DailyLossLimitPct <= 0 || c.Risk.DailyLossLimitPct > 1 {
		return fmt.Errorf("risk.daily_loss_limit_pct must be in (0, 1]")
	}
	if c.Risk.MinStopLossPct <= 0 || c.Risk.MaxStopLossPct <= c.Risk.MinStopLossPct {
		return fmt.Errorf("risk stop-loss band must satisfy 0 < min < max")
	}
	if c.Risk.RiskPerTradePct <= 0 || c.Risk.RiskPerTradePct > 1 {
		return fmt.Errorf("risk.risk_per_trade_pct must be in (0, 1]")
	}
	if _, err := c.Market.Window(); err != nil {
		return fmt.Errorf("market window: %w", err)
	}
	switch c.Cache.Backend {
	case "sqlite":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr required for redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be 'sqlite' or 'redis'")
	}
	if c.Cache.TTLMinutes <= 0 {
		return fmt.Errorf("cache.ttl_minutes must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid port")
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("server.rate_limit_rps must be positive")
	}
	return nil
}
