// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBearerToken is the public bearer token used by the twitter.com web client.
const DefaultBearerToken = "AAAAAAAAAAAAAAAAAAAAANRILgAAAAAAnNwIzUejRCOuH5E6I8xnZz4puTs%3D1Zv7ttfk8LF81IUq16cHjhLTvJu4FA33AGWWjCpTnA"

// App captures process-wide runtime settings such as name, metrics, and logging.
type App struct {
	Name        string `yaml:"name"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	BroadcastWS bool   `yaml:"broadcast_ws"`
}

// Twitter holds the feed platform endpoints and the operator credentials.
type Twitter struct {
	APIBase        string `yaml:"api_base"`
	WebBase        string `yaml:"web_base"`
	BearerToken    string `yaml:"bearer_token"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	OperatorHandle string `yaml:"operator_handle"`
	TimeoutMs      int    `yaml:"timeout_ms"`
}

// Buy is the parameter set applied to every automated buy.
type Buy struct {
	AmountSOL      float64 `yaml:"amount_sol"`
	SlippagePct    float64 `yaml:"slippage_pct"`
	PriorityFeeSOL float64 `yaml:"priority_fee_sol"`
	Jito           bool    `yaml:"jito"`
	JitoTipSOL     float64 `yaml:"jito_tip_sol"`
}

// Sell is the parameter set applied to manual and automated sells.
type Sell struct {
	SlippagePct    float64 `yaml:"slippage_pct"`
	PriorityFeeSOL float64 `yaml:"priority_fee_sol"`
	Jito           bool    `yaml:"jito"`
	JitoTipSOL     float64 `yaml:"jito_tip_sol"`
	AutoSell       bool    `yaml:"auto_sell"`
	SellAt         float64 `yaml:"sell_at"` // unrealized gain in percent
}

// Risk encodes guard-rails for how much the dispatcher may put on.
type Risk struct {
	MaxBuySOL   float64 `yaml:"max_buy_sol"`
	MaxInFlight int     `yaml:"max_in_flight"`
}

// Strategy selects the extractor and classifier implementations.
type Strategy struct {
	Extractor  string `yaml:"extractor"`
	Classifier string `yaml:"classifier"`
}

// Monitor tunes the poll loop and follow-list reconciliation.
type Monitor struct {
	PollIntervalMs int `yaml:"poll_interval_ms"`
	FollowPauseMs  int `yaml:"follow_pause_ms"`
	FollowRateMs   int `yaml:"follow_rate_ms"`
	SeenHint       int `yaml:"seen_hint"`
	TimelineCount  int `yaml:"timeline_count"`
}

// Dedup bounds the seen-post set. Zero values keep it unbounded.
type Dedup struct {
	MaxEntries int `yaml:"max_entries"`
	TTLSecs    int `yaml:"ttl_secs"`
}

// Holdings configures the wallet watcher feeding auto-sell.
type Holdings struct {
	PortfolioBase string  `yaml:"portfolio_base"`
	RefreshMs     int     `yaml:"refresh_ms"`
	DustThreshold float64 `yaml:"dust_threshold"`
}

// Journal configures the JSONL trade journal.
type Journal struct {
	Path string `yaml:"path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Twitter  Twitter  `yaml:"twitter"`
	Users    []string `yaml:"users"`
	Buy      Buy      `yaml:"buy"`
	Sell     Sell     `yaml:"sell"`
	Risk     Risk     `yaml:"risk"`
	Strategy Strategy `yaml:"strategy"`
	Monitor  Monitor  `yaml:"monitor"`
	Dedup    Dedup    `yaml:"dedup"`
	Dex      Dex      `yaml:"dex"`
	Wallet   Wallet   `yaml:"wallet"`
	Holdings Holdings `yaml:"holdings"`
	Journal  Journal  `yaml:"journal"`
}

// Load reads a YAML file from disk, hydrates a Config struct and fills defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.ApplyDefaults()
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Default returns a config with every default applied and no users.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills zero-valued knobs.
func (c *Config) ApplyDefaults() {
	setString(&c.App.Name, "lytra")
	setString(&c.App.LogLevel, "info")

	setString(&c.Twitter.APIBase, "https://api.twitter.com")
	setString(&c.Twitter.WebBase, "https://twitter.com")
	setString(&c.Twitter.BearerToken, DefaultBearerToken)
	setString(&c.Twitter.OperatorHandle, c.Twitter.Username)
	setInt(&c.Twitter.TimeoutMs, 10_000)

	setFloat(&c.Buy.AmountSOL, 0.01)
	setFloat(&c.Buy.SlippagePct, 15)
	setFloat(&c.Buy.PriorityFeeSOL, 0.0005)
	setFloat(&c.Sell.SlippagePct, 15)
	setFloat(&c.Sell.PriorityFeeSOL, 0.0005)
	setFloat(&c.Sell.SellAt, 100)

	setString(&c.Strategy.Extractor, "mint")
	setString(&c.Strategy.Classifier, "pumpfun")

	setInt(&c.Monitor.PollIntervalMs, 2_000)
	setInt(&c.Monitor.FollowPauseMs, 2_000)
	setInt(&c.Monitor.FollowRateMs, 250)
	setInt(&c.Monitor.SeenHint, 200)
	setInt(&c.Monitor.TimelineCount, 20)

	c.Dex.applyDefaults()

	setString(&c.Holdings.PortfolioBase, "https://wallet-api.solflare.com")
	setInt(&c.Holdings.RefreshMs, 5_000)
	setFloat(&c.Holdings.DustThreshold, 0.0000001)
}

// Validate reports missing settings that would stop the monitor from starting.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Users) == 0 {
		errs = append(errs, errors.New("users: at least one account to watch is required"))
	}
	if strings.TrimSpace(c.Twitter.Username) == "" {
		errs = append(errs, errors.New("twitter.username is required"))
	}
	if c.Twitter.Password == "" {
		errs = append(errs, errors.New("twitter.password is required (or LYTRA_TWITTER_PASSWORD)"))
	}
	if c.Buy.AmountSOL <= 0 {
		errs = append(errs, errors.New("buy.amount_sol must be positive"))
	}
	if c.Sell.AutoSell && c.Sell.SellAt <= 0 {
		errs = append(errs, errors.New("sell.sell_at must be positive when auto_sell is on"))
	}
	return errors.Join(errs...)
}

// ApplyEnv overlays secrets and endpoints from the environment and an optional .env file.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load() // best-effort
	overlay(&c.Twitter.Username, "LYTRA_TWITTER_USERNAME")
	overlay(&c.Twitter.Password, "LYTRA_TWITTER_PASSWORD")
	overlay(&c.Dex.RpcURL, "SOLANA_RPC_URL")
	overlay(&c.Dex.Commitment, "SOLANA_COMMITMENT")
	overlay(&c.Dex.JupiterBase, "JUPITER_BASE_URL")
	overlay(&c.Wallet.PrivateKeyBase58, "SOLANA_PRIVATE_KEY_BASE58")
	if c.Twitter.OperatorHandle == "" {
		c.Twitter.OperatorHandle = c.Twitter.Username
	}
}

// PollInterval is the target spacing between poll cycle starts.
func (m Monitor) PollInterval() time.Duration {
	return time.Duration(m.PollIntervalMs) * time.Millisecond
}

// FollowPause is the gap between the unfollow and follow phases.
func (m Monitor) FollowPause() time.Duration {
	return time.Duration(m.FollowPauseMs) * time.Millisecond
}

// FollowRate is the minimum spacing between follow-list calls.
func (m Monitor) FollowRate() time.Duration {
	return time.Duration(m.FollowRateMs) * time.Millisecond
}

// Timeout is the per-request timeout for feed platform calls.
func (t Twitter) Timeout() time.Duration {
	return time.Duration(t.TimeoutMs) * time.Millisecond
}

// TTL is the dedup entry lifetime, zero when entries never expire.
func (d Dedup) TTL() time.Duration {
	return time.Duration(d.TTLSecs) * time.Second
}

// Refresh is the holdings polling interval.
func (h Holdings) Refresh() time.Duration {
	return time.Duration(h.RefreshMs) * time.Millisecond
}

func overlay(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setString(dst *string, def string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst <= 0 {
		*dst = def
	}
}

func setFloat(dst *float64, def float64) {
	if *dst <= 0 {
		*dst = def
	}
}
