package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"fx-monitor/internal/analytics"
	"fx-monitor/internal/fetcher"
	"fx-monitor/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	ECB       ECBConfig       `mapstructure:"ecb"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// SchedulerConfig governs refresh cadence.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToBucket   bool          `mapstructure:"align_to_bucket"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
	Calendar        string        `mapstructure:"calendar"`
}

// ECBConfig covers the ECB data API.
type ECBConfig struct {
	BaseURL        string               `mapstructure:"base_url"`
	StartPeriod    string               `mapstructure:"start_period"`
	RequestTimeout time.Duration        `mapstructure:"request_timeout"`
	MaxRetries     int                  `mapstructure:"max_retries"`
	RetryBackoff   time.Duration        `mapstructure:"retry_backoff"`
	UserAgent      string               `mapstructure:"user_agent"`
	Source         string               `mapstructure:"source"`
	Pairs          []fetcher.PairConfig `mapstructure:"pairs"`
}

// AnalyticsConfig tunes the derived dashboard views.
type AnalyticsConfig struct {
	Range      string            `mapstructure:"range"`
	VolWindow  int               `mapstructure:"vol_window"`
	Bins       int               `mapstructure:"bins"`
	Normalized bool              `mapstructure:"normalized"`
	Events     []analytics.Event `mapstructure:"events"`
}

// AlertingConfig defines alert thresholds and routing.
type AlertingConfig struct {
	Enabled          bool           `mapstructure:"enabled"`
	MoveThresholdPct float64        `mapstructure:"move_threshold_pct"`
	HighVolatility   bool           `mapstructure:"high_volatility"`
	Channels         []string       `mapstructure:"channels"`
	Telegram         TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	APIBase  string        `mapstructure:"api_base"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ExportConfig sets file output behaviour.
type ExportConfig struct {
	OutputDir     string `mapstructure:"output_dir"`
	MaxDataPoints int    `mapstructure:"max_data_points"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FXMONITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "fxmonitor")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "1h")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.advisory_lock_key", int64(0x66786d6f))
	v.SetDefault("scheduler.startup_delay", "0s")
	v.SetDefault("scheduler.calendar", "xfra")

	v.SetDefault("ecb.base_url", "https://data-api.ecb.europa.eu/service/data/EXR")
	v.SetDefault("ecb.start_period", "2015-01-01")
	v.SetDefault("ecb.request_timeout", "30s")
	v.SetDefault("ecb.max_retries", 3)
	v.SetDefault("ecb.retry_backoff", "2s")
	v.SetDefault("ecb.user_agent", "fxmonitor/1.0")
	v.SetDefault("ecb.source", "ECB")

	v.SetDefault("analytics.range", string(analytics.Range90D))
	v.SetDefault("analytics.vol_window", analytics.DefaultVolWindow)
	v.SetDefault("analytics.bins", analytics.DefaultBins)
	v.SetDefault("analytics.normalized", false)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.move_threshold_pct", 1.0)
	v.SetDefault("alerting.high_volatility", true)
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.telegram.timeout", "10s")

	v.SetDefault("export.output_dir", "site/public/data")
	v.SetDefault("export.max_data_points", 5000)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", ":9108")
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", true)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.ECB.MaxRetries <= 0 {
		return fmt.Errorf("ecb.max_retries must be greater than zero")
	}
	if c.ECB.StartPeriod != "" {
		if _, err := time.Parse(analytics.DateLayout, c.ECB.StartPeriod); err != nil {
			return fmt.Errorf("ecb.start_period must be YYYY-MM-DD: %w", err)
		}
	}
	for i, p := range c.ECB.Pairs {
		if p.Pair == "" || p.Quote == "" || p.FileName == "" {
			return fmt.Errorf("ecb.pairs[%d] needs pair, quote and file", i)
		}
	}
	if _, err := analytics.ParseRange(c.Analytics.Range); err != nil {
		return fmt.Errorf("analytics.range: %w", err)
	}
	if c.Analytics.VolWindow < 2 {
		return fmt.Errorf("analytics.vol_window must be at least 2")
	}
	if c.Analytics.Bins <= 0 {
		return fmt.Errorf("analytics.bins must be greater than zero")
	}
	if c.Alerting.MoveThresholdPct < 0 {
		return fmt.Errorf("alerting.move_threshold_pct cannot be negative")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// ResolvePairs returns the configured pairs or the built-in set.
func (c *Config) ResolvePairs() []fetcher.PairConfig {
	if len(c.ECB.Pairs) > 0 {
		return c.ECB.Pairs
	}
	return fetcher.DefaultPairs()
}

// FindPair looks a pair up by name ("EUR/USD") or file name.
func (c *Config) FindPair(key string) (fetcher.PairConfig, bool) {
	for _, p := range c.ResolvePairs() {
		if strings.EqualFold(p.Pair, key) || p.FileName == key {
			return p, true
		}
	}
	return fetcher.PairConfig{}, false
}

// AnalyticsOptions converts the analytics section for BuildDashboard.
func (c *Config) AnalyticsOptions() analytics.Options {
	return analytics.Options{
		VolWindow:  c.Analytics.VolWindow,
		Bins:       c.Analytics.Bins,
		Normalized: c.Analytics.Normalized,
		Events:     c.Analytics.Events,
	}
}

// ResolveRange returns the override when set, else the configured range.
func (c *Config) ResolveRange(override string) (analytics.Range, error) {
	if override != "" {
		return analytics.ParseRange(override)
	}
	return analytics.ParseRange(c.Analytics.Range)
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
