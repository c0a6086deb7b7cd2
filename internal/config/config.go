package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"deal-radar/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Social    SocialConfig    `mapstructure:"social"`
	Sources   []SourceConfig  `mapstructure:"sources"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// SchedulerConfig governs job cadence. The scoring jobs run to completion on
// fixed intervals; the advisory lock keeps concurrent instances exclusive.
type SchedulerConfig struct {
	RadarInterval   time.Duration `mapstructure:"radar_interval"`
	TrendsInterval  time.Duration `mapstructure:"trends_interval"`
	WatchInterval   time.Duration `mapstructure:"watch_interval"`
	RunAtStart      bool          `mapstructure:"run_at_start"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
}

// ScoringConfig tunes the detection and scoring pipeline.
type ScoringConfig struct {
	DropThresholdPct   float64       `mapstructure:"drop_threshold_pct"`
	DropLookback       time.Duration `mapstructure:"drop_lookback"`
	RadarHistoryPoints int           `mapstructure:"radar_history_points"`
	TrendHistoryPoints int           `mapstructure:"trend_history_points"`
	DefaultCTR         float64       `mapstructure:"default_ctr"`
}

// SocialConfig defines announcement composition and queueing.
type SocialConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Platform      string        `mapstructure:"platform"`
	ScheduleDelay time.Duration `mapstructure:"schedule_delay"`
	MaxChars      int           `mapstructure:"max_chars"`
	HotDropPct    float64       `mapstructure:"hot_drop_pct"`
	Redis         RedisConfig   `mapstructure:"redis"`
}

// RedisConfig covers the announcement queue transport.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	QueueKey string `mapstructure:"queue_key"`
}

// SourceConfig describes one retailer catalog. An empty base_url selects the
// built-in static catalog for that retailer.
type SourceConfig struct {
	Name      string        `mapstructure:"name"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DEALRADAR")
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
	v.SetDefault("app.name", "dealradar")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.radar_interval", "1h")
	v.SetDefault("scheduler.trends_interval", "6h")
	v.SetDefault("scheduler.watch_interval", "1h")
	v.SetDefault("scheduler.run_at_start", true)
	v.SetDefault("scheduler.startup_delay", "0s")
	v.SetDefault("scheduler.advisory_lock_key", int64(0x6465616c))

	v.SetDefault("scoring.drop_threshold_pct", 10.0)
	v.SetDefault("scoring.drop_lookback", "24h")
	v.SetDefault("scoring.radar_history_points", 48)
	v.SetDefault("scoring.trend_history_points", 240)
	v.SetDefault("scoring.default_ctr", 0.0)

	v.SetDefault("social.enabled", false)
	v.SetDefault("social.platform", "twitter")
	v.SetDefault("social.schedule_delay", "20m")
	v.SetDefault("social.max_chars", 260)
	v.SetDefault("social.hot_drop_pct", 20.0)
	v.SetDefault("social.redis.enabled", false)
	v.SetDefault("social.redis.addr", "localhost:6379")
	v.SetDefault("social.redis.db", 0)
	v.SetDefault("social.redis.queue_key", "social-post")

	v.SetDefault("sources", []map[string]any{
		{"name": "retailerA"},
		{"name": "retailerB"},
		{"name": "retailerC"},
	})

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
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
	if c.Scheduler.RadarInterval <= 0 {
		return fmt.Errorf("scheduler.radar_interval must be greater than zero")
	}
	if c.Scheduler.TrendsInterval <= 0 {
		return fmt.Errorf("scheduler.trends_interval must be greater than zero")
	}
	if c.Scoring.DropThresholdPct < 0 {
		return fmt.Errorf("scoring.drop_threshold_pct cannot be negative")
	}
	if c.Scoring.DropLookback <= 0 {
		return fmt.Errorf("scoring.drop_lookback must be greater than zero")
	}
	if c.Social.MaxChars <= 3 {
		return fmt.Errorf("social.max_chars must exceed the ellipsis length")
	}
	if c.Social.Enabled && c.Social.Redis.Enabled && c.Social.Redis.Addr == "" {
		return fmt.Errorf("social.redis.addr is required when the redis queue is enabled")
	}
	for _, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("sources entries require a name")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
