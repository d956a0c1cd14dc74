package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"vol-scanner/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Backfill  BackfillConfig  `mapstructure:"backfill"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Server    ServerConfig    `mapstructure:"server"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Universe  UniverseConfig  `mapstructure:"universe"`
	Export    ExportConfig    `mapstructure:"export"`
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
}

// ProviderConfig captures market-data provider connectivity.
type ProviderConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	APIKey           string        `mapstructure:"api_key"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	UserAgent        string        `mapstructure:"user_agent"`
	MaxAttempts      int           `mapstructure:"max_attempts"`
	BackoffBase      time.Duration `mapstructure:"backoff_base"`
	RateLimitBackoff time.Duration `mapstructure:"rate_limit_backoff"`
}

// ScanConfig tunes the IV/RV scan pipeline.
type ScanConfig struct {
	Window        int   `mapstructure:"window"`
	Windows       []int `mapstructure:"windows"`
	TradingDays   int   `mapstructure:"trading_days"`
	Top           int   `mapstructure:"top"`
	UnscoredLimit int   `mapstructure:"unscored_limit"`
	MaxSymbols    int   `mapstructure:"max_symbols"`
	ChunkSize     int   `mapstructure:"chunk_size"`
	Workers       int   `mapstructure:"workers"`
}

// BackfillConfig governs the historical price backfill job.
type BackfillConfig struct {
	LookbackDays int `mapstructure:"lookback_days"`
}

// SchedulerConfig governs the periodic scan cadence.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToBucket   bool          `mapstructure:"align_to_bucket"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// ServerConfig describes the HTTP API listener.
type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AlertingConfig defines score alert thresholds and routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	MinScore float64        `mapstructure:"min_score"`
	Cooldown time.Duration  `mapstructure:"cooldown"`
	Channels []string       `mapstructure:"channels"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig holds Telegram alert delivery parameters.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// UniverseConfig locates the ticker universe source.
type UniverseConfig struct {
	CSVPath string `mapstructure:"csv_path"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VOLSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keep the provider key usable via its conventional name too.
	_ = v.BindEnv("provider.api_key", "VOLSCAN_PROVIDER_API_KEY", "MARKETDATA_API_KEY")

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
	v.SetDefault("app.name", "volscan")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("provider.base_url", "https://api.marketdata.app/v1")
	v.SetDefault("provider.request_timeout", "30s")
	v.SetDefault("provider.user_agent", "volscan/1.0")
	v.SetDefault("provider.max_attempts", 5)
	v.SetDefault("provider.backoff_base", "1s")
	v.SetDefault("provider.rate_limit_backoff", "1500ms")

	v.SetDefault("scan.window", 20)
	v.SetDefault("scan.windows", []int{20, 60})
	v.SetDefault("scan.trading_days", 252)
	v.SetDefault("scan.top", 50)
	v.SetDefault("scan.unscored_limit", 10)
	v.SetDefault("scan.max_symbols", 80)
	v.SetDefault("scan.chunk_size", 20)
	v.SetDefault("scan.workers", 8)

	v.SetDefault("backfill.lookback_days", 730)

	v.SetDefault("scheduler.interval", "1h")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.advisory_lock_key", int64(0x766f6c73))
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("server.listen_addr", ":8000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.min_score", 0.5)
	v.SetDefault("alerting.cooldown", "6h")
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("universe.csv_path", "sp500.csv")

	v.SetDefault("export.max_data_points", 100000)
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
	if c.Scan.Window <= 1 {
		return fmt.Errorf("scan.window must be greater than one")
	}
	if !containsInt(c.Scan.Windows, c.Scan.Window) {
		return fmt.Errorf("scan.window %d must be one of scan.windows %v", c.Scan.Window, c.Scan.Windows)
	}
	for _, w := range c.Scan.Windows {
		if w <= 1 {
			return fmt.Errorf("scan.windows entries must be greater than one, got %d", w)
		}
	}
	if c.Scan.TradingDays <= 0 {
		return fmt.Errorf("scan.trading_days must be greater than zero")
	}
	if c.Scan.Top <= 0 {
		return fmt.Errorf("scan.top must be greater than zero")
	}
	if c.Scan.UnscoredLimit < 0 {
		return fmt.Errorf("scan.unscored_limit cannot be negative")
	}
	if c.Scan.MaxSymbols <= 0 {
		return fmt.Errorf("scan.max_symbols must be greater than zero")
	}
	if c.Scan.ChunkSize <= 0 {
		return fmt.Errorf("scan.chunk_size must be greater than zero")
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be greater than zero")
	}
	if c.Provider.MaxAttempts <= 0 {
		return fmt.Errorf("provider.max_attempts must be greater than zero")
	}
	if c.Backfill.LookbackDays <= 0 {
		return fmt.Errorf("backfill.lookback_days must be greater than zero")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Alerting.MinScore < 0 {
		return fmt.Errorf("alerting.min_score cannot be negative")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

// RequireAPIKey fails when the provider credential is absent.
// Commands that talk to the provider call this before doing any work.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.Provider.APIKey) == "" {
		return fmt.Errorf("provider.api_key is required (set VOLSCAN_PROVIDER_API_KEY or MARKETDATA_API_KEY)")
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

func containsInt(values []int, want int) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
