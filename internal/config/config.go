package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/indicator"
	"github.com/newthinker/swingdesk/internal/strategy"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Storage   StorageConfig             `mapstructure:"storage"`
	Collector CollectorConfig           `mapstructure:"collector"`
	Analysis  AnalysisConfig            `mapstructure:"analysis"`
	Portfolio PortfolioConfig           `mapstructure:"portfolio"`
	Screener  ScreenerConfig            `mapstructure:"screener"`
	Notifiers map[string]NotifierConfig `mapstructure:"notifiers"`
	Router    RouterConfig              `mapstructure:"router"`
	LLM       LLMConfig                 `mapstructure:"llm"`
	Schedule  ScheduleConfig            `mapstructure:"schedule"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Mode        string `mapstructure:"mode"`
	APIKey      string `mapstructure:"api_key"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

type StorageConfig struct {
	Watchlists WatchlistStorageConfig `mapstructure:"watchlists"`
	Signals    SignalStorageConfig    `mapstructure:"signals"`
}

// WatchlistStorageConfig selects where the watchlist CSV files live.
type WatchlistStorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// SignalStorageConfig configures signal history. An empty DSN keeps history in memory.
type SignalStorageConfig struct {
	DSN           string `mapstructure:"dsn"`
	RetentionDays int    `mapstructure:"retention_days"`
}

type CollectorConfig struct {
	Provider string        `mapstructure:"provider"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type AnalysisConfig struct {
	Indicators     indicator.Params    `mapstructure:"indicators"`
	Thresholds     strategy.Thresholds `mapstructure:"thresholds"`
	LookbackDays   int                 `mapstructure:"lookback_days"`
	MaxConcurrency int                 `mapstructure:"max_concurrency"`
}

// PortfolioConfig holds long-term projection settings and the defaults for
// newly added holdings.
type PortfolioConfig struct {
	CAGRYears           int     `mapstructure:"cagr_years"`
	DefaultYears        int     `mapstructure:"default_years"`
	MaxYears            int     `mapstructure:"max_years"`
	DefaultCost         float64 `mapstructure:"default_cost"`
	DefaultShares       float64 `mapstructure:"default_shares"`
	DefaultContribution float64 `mapstructure:"default_contribution"`
}

type ScreenerConfig struct {
	Universe     []string `mapstructure:"universe"`
	Size         int      `mapstructure:"size"`
	MinVolume    float64  `mapstructure:"min_volume"`
	LookbackDays int      `mapstructure:"lookback_days"`
}

type NotifierConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	URL      string `mapstructure:"url"`
	// Webhook notifier fields
	Headers map[string]string `mapstructure:"headers"`
}

type RouterConfig struct {
	CooldownHours int      `mapstructure:"cooldown_hours"`
	MinStrength   int      `mapstructure:"min_strength"`
	Actions       []string `mapstructure:"actions"`
}

type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Claude   ClaudeConfig  `mapstructure:"claude"`
	OpenAI   OpenAIConfig  `mapstructure:"openai"`
}

type ClaudeConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// ScheduleConfig holds cron specs (seconds field first). Empty disables the job.
type ScheduleConfig struct {
	Refresh  string `mapstructure:"refresh"`
	Timezone string `mapstructure:"timezone"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file on top of Defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvPrefix("SWINGDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	// Lists from the file replace the defaults rather than merging into them.
	if v.IsSet("screener.universe") {
		cfg.Screener.Universe = nil
	}
	if v.IsSet("router.actions") {
		cfg.Router.Actions = nil
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// DefaultUniverse is the large-cap list the top-25 screener draws from.
var DefaultUniverse = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "META", "TSLA", "NVDA", "JPM", "V", "WMT",
	"PG", "JNJ", "UNH", "HD", "DIS", "MA", "PYPL", "NFLX", "ADBE", "CRM",
	"INTC", "CSCO", "PFE", "KO", "PEP", "XOM", "CVX", "BAC", "ABBV", "T",
	"VZ", "MRK", "CMCSA", "ORCL", "NKE", "MCD", "IBM", "QCOM", "TXN", "AMD",
	"AVGO", "COST", "LLY", "TMO", "DHR", "NEE", "LIN", "HON", "UNP", "BRK-B",
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Mode:        "release",
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Storage: StorageConfig{
			Watchlists: WatchlistStorageConfig{
				Type: "localfs",
				Path: "./data",
			},
			Signals: SignalStorageConfig{
				RetentionDays: 90,
			},
		},
		Collector: CollectorConfig{
			Provider: "yahoo",
			Timeout:  10 * time.Second,
		},
		Analysis: AnalysisConfig{
			Indicators:     indicator.DefaultParams(),
			Thresholds:     strategy.DefaultThresholds(),
			LookbackDays:   730,
			MaxConcurrency: 4,
		},
		Portfolio: PortfolioConfig{
			CAGRYears:           5,
			DefaultYears:        10,
			MaxYears:            25,
			DefaultCost:         100,
			DefaultShares:       10,
			DefaultContribution: 200,
		},
		Screener: ScreenerConfig{
			Universe:     append([]string(nil), DefaultUniverse...),
			Size:         25,
			MinVolume:    1_000_000,
			LookbackDays: 30,
		},
		Router: RouterConfig{
			CooldownHours: 4,
			MinStrength:   50,
			Actions:       []string{"strong_buy", "buy", "sell", "strong_sell"},
		},
		LLM: LLMConfig{
			Timeout: 30 * time.Second,
		},
		Schedule: ScheduleConfig{
			Refresh: "0 30 21 * * 1-5",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	// Storage validation
	switch c.Storage.Watchlists.Type {
	case "", "localfs":
	case "s3":
		if c.Storage.Watchlists.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when watchlist storage is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown watchlist storage type %q", c.Storage.Watchlists.Type))
	}

	if c.Collector.Provider == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("collector provider required"))
	}

	// Analysis validation
	if err := c.Analysis.Indicators.Validate(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("analysis.indicators: %w", err))
	}
	if err := c.Analysis.Thresholds.Validate(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("analysis.thresholds: %w", err))
	}
	if c.Analysis.MaxConcurrency < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_concurrency must be at least 1, got %d", c.Analysis.MaxConcurrency))
	}
	if c.Analysis.LookbackDays < c.Analysis.Indicators.LongWindow {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("lookback_days (%d) cannot cover long_window (%d)", c.Analysis.LookbackDays, c.Analysis.Indicators.LongWindow))
	}

	// Portfolio validation
	if c.Portfolio.MaxYears < 1 || c.Portfolio.DefaultYears < 1 || c.Portfolio.DefaultYears > c.Portfolio.MaxYears {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("portfolio years must satisfy 1 <= default_years (%d) <= max_years (%d)", c.Portfolio.DefaultYears, c.Portfolio.MaxYears))
	}
	if c.Portfolio.DefaultCost < 0 || c.Portfolio.DefaultShares < 0 || c.Portfolio.DefaultContribution < 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("portfolio defaults cannot be negative"))
	}

	// Screener validation
	if c.Screener.Size < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("screener size must be positive, got %d", c.Screener.Size))
	}

	// Router validation
	if c.Router.MinStrength < 0 || c.Router.MinStrength > 90 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_strength must be between 0 and 90, got %d", c.Router.MinStrength))
	}
	if c.Router.CooldownHours < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("cooldown_hours cannot be negative, got %d", c.Router.CooldownHours))
	}
	for _, a := range c.Router.Actions {
		if _, ok := core.ParseAction(a); !ok {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown router action %q", a))
		}
	}

	// LLM validation - if provider set, check config exists
	if c.LLM.Provider != "" {
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
		}
	}

	if c.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("schedule timezone: %w", err))
		}
	}

	return nil
}
