package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/newthinker/goldencross/internal/backtest"
	"github.com/newthinker/goldencross/internal/core"
)

// EnvPrefix is prepended to every environment override, e.g.
// GOLDENCROSS_BACKTEST_BUDGET
const EnvPrefix = "GOLDENCROSS"

type Config struct {
	Backtest  BacktestConfig  `mapstructure:"backtest"`
	Collector CollectorConfig `mapstructure:"collector"`
	Output    OutputConfig    `mapstructure:"output"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

// BacktestConfig holds the simulation parameters.
type BacktestConfig struct {
	Budget      float64 `mapstructure:"budget" validate:"gt=0"`
	ShortWindow int     `mapstructure:"short_window" validate:"min=1"`
	LongWindow  int     `mapstructure:"long_window" validate:"gtfield=ShortWindow"`
}

// CollectorConfig selects the market data provider.
type CollectorConfig struct {
	Provider      string        `mapstructure:"provider" validate:"oneof=yahoo polygon binance csv"`
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url" validate:"omitempty,url"`
	Path          string        `mapstructure:"path"` // csv provider, may contain {symbol}
	Timeout       time.Duration `mapstructure:"timeout" validate:"gte=0"`
	RatePerSecond float64       `mapstructure:"rate_per_second" validate:"gte=0"`
}

// OutputConfig describes where and how result files are written.
type OutputConfig struct {
	Type   string   `mapstructure:"type" validate:"oneof=localfs s3"`
	Path   string   `mapstructure:"path"`
	Format string   `mapstructure:"format" validate:"oneof=text json yaml"`
	S3     S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Textfile string `mapstructure:"textfile"` // node exporter textfile, empty to skip
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Params converts the backtest section into simulation parameters
func (c *Config) Params() backtest.Params {
	return backtest.Params{
		InitialBudget: c.Backtest.Budget,
		ShortWindow:   c.Backtest.ShortWindow,
		LongWindow:    c.Backtest.LongWindow,
	}
}

// Load reads configuration from file. An empty path yields the defaults
// with environment overrides applied. A .env file in the working directory
// is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("collector.api_key", EnvPrefix+"_COLLECTOR_API_KEY", "POLYGON_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("backtest.budget", d.Backtest.Budget)
	v.SetDefault("backtest.short_window", d.Backtest.ShortWindow)
	v.SetDefault("backtest.long_window", d.Backtest.LongWindow)

	v.SetDefault("collector.provider", d.Collector.Provider)
	v.SetDefault("collector.api_key", d.Collector.APIKey)
	v.SetDefault("collector.base_url", d.Collector.BaseURL)
	v.SetDefault("collector.path", d.Collector.Path)
	v.SetDefault("collector.timeout", d.Collector.Timeout)
	v.SetDefault("collector.rate_per_second", d.Collector.RatePerSecond)

	v.SetDefault("output.type", d.Output.Type)
	v.SetDefault("output.path", d.Output.Path)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.s3.bucket", d.Output.S3.Bucket)
	v.SetDefault("output.s3.endpoint", d.Output.S3.Endpoint)
	v.SetDefault("output.s3.region", d.Output.S3.Region)
	v.SetDefault("output.s3.access_key", d.Output.S3.AccessKey)
	v.SetDefault("output.s3.secret_key", d.Output.S3.SecretKey)
	v.SetDefault("output.s3.prefix", d.Output.S3.Prefix)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)

	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("log.level", d.Log.Level)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	params := backtest.DefaultParams()
	return &Config{
		Backtest: BacktestConfig{
			Budget:      params.InitialBudget,
			ShortWindow: params.ShortWindow,
			LongWindow:  params.LongWindow,
		},
		Collector: CollectorConfig{
			Provider:      "yahoo",
			Timeout:       10 * time.Second,
			RatePerSecond: 2,
		},
		Output: OutputConfig{
			Type:   "localfs",
			Path:   ".",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Simulation parameters first, their messages name the field
	if err := c.Params().Validate(); err != nil {
		return err
	}

	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("%s failed %q check, got %v", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	// Provider requirements
	switch c.Collector.Provider {
	case "polygon":
		if c.Collector.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("collector api_key required when provider is polygon"))
		}
	case "csv":
		if c.Collector.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("collector path required when provider is csv"))
		}
	}

	if c.Output.Type == "s3" && c.Output.S3.Bucket == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("output s3 bucket required when type is s3"))
	}

	return nil
}
