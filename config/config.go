// Package config loads bot configuration from a YAML file or CLI flags.
package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"bandrev/internal/domain"
	"bandrev/internal/services/indicators"
)

// Email holds notification delivery settings. The SMTP password is read from
// the EMAIL_APP_PASSWORD environment variable, never from the file.
type Email struct {
	Enabled   bool   `yaml:"enabled"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Sender    string `yaml:"sender"`
	Recipient string `yaml:"recipient"`
}

// Config is the full bot configuration.
type Config struct {
	// Platform selects the candle/broker backend: "oanda" trades for real,
	// "dryrun" evaluates the pipeline on Binance public data without orders.
	Platform string `yaml:"platform"`
	// Environment selects the OANDA endpoint: "practice" or "live".
	Environment string `yaml:"environment"`

	Instruments    []string `yaml:"instruments"`
	Granularity    string   `yaml:"granularity"`
	CandlesToFetch int      `yaml:"candles_to_fetch"`

	TradeUnits   int64   `yaml:"trade_units"`
	StopLossPips float64 `yaml:"stop_loss_pips"`

	Indicators indicators.Config `yaml:"indicators"`

	ModelEndpoint string `yaml:"model_endpoint"`
	FeaturesPath  string `yaml:"features_path"`

	// Once runs a single evaluation cycle and exits (cron-style scheduling);
	// otherwise the bot polls on PollInterval.
	Once         bool          `yaml:"once"`
	PollInterval time.Duration `yaml:"poll_interval"`

	WALDir string `yaml:"wal_dir"`
	Email  Email  `yaml:"email"`
}

// Get loads configuration from --config when given, otherwise from CLI flags.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	instruments := flag.String("instruments", "EUR_USD", "comma-separated instruments, example: EUR_USD,GBP_USD")
	granularity := flag.String("granularity", "M15", "candle granularity, example: M15")
	platform := flag.String("platform", "oanda", "candle/broker backend: oanda or dryrun")
	environment := flag.String("environment", "practice", "OANDA environment: practice or live")
	units := flag.Int64("units", 1000, "units per trade")
	slPips := flag.Float64("slpips", 20, "stop-loss distance in pips")
	modelEndpoint := flag.String("model", "http://127.0.0.1:8801/predict", "inference service endpoint")
	featuresPath := flag.String("features", "model_features.json", "path to the ordered feature list")
	once := flag.Bool("once", false, "run a single evaluation cycle and exit")
	pollInterval := flag.Duration("pollinterval", 15*time.Minute, "evaluation interval when not running once")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	cfg := Config{
		Platform:      *platform,
		Environment:   *environment,
		Instruments:   splitInstruments(*instruments),
		Granularity:   *granularity,
		TradeUnits:    *units,
		StopLossPips:  *slPips,
		ModelEndpoint: *modelEndpoint,
		FeaturesPath:  *featuresPath,
		Once:          *once,
		PollInterval:  *pollInterval,
	}
	applyDefaults(&cfg)
	return cfg, cfg.validate()
}

func getYaml(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse config %s", path)
	}
	applyDefaults(&cfg)
	return cfg, cfg.validate()
}

func applyDefaults(cfg *Config) {
	if cfg.Platform == "" {
		cfg.Platform = "oanda"
	}
	if cfg.Environment == "" {
		cfg.Environment = "practice"
	}
	if cfg.Granularity == "" {
		cfg.Granularity = "M15"
	}
	if cfg.CandlesToFetch == 0 {
		cfg.CandlesToFetch = 100
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 15 * time.Minute
	}
	zero := indicators.Config{}
	if cfg.Indicators == zero {
		cfg.Indicators = indicators.DefaultConfig()
	}
	if cfg.Email.Port == 0 {
		cfg.Email.Port = 465
	}
}

func (c Config) validate() error {
	if len(c.Instruments) == 0 {
		return errors.Wrap(domain.ErrInvalidConfiguration, "at least one instrument is required")
	}
	for _, instrument := range c.Instruments {
		if instrument == "" {
			return errors.Wrap(domain.ErrInvalidConfiguration, "empty instrument name")
		}
	}
	if c.Platform != "oanda" && c.Platform != "dryrun" {
		return errors.Wrapf(domain.ErrInvalidConfiguration, "unsupported platform %q", c.Platform)
	}
	if c.TradeUnits <= 0 {
		return errors.Wrapf(domain.ErrInvalidConfiguration, "trade units must be positive, got %d", c.TradeUnits)
	}
	if c.StopLossPips <= 0 {
		return errors.Wrapf(domain.ErrInvalidConfiguration, "stop-loss pips must be positive, got %f", c.StopLossPips)
	}
	if c.CandlesToFetch <= 0 {
		return errors.Wrapf(domain.ErrInvalidConfiguration, "candles_to_fetch must be positive, got %d", c.CandlesToFetch)
	}
	if c.ModelEndpoint == "" {
		return errors.Wrap(domain.ErrInvalidConfiguration, "model endpoint is required")
	}
	if c.FeaturesPath == "" {
		return errors.Wrap(domain.ErrInvalidConfiguration, "features path is required")
	}
	return nil
}

func splitInstruments(raw string) []string {
	parts := strings.Split(raw, ",")
	instruments := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			instruments = append(instruments, trimmed)
		}
	}
	return instruments
}
