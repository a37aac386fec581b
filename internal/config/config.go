package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/nbenliogludev/pagespeed-advisor/internal/browser"
	"github.com/nbenliogludev/pagespeed-advisor/internal/llm"
	"github.com/nbenliogludev/pagespeed-advisor/internal/report"
)

const EnvPrefix = "PSA"

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	OpenAIAPIKey      string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL     string        `mapstructure:"openai_base_url"`
	Model             string        `mapstructure:"model"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	ReportBaseURL     string        `mapstructure:"report_base_url"`
	Backend           string        `mapstructure:"backend"`
	Headless          bool          `mapstructure:"headless"`
	ElementTimeout    time.Duration `mapstructure:"element_timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	AdviceTimeout     time.Duration `mapstructure:"advice_timeout"`
	Format            string        `mapstructure:"format"`
	Output            string        `mapstructure:"output"`
	Snapshot          string        `mapstructure:"snapshot"`
	SaveSnapshot      string        `mapstructure:"save_snapshot"`
	SkipAdvice        bool          `mapstructure:"skip_advice"`
	LogLevel          string        `mapstructure:"log_level"`
}

// New returns a viper instance with defaults and environment lookups in
// place. Flags and a config file are layered on by the caller.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("model", llm.DefaultModel)
	v.SetDefault("max_tokens", llm.DefaultMaxTokens)
	v.SetDefault("report_base_url", report.DefaultReportBase)
	v.SetDefault("backend", browser.BackendPlaywright)
	v.SetDefault("headless", true)
	v.SetDefault("element_timeout", report.DefaultElementTimeout)
	v.SetDefault("navigation_timeout", 90*time.Second)
	v.SetDefault("advice_timeout", 3*time.Minute)
	v.SetDefault("format", FormatText)
	v.SetDefault("output", "")
	v.SetDefault("snapshot", "")
	v.SetDefault("save_snapshot", "")
	v.SetDefault("skip_advice", false)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	// The OpenAI SDKs' conventional variable names win over prefixed ones.
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY", EnvPrefix+"_OPENAI_API_KEY")
	_ = v.BindEnv("openai_base_url", "OPENAI_BASE_URL", EnvPrefix+"_OPENAI_BASE_URL")

	return v
}

// Load reads the optional config file named by path and decodes v.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Snapshot != "" {
		cfg.Backend = browser.BackendStatic
	}
	cfg.Format = strings.ToLower(cfg.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Backend {
	case browser.BackendPlaywright, browser.BackendChromedp:
	case browser.BackendStatic:
		if c.Snapshot == "" {
			errs = append(errs, fmt.Errorf("backend %q needs --snapshot", c.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}

	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		errs = append(errs, fmt.Errorf("unknown format %q", c.Format))
	}

	if c.ElementTimeout <= 0 {
		errs = append(errs, fmt.Errorf("element timeout must be positive"))
	}
	if c.NavigationTimeout <= 0 {
		errs = append(errs, fmt.Errorf("navigation timeout must be positive"))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}

	if !c.SkipAdvice {
		if c.OpenAIAPIKey == "" {
			errs = append(errs, llm.ErrMissingAPIKey)
		}
		if c.MaxTokens <= 0 {
			errs = append(errs, fmt.Errorf("max tokens must be positive"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func (c *Config) LLM() llm.Config {
	return llm.Config{
		APIKey:    c.OpenAIAPIKey,
		BaseURL:   c.OpenAIBaseURL,
		Model:     c.Model,
		MaxTokens: c.MaxTokens,
		Timeout:   c.AdviceTimeout,
	}
}

func (c *Config) Browser() browser.Options {
	return browser.Options{
		Backend:           c.Backend,
		Headless:          c.Headless,
		NavigationTimeout: c.NavigationTimeout,
		SnapshotPath:      c.Snapshot,
	}
}

func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
