// Package config loads and validates sitemapdiag configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment override, e.g. SITEMAPDIAG_PROBE_WORKERS.
const EnvPrefix = "SITEMAPDIAG"

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Probe   ProbeConfig   `mapstructure:"probe"`
	Report  ReportConfig  `mapstructure:"report"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// HTTPConfig configures the shared HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
	MaxBodyBytes   int    `mapstructure:"max_body_bytes"`
}

// ProbeConfig governs the accessibility check.
type ProbeConfig struct {
	Workers             int  `mapstructure:"workers"`
	FollowHeadRedirects bool `mapstructure:"follow_head_redirects"`
	AbortOnError        bool `mapstructure:"abort_on_error"`
}

// ReportConfig sets where results land.
type ReportConfig struct {
	OutputDir   string `mapstructure:"output_dir"`
	MetricsFile string `mapstructure:"metrics_file"`
}

// LoggingConfig toggles zap development features and the level. An empty
// level means debug in development mode and warn otherwise.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// flagKeys maps config keys to the CLI flags that override them.
var flagKeys = map[string]string{
	"http.timeout_seconds":        "timeout",
	"http.user_agent":             "user-agent",
	"probe.workers":               "workers",
	"probe.follow_head_redirects": "follow-head-redirects",
	"probe.abort_on_error":        "abort-on-error",
	"report.output_dir":           "output-dir",
	"report.metrics_file":         "metrics-file",
	"logging.development":         "verbose",
	"logging.level":               "log-level",
}

// Load builds a Config from defaults, an optional file, the environment, and
// any flags in flags that were set explicitly.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.user_agent", "sitemapdiag/1.0")
	v.SetDefault("http.max_body_bytes", 0)
	v.SetDefault("probe.workers", 1)
	v.SetDefault("probe.follow_head_redirects", false)
	v.SetDefault("probe.abort_on_error", false)
	v.SetDefault("report.output_dir", ".")
	v.SetDefault("report.metrics_file", "")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.HTTP.TimeoutSeconds < 0 {
		return fmt.Errorf("http.timeout_seconds must be >= 0")
	}
	if strings.TrimSpace(c.HTTP.UserAgent) == "" {
		return fmt.Errorf("http.user_agent must be set")
	}
	if c.HTTP.MaxBodyBytes < 0 {
		return fmt.Errorf("http.max_body_bytes must be >= 0")
	}
	if c.Probe.Workers <= 0 {
		return fmt.Errorf("probe.workers must be > 0")
	}
	if strings.TrimSpace(c.Report.OutputDir) == "" {
		return fmt.Errorf("report.output_dir must be set")
	}
	if c.Logging.Level != "" {
		if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("logging.level: %w", err)
		}
	}
	return nil
}

// RequestTimeout converts the HTTP timeout into a duration. Zero disables it.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
