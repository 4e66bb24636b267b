// Package config loads ytdl settings from flags, YTDL_* environment
// variables and an optional YAML file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ytget/ytdl/internal/logger"
	"github.com/ytget/ytdl/pkg/client"
)

// Config holds all settings. The `mapstructure` tags match the flag names.
type Config struct {
	HTTPTimeout time.Duration `mapstructure:"http-timeout"`
	HTTPRetries int           `mapstructure:"http-retries"`
	UserAgent   string        `mapstructure:"user-agent"`
	Proxy       string        `mapstructure:"proxy"`
	BaseURL     string        `mapstructure:"base-url"`

	Listen     string `mapstructure:"listen"`
	Port       int    `mapstructure:"port"`
	FFmpegPath string `mapstructure:"ffmpeg"`

	LogLevel      string `mapstructure:"log-level"`
	LogFormat     string `mapstructure:"log-format"`
	LogOutput     string `mapstructure:"log-output"`
	LogComponents string `mapstructure:"log-components"`
	LogTimestamp  bool   `mapstructure:"log-timestamp"`
}

const (
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	DefaultBaseURL   = "https://www.youtube.com"
)

var defaults = map[string]any{
	"http-timeout":   30 * time.Second,
	"http-retries":   3,
	"user-agent":     DefaultUserAgent,
	"proxy":          "",
	"base-url":       DefaultBaseURL,
	"listen":         ":8080",
	"ffmpeg":         "ffmpeg",
	"log-level":      "info",
	"log-format":     "text",
	"log-output":     "stderr",
	"log-components": "app,server",
	"log-timestamp":  false,
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix("YTDL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	// PORT is honoured without prefix for platforms that assign it.
	_ = v.BindEnv("port", "PORT")
	return v
}

// RegisterFlags adds the persistent flags shared by every command.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "YAML config file")
	fs.Duration("http-timeout", defaults["http-timeout"].(time.Duration), "timeout of a single HTTP request")
	fs.Int("http-retries", defaults["http-retries"].(int), "retries on network errors and 5xx responses")
	fs.String("user-agent", DefaultUserAgent, "User-Agent header sent with every request")
	fs.String("proxy", "", "HTTP(S) proxy URL")
	fs.String("base-url", DefaultBaseURL, "site root used for watch pages and relative script URLs")
	fs.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	fs.String("log-format", "text", "log format (text, json, color)")
	fs.String("log-output", "stderr", "log output (stdout, stderr, none, file:<path>)")
	fs.String("log-components", "app,server", "comma separated components to log, or all")
	fs.Bool("log-timestamp", false, "include timestamps in log entries")
}

// BindFlags binds every flag of fs to the key of the same name.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(flag *pflag.Flag) {
		if flag.Name == "config" {
			return
		}
		if bindErr := v.BindPFlag(flag.Name, flag); bindErr != nil {
			err = errors.Join(err, bindErr)
		}
	})
	return err
}

// Load reads configFile when set and unmarshals the merged settings.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http-timeout must be positive, got %s", c.HTTPTimeout)
	}
	if c.HTTPRetries < 0 {
		return fmt.Errorf("http-retries must be non-negative, got %d", c.HTTPRetries)
	}
	if c.BaseURL == "" {
		return errors.New("base-url must not be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	return c.LogConfig().ValidateConfig()
}

// ListenAddr returns the server address. PORT replaces the default listen
// address but not one set explicitly.
func (c *Config) ListenAddr() string {
	if c.Port > 0 && (c.Listen == "" || c.Listen == defaults["listen"]) {
		return fmt.Sprintf(":%d", c.Port)
	}
	return c.Listen
}

// ClientConfig maps the http-* settings onto the HTTP client configuration.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		Timeout:   c.HTTPTimeout,
		Retries:   c.HTTPRetries,
		UserAgent: c.UserAgent,
		ProxyURL:  c.Proxy,
	}
}

// LogConfig maps the log-* settings onto a logger configuration.
func (c *Config) LogConfig() *logger.LogConfig {
	lc := logger.DefaultLogConfig()
	lc.Level = c.LogLevel
	lc.Format = c.LogFormat
	lc.Output = c.LogOutput
	lc.Timestamp = c.LogTimestamp
	if c.LogComponents != "" {
		lc.Components = logger.ParseComponents(c.LogComponents)
	}
	return lc
}

// SetupLogging installs the global logger described by c.
func (c *Config) SetupLogging() error {
	l, err := logger.CreateLoggerFromConfig(c.LogConfig())
	if err != nil {
		return err
	}
	logger.SetGlobalLogger(l)
	return nil
}
