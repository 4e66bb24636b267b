package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// LogConfig represents the complete logging configuration
type LogConfig struct {
	Level      string          `json:"level" mapstructure:"level"`
	Format     string          `json:"format" mapstructure:"format"`
	Output     string          `json:"output" mapstructure:"output"`
	Components map[string]bool `json:"components" mapstructure:"components"`
	ShowCaller bool            `json:"show_caller" mapstructure:"show_caller"`
	Timestamp  bool            `json:"timestamp" mapstructure:"timestamp"`
	Rotation   *RotationConfig `json:"rotation,omitempty" mapstructure:"rotation"`
}

// RotationConfig controls time based rotation of file output.
type RotationConfig struct {
	RotationTime string `json:"rotation_time" mapstructure:"rotation_time"` // e.g. "24h", "6h"
	MaxAge       string `json:"max_age" mapstructure:"max_age"`             // e.g. "7d"; ignored when MaxBackups is set
	MaxBackups   int    `json:"max_backups" mapstructure:"max_backups"`     // number of rotated files kept
}

// DefaultLogConfig returns default logging configuration
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:  "INFO",
		Format: "text",
		Output: "stderr",
		Components: map[string]bool{
			"app":     true,
			"cipher":  false,
			"watch":   false,
			"formats": false,
			"client":  false,
			"server":  true,
			"clip":    false,
		},
		ShowCaller: false,
		Timestamp:  false,
		Rotation: &RotationConfig{
			RotationTime: "24h",
			MaxAge:       "7d",
		},
	}
}

// LoadConfigFromFile loads configuration from a JSON file
func LoadConfigFromFile(filename string) (*LogConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config LogConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfigToFile saves configuration to a JSON file
func (c *LogConfig) SaveConfigToFile(filename string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ToLoggerConfig converts LogConfig to logger.Config, opening the output.
func (c *LogConfig) ToLoggerConfig() (*Config, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}

	format, err := parseFormat(c.Format)
	if err != nil {
		return nil, fmt.Errorf("parse format: %w", err)
	}

	output, err := parseOutput(c.Output, c.Rotation)
	if err != nil {
		return nil, fmt.Errorf("parse output: %w", err)
	}

	components := make(map[Component]bool)
	for name, enabled := range c.Components {
		components[Component(name)] = enabled
	}

	return &Config{
		Level:      level,
		Format:     format,
		Output:     output,
		Components: components,
		ShowCaller: c.ShowCaller,
		Timestamp:  c.Timestamp,
	}, nil
}

// parseLevel parses level string to Level enum
func parseLevel(levelStr string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown level: %s", levelStr)
	}
}

// parseFormat parses format string to Format enum
func parseFormat(formatStr string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(formatStr)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "color", "colored":
		return FormatColor, nil
	default:
		return FormatText, fmt.Errorf("unknown format: %s", formatStr)
	}
}

// parseOutput resolves stdout, stderr, null/none or file:<path>. File
// output is rotated per rotation.
func parseOutput(outputStr string, rotation *RotationConfig) (io.Writer, error) {
	switch strings.ToLower(outputStr) {
	case "stdout":
		return os.Stdout, nil
	case "stderr", "":
		return os.Stderr, nil
	case "null", "none":
		return io.Discard, nil
	default:
		if strings.HasPrefix(outputStr, "file:") {
			return NewRotatingWriter(strings.TrimPrefix(outputStr, "file:"), rotation)
		}
		return nil, fmt.Errorf("unknown output: %s", outputStr)
	}
}

// CreateLoggerFromConfig creates a logger from LogConfig
func CreateLoggerFromConfig(config *LogConfig) (*Logger, error) {
	loggerConfig, err := config.ToLoggerConfig()
	if err != nil {
		return nil, fmt.Errorf("convert config: %w", err)
	}

	return New(loggerConfig), nil
}

// EnvironmentConfig loads configuration from environment variables
func EnvironmentConfig() *LogConfig {
	config := DefaultLogConfig()
	config.ApplyEnv()
	return config
}

// ApplyEnv overrides c with the YTDL_LOG_* environment variables.
func (c *LogConfig) ApplyEnv() {
	if level := os.Getenv("YTDL_LOG_LEVEL"); level != "" {
		c.Level = level
	}
	if format := os.Getenv("YTDL_LOG_FORMAT"); format != "" {
		c.Format = format
	}
	if output := os.Getenv("YTDL_LOG_OUTPUT"); output != "" {
		c.Output = output
	}
	if caller := os.Getenv("YTDL_LOG_CALLER"); caller != "" {
		c.ShowCaller = caller == "true" || caller == "1"
	}
	if timestamp := os.Getenv("YTDL_LOG_TIMESTAMP"); timestamp != "" {
		c.Timestamp = timestamp == "true" || timestamp == "1"
	}

	if components := os.Getenv("YTDL_LOG_COMPONENTS"); components != "" {
		c.Components = ParseComponents(components)
	}
}

// ParseComponents turns "app,cipher" into an enable map. "all" enables
// every known component.
func ParseComponents(list string) map[string]bool {
	out := make(map[string]bool)
	for _, comp := range strings.Split(list, ",") {
		comp = strings.TrimSpace(comp)
		switch comp {
		case "":
		case "all":
			for _, known := range []Component{ComponentApp, ComponentCipher, ComponentWatch, ComponentFormat, ComponentClient, ComponentServer, ComponentClip} {
				out[string(known)] = true
			}
		default:
			out[comp] = true
		}
	}
	return out
}

// ValidateConfig validates the configuration without opening outputs.
func (c *LogConfig) ValidateConfig() error {
	if _, err := parseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}

	if _, err := parseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}

	switch out := strings.ToLower(c.Output); {
	case out == "stdout", out == "stderr", out == "", out == "null", out == "none":
	case strings.HasPrefix(c.Output, "file:") && len(c.Output) > len("file:"):
	default:
		return fmt.Errorf("invalid output: %s", c.Output)
	}

	if c.Rotation != nil {
		if err := c.Rotation.Validate(); err != nil {
			return fmt.Errorf("invalid rotation config: %w", err)
		}
	}

	return nil
}

// Validate validates rotation configuration
func (r *RotationConfig) Validate() error {
	if r.RotationTime != "" {
		if _, err := parseDuration(r.RotationTime); err != nil {
			return fmt.Errorf("invalid rotation_time: %w", err)
		}
	}

	if r.MaxAge != "" {
		if _, err := parseDuration(r.MaxAge); err != nil {
			return fmt.Errorf("invalid max_age: %w", err)
		}
	}

	if r.MaxBackups < 0 {
		return fmt.Errorf("max_backups must be non-negative")
	}

	return nil
}

// parseDuration parses duration string (e.g., "7d", "24h", "30m") to time.Duration
func parseDuration(durationStr string) (time.Duration, error) {
	durationStr = strings.TrimSpace(durationStr)
	if durationStr == "" {
		return 0, nil
	}

	var numStr, unit string
	for i, r := range durationStr {
		if r >= '0' && r <= '9' {
			numStr += string(r)
		} else {
			unit = durationStr[i:]
			break
		}
	}

	if numStr == "" {
		return 0, fmt.Errorf("no number found in duration: %s", durationStr)
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number: %w", err)
	}

	switch strings.ToLower(unit) {
	case "s", "sec", "second", "seconds":
		return time.Duration(num) * time.Second, nil
	case "m", "min", "minute", "minutes":
		return time.Duration(num) * time.Minute, nil
	case "h", "hour", "hours":
		return time.Duration(num) * time.Hour, nil
	case "d", "day", "days":
		return time.Duration(num) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown unit: %s", unit)
	}
}
