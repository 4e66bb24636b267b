package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
)

// Level represents the logging level
type Level int

const (
	TRACE Level = iota
	DEBUG
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	TRACE: "TRACE",
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

var logrusLevels = map[Level]logrus.Level{
	TRACE: logrus.TraceLevel,
	DEBUG: logrus.DebugLevel,
	INFO:  logrus.InfoLevel,
	WARN:  logrus.WarnLevel,
	ERROR: logrus.ErrorLevel,
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// Component represents the logging component
type Component string

const (
	ComponentApp    Component = "app"
	ComponentCipher Component = "cipher"
	ComponentWatch  Component = "watch"
	ComponentFormat Component = "formats"
	ComponentClient Component = "client"
	ComponentServer Component = "server"
	ComponentClip   Component = "clip"
)

// Format represents the log output format
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatColor
)

// Config holds logger configuration
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer
	Components map[Component]bool
	ShowCaller bool
	Timestamp  bool
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:  INFO,
		Format: FormatText,
		Output: os.Stderr,
		Components: map[Component]bool{
			ComponentApp:    true,
			ComponentCipher: false,
			ComponentWatch:  false,
			ComponentFormat: false,
			ComponentClient: false,
			ComponentServer: true,
			ComponentClip:   false,
		},
		ShowCaller: false,
		Timestamp:  false,
	}
}

// Logger routes component log entries to a logrus logger.
type Logger struct {
	config *Config
	base   *logrus.Logger
	mu     sync.RWMutex
}

// New creates a new logger instance
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Components == nil {
		config.Components = make(map[Component]bool)
	}
	if config.Output == nil {
		config.Output = os.Stderr
	}
	l := &Logger{
		config: config,
		base:   logrus.New(),
	}
	l.apply()
	return l
}

// apply pushes the config into the logrus logger. Callers hold l.mu or own l.
func (l *Logger) apply() {
	l.base.SetOutput(l.config.Output)
	l.base.SetLevel(logrusLevels[l.config.Level])
	l.base.SetFormatter(newFormatter(l.config.Format, l.config.Timestamp))
}

func newFormatter(format Format, timestamp bool) logrus.Formatter {
	const layout = "2006-01-02 15:04:05"
	switch format {
	case FormatJSON:
		return &logrus.JSONFormatter{
			DisableTimestamp: !timestamp,
			TimestampFormat:  layout,
			FieldMap:         logrus.FieldMap{logrus.FieldKeyMsg: "message"},
		}
	case FormatColor:
		return &logrus.TextFormatter{
			ForceColors:      true,
			DisableTimestamp: !timestamp,
			FullTimestamp:    timestamp,
			TimestampFormat:  layout,
		}
	default:
		return &logrus.TextFormatter{
			DisableColors:    true,
			DisableTimestamp: !timestamp,
			FullTimestamp:    timestamp,
			TimestampFormat:  layout,
		}
	}
}

// WithComponent creates a new logger instance for a specific component
func (l *Logger) WithComponent(component Component) *ComponentLogger {
	return &ComponentLogger{
		logger:    l,
		component: component,
	}
}

// SetLevel changes the logging level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Level = level
	l.base.SetLevel(logrusLevels[level])
}

// SetFormat changes the log format
func (l *Logger) SetFormat(format Format) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Format = format
	l.base.SetFormatter(newFormatter(format, l.config.Timestamp))
}

// SetOutput changes the log output
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Output = w
	l.base.SetOutput(w)
}

// EnableComponent enables logging for a specific component
func (l *Logger) EnableComponent(component Component) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Components[component] = true
}

// DisableComponent disables logging for a specific component
func (l *Logger) DisableComponent(component Component) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Components[component] = false
}

// Enabled reports whether an entry at level for component would be written.
func (l *Logger) Enabled(level Level, component Component) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.config.Level && l.config.Components[component]
}

// Logrus exposes the underlying logger for libraries that take one.
func (l *Logger) Logrus() *logrus.Logger {
	return l.base
}

// log writes a log entry. skip is the number of frames between the caller
// of a ComponentLogger method and this function.
func (l *Logger) log(level Level, component Component, message string, fields map[string]interface{}, skip int) {
	l.mu.RLock()
	enabled := level >= l.config.Level && l.config.Components[component]
	showCaller := l.config.ShowCaller
	l.mu.RUnlock()
	if !enabled {
		return
	}

	entry := l.base.WithFields(logrus.Fields(fields)).WithField("component", string(component))
	if showCaller {
		if _, file, line, ok := runtime.Caller(skip + 1); ok {
			entry = entry.WithField("caller", fmt.Sprintf("%s:%d", filepath.Base(file), line))
		}
	}
	entry.Log(logrusLevels[level], message)
}

// ComponentLogger provides component-specific logging
type ComponentLogger struct {
	logger    *Logger
	component Component
}

// Trace logs a trace message
func (cl *ComponentLogger) Trace(message string, fields ...map[string]interface{}) {
	cl.log(TRACE, message, fields...)
}

// Debug logs a debug message
func (cl *ComponentLogger) Debug(message string, fields ...map[string]interface{}) {
	cl.log(DEBUG, message, fields...)
}

// Info logs an info message
func (cl *ComponentLogger) Info(message string, fields ...map[string]interface{}) {
	cl.log(INFO, message, fields...)
}

// Warn logs a warning message
func (cl *ComponentLogger) Warn(message string, fields ...map[string]interface{}) {
	cl.log(WARN, message, fields...)
}

// Error logs an error message
func (cl *ComponentLogger) Error(message string, fields ...map[string]interface{}) {
	cl.log(ERROR, message, fields...)
}

// log merges fields and forwards to the owning logger
func (cl *ComponentLogger) log(level Level, message string, fields ...map[string]interface{}) {
	var merged map[string]interface{}
	switch len(fields) {
	case 0:
	case 1:
		merged = fields[0]
	default:
		merged = make(map[string]interface{})
		for _, f := range fields {
			for k, v := range f {
				merged[k] = v
			}
		}
	}
	l := cl.logger
	if l == nil {
		l = GetGlobalLogger()
	}
	// Trace/Debug/... -> cl.log -> Logger.log
	l.log(level, cl.component, message, merged, 2)
}

// Global logger instance
var (
	globalMu     sync.RWMutex
	globalLogger = New(DefaultConfig())
)

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// WithComponent returns a component logger that writes to whatever logger
// is global when each entry is logged.
func WithComponent(component Component) *ComponentLogger {
	return &ComponentLogger{component: component}
}
