package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

// NewRotatingWriter returns a writer that rotates filename on a fixed period.
// Rotated files are named <filename>.<YYYYmmddHHMM> and filename itself is a
// link to the current one. A nil rotation uses DefaultLogConfig's.
func NewRotatingWriter(filename string, rotation *RotationConfig) (io.Writer, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, fmt.Errorf("empty log file path")
	}
	if rotation == nil {
		rotation = DefaultLogConfig().Rotation
	}
	if err := rotation.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	opts := []rotatelogs.Option{rotatelogs.WithLinkName(filename)}

	if every, _ := parseDuration(rotation.RotationTime); every > 0 {
		opts = append(opts, rotatelogs.WithRotationTime(every))
	}
	// rotatelogs rejects MaxAge and RotationCount together.
	if rotation.MaxBackups > 0 {
		opts = append(opts, rotatelogs.WithRotationCount(uint(rotation.MaxBackups)))
	} else if age, _ := parseDuration(rotation.MaxAge); age > 0 {
		opts = append(opts, rotatelogs.WithMaxAge(age))
	} else {
		opts = append(opts, rotatelogs.WithMaxAge(7*24*time.Hour))
	}

	w, err := rotatelogs.New(filename+".%Y%m%d%H%M", opts...)
	if err != nil {
		return nil, fmt.Errorf("open rotating log %s: %w", filename, err)
	}
	return w, nil
}
