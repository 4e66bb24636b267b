// Package clip cuts a short animated GIF out of a media source with ffmpeg.
package clip

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ytget/ytdl/errs"
	"github.com/ytget/ytdl/internal/logger"
	"github.com/ytget/ytdl/internal/mimeext"
	"github.com/ytget/ytdl/internal/sanitize"
)

const (
	// MaxDuration bounds the length of a clip.
	MaxDuration = time.Minute
	// DefaultName is the base name of a clip when none is given.
	DefaultName = "extracted"
	// ContentType is the MIME type of produced clips.
	ContentType = mimeext.MimeImageGIF

	defaultFFmpeg = "ffmpeg"
	scaleFilter   = "scale=340:-1"

	videoHostSuffix = ".googlevideo.com"
	videoPath       = "/videoplayback"
)

var timeRe = regexp.MustCompile(`^(?:(?:([01]?\d|2[0-3]):)?([0-5]?\d):)?([0-5]?\d)$`)

// ParseTime parses "HH:MM:SS", "MM:SS" or "SS" into an offset.
func ParseTime(s string) (time.Duration, error) {
	m := timeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("%w: %q is not in HH:MM:SS format", errs.ErrInvalidTimeRange, s)
	}
	var d time.Duration
	for i, unit := range []time.Duration{time.Hour, time.Minute, time.Second} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %w", errs.ErrInvalidTimeRange, s, err)
		}
		d += time.Duration(n) * unit
	}
	return d, nil
}

// Duration returns end-start. The end must follow the start and the clip
// must be shorter than MaxDuration.
func Duration(start, end time.Duration) (time.Duration, error) {
	d := end - start
	if d <= 0 {
		return 0, fmt.Errorf("%w: end %s must follow start %s", errs.ErrInvalidTimeRange, end, start)
	}
	if d >= MaxDuration {
		return 0, fmt.Errorf("%w: clip of %s must be shorter than %s", errs.ErrInvalidTimeRange, d, MaxDuration)
	}
	return d, nil
}

// ValidateURL accepts only media URLs served from googlevideo.com.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("not a googlevideo.com videoplayback url: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case u.Scheme != "http" && u.Scheme != "https",
		u.User != nil,
		!strings.HasSuffix(host, videoHostSuffix),
		u.Path != videoPath:
		return fmt.Errorf("not a googlevideo.com videoplayback url: %q", raw)
	}
	return nil
}

// Filename returns the file name used for a clip titled title.
func Filename(title string) string {
	if strings.TrimSpace(title) == "" {
		title = DefaultName
	}
	return sanitize.ToSafeFilename(title, mimeext.ExtGIF)
}

// Runner executes a command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner. The command's stderr is included in the error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Maker produces GIF clips.
type Maker struct {
	ffmpeg string
	runner Runner
	log    *logger.ComponentLogger
}

// New returns a Maker running the ffmpeg binary at path, or "ffmpeg" from
// PATH when empty.
func New(path string) *Maker {
	if path == "" {
		path = defaultFFmpeg
	}
	return &Maker{
		ffmpeg: path,
		runner: ExecRunner{},
		log:    logger.WithComponent(logger.ComponentClip),
	}
}

// WithRunner replaces the command runner.
func (m *Maker) WithRunner(r Runner) *Maker {
	if r != nil {
		m.runner = r
	}
	return m
}

// Args returns the ffmpeg arguments for a clip of src from start lasting dur,
// written as GIF to stdout.
func Args(src string, start, dur time.Duration) []string {
	return []string{
		"-v", "error",
		"-ss", timestamp(start),
		"-t", timestamp(dur),
		"-i", src,
		"-f", "gif",
		"-hide_banner",
		"-vf", scaleFilter,
		"pipe:1",
	}
}

// Make returns the GIF bytes of the clip.
func (m *Maker) Make(ctx context.Context, src string, start, dur time.Duration) ([]byte, error) {
	if err := ValidateURL(src); err != nil {
		return nil, err
	}
	if dur <= 0 || dur >= MaxDuration {
		return nil, fmt.Errorf("%w: duration %s", errs.ErrInvalidTimeRange, dur)
	}

	started := time.Now()
	out, err := m.runner.Run(ctx, m.ffmpeg, Args(src, start, dur)...)
	if err != nil {
		m.log.Error("ffmpeg failed", map[string]interface{}{"error": err.Error(), "start": timestamp(start)})
		return nil, fmt.Errorf("make gif, maybe a bad url or a missing signature: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("make gif: ffmpeg produced no output")
	}
	m.log.Debug("clip made", map[string]interface{}{
		"start":    timestamp(start),
		"duration": timestamp(dur),
		"bytes":    len(out),
		"took":     time.Since(started).String(),
	})
	return out, nil
}

// timestamp formats d as HH:MM:SS for ffmpeg.
func timestamp(d time.Duration) string {
	s := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s/60%60, s%60)
}
