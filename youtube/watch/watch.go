// Package watch parses a video watch page: the player script reference and
// the embedded player response carrying the media sources.
package watch

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ytget/ytdl/errs"
	"github.com/ytget/ytdl/internal/logger"
)

const (
	playerResponseMarker = "ytInitialPlayerResponse"
	legacyConfigMarker   = "ytplayer.config"
)

var (
	jsURLRe       = regexp.MustCompile(`"jsUrl"\s*:\s*("(?:[^"\\]|\\.)*")`)
	legacyJSURLRe = regexp.MustCompile(`"js"\s*:\s*("(?:[^"\\]|\\.)*")`)
)

var log = logger.WithComponent(logger.ComponentWatch)

// Format is a raw streaming format entry of the player response.
type Format struct {
	Itag            int    `json:"itag"`
	URL             string `json:"url"`
	MimeType        string `json:"mimeType"`
	Bitrate         int    `json:"bitrate"`
	ContentLength   string `json:"contentLength"`
	Quality         string `json:"quality"`
	QualityLabel    string `json:"qualityLabel"`
	SignatureCipher string `json:"signatureCipher"`
	Cipher          string `json:"cipher"`
}

// PlayerResponse is the subset of the embedded player response the module uses.
type PlayerResponse struct {
	StreamingData struct {
		Formats         []Format `json:"formats"`
		AdaptiveFormats []Format `json:"adaptiveFormats"`
	} `json:"streamingData"`
	VideoDetails struct {
		VideoID          string `json:"videoId"`
		Title            string `json:"title"`
		Author           string `json:"author"`
		LengthSeconds    string `json:"lengthSeconds"`
		ViewCount        string `json:"viewCount"`
		ShortDescription string `json:"shortDescription"`
	} `json:"videoDetails"`
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

// Length returns the video length in seconds, or 0 when unknown.
func (p *PlayerResponse) Length() int {
	n, err := strconv.Atoi(p.VideoDetails.LengthSeconds)
	if err != nil {
		return 0
	}
	return n
}

// Views returns the view count, or 0 when unknown.
func (p *PlayerResponse) Views() int64 {
	n, err := strconv.ParseInt(p.VideoDetails.ViewCount, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// AllFormats returns progressive formats followed by adaptive ones.
func (p *PlayerResponse) AllFormats() []Format {
	out := make([]Format, 0, len(p.StreamingData.Formats)+len(p.StreamingData.AdaptiveFormats))
	out = append(out, p.StreamingData.Formats...)
	return append(out, p.StreamingData.AdaptiveFormats...)
}

// legacyConfig is the older ytplayer.config page variable.
type legacyConfig struct {
	Assets struct {
		JS string `json:"js"`
	} `json:"assets"`
	Args map[string]any `json:"args"`
}

// Page is the parsed content of a watch page.
type Page struct {
	// PlayerURL is the player script reference as found on the page; it may be relative.
	PlayerURL string
	Player    *PlayerResponse
	// StreamMap is the legacy url_encoded_fmt_stream_map, if present.
	StreamMap string
}

// URL builds the watch page URL of videoID under base.
func URL(base, videoID string) string {
	q := url.Values{}
	q.Set("v", videoID)
	q.Set("hl", "en")
	return strings.TrimRight(base, "/") + "/watch?" + q.Encode()
}

// ParsePage extracts the player script URL and player response from html.
// It fails with errs.ErrNoSources when the page embeds neither a player
// response nor a legacy stream map.
func ParsePage(html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse watch page: %w", err)
	}

	page := &Page{}
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			if page.PlayerURL == "" && isPlayerScript(src) {
				page.PlayerURL = src
			}
			return
		}
		page.scanInline(s.Text())
	})

	if page.PlayerURL == "" {
		page.PlayerURL = findQuoted(jsURLRe, html)
	}
	if page.PlayerURL == "" {
		page.PlayerURL = findQuoted(legacyJSURLRe, html)
	}

	if page.Player == nil && page.StreamMap == "" {
		return nil, fmt.Errorf("watch page: %w", errs.ErrNoSources)
	}
	log.Debug("watch page parsed", map[string]interface{}{
		"player_url": page.PlayerURL,
		"legacy":     page.StreamMap != "",
	})
	return page, nil
}

func (p *Page) scanInline(text string) {
	if p.PlayerURL == "" {
		p.PlayerURL = findQuoted(jsURLRe, text)
	}
	if p.Player == nil {
		if body, ok := objectAfter(text, playerResponseMarker); ok {
			var pr PlayerResponse
			if err := json.NewDecoder(strings.NewReader(body)).Decode(&pr); err != nil {
				log.Warn("player response is not valid JSON", map[string]interface{}{"error": err.Error()})
			} else {
				p.Player = &pr
			}
		}
	}
	if body, ok := objectAfter(text, legacyConfigMarker); ok {
		p.applyLegacy(body)
	}
}

func (p *Page) applyLegacy(body string) {
	var cfg legacyConfig
	if err := json.NewDecoder(strings.NewReader(body)).Decode(&cfg); err != nil {
		log.Warn("legacy player config is not valid JSON", map[string]interface{}{"error": err.Error()})
		return
	}
	if p.PlayerURL == "" {
		p.PlayerURL = cfg.Assets.JS
	}
	if s, ok := cfg.Args["url_encoded_fmt_stream_map"].(string); ok && p.StreamMap == "" {
		p.StreamMap = s
	}
	if s, ok := cfg.Args["player_response"].(string); ok && p.Player == nil {
		var pr PlayerResponse
		if err := json.Unmarshal([]byte(s), &pr); err == nil {
			p.Player = &pr
		}
	}
}

// ResolvePlayerURL makes a page-relative script reference absolute against base.
func ResolvePlayerURL(base, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errs.ErrScriptNotFound
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse player url: %w", err)
	}
	return b.ResolveReference(r).String(), nil
}

func isPlayerScript(src string) bool {
	return strings.Contains(src, "/player/") || strings.Contains(src, "/player_ias") || strings.HasSuffix(src, "/base.js")
}

// findQuoted returns the JSON string captured by re, unescaped.
func findQuoted(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(m[1]), &s); err != nil {
		return ""
	}
	return s
}

// objectAfter returns text starting at the first '{' following marker and an
// assignment. The JSON decoder stops at the end of the first value, so the
// remainder of the script is ignored.
func objectAfter(text, marker string) (string, bool) {
	for {
		i := strings.Index(text, marker)
		if i < 0 {
			return "", false
		}
		rest := strings.TrimLeft(text[i+len(marker):], " \t\r\n")
		rest = strings.TrimPrefix(rest, "\"]")
		rest = strings.TrimLeft(rest, " \t\r\n")
		if strings.HasPrefix(rest, "=") {
			rest = strings.TrimLeft(rest[1:], " \t\r\n")
			if strings.HasPrefix(rest, "{") {
				return rest, true
			}
		}
		text = text[i+len(marker):]
	}
}
