// Package ytdl resolves the playable media sources of a video: it loads the
// watch page, lists every source and deciphers the signatures of ciphered
// ones with the player script the page references.
//
// Basic usage:
//
//	video, err := ytdl.New().GetVideo(ctx, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
//	if err != nil {
//		return err
//	}
//	for _, s := range video.Formats {
//		fmt.Println(s.Itag, s.URL)
//	}
//
// Player script token sequences are cached per script version for the lifetime
// of the Client's Decipherer; share one Decipherer between clients to share
// the cache.
package ytdl

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/ytget/ytdl/errs"
	"github.com/ytget/ytdl/internal/logger"
	"github.com/ytget/ytdl/pkg/client"
	"github.com/ytget/ytdl/types"
	"github.com/ytget/ytdl/youtube/cipher"
	"github.com/ytget/ytdl/youtube/formats"
	"github.com/ytget/ytdl/youtube/watch"
)

// DefaultBaseURL is the site root watch pages are loaded from.
const DefaultBaseURL = "https://www.youtube.com"

// Video is a video's metadata with all of its sources.
type Video = types.VideoInfo

// Format describes one media source.
type Format = types.Format

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// Client loads videos and resolves their sources.
type Client struct {
	http       *client.Client
	decipherer *cipher.Decipherer
	baseURL    string
	log        *logger.ComponentLogger
}

// New creates a Client with the default HTTP client and a private cache.
func New() *Client {
	c := &Client{
		http:    client.New(),
		baseURL: DefaultBaseURL,
		log:     logger.WithComponent(logger.ComponentApp),
	}
	c.decipherer = cipher.NewDecipherer(cipher.FetcherFunc(c.fetch), nil)
	return c
}

func (c *Client) fetch(ctx context.Context, u string) (string, error) {
	return c.http.Fetch(ctx, u)
}

// WithHTTPClient sets the http.Client used for all network calls.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.http.HTTPClient = hc
	}
	return c
}

// WithClient replaces the retrying client, e.g. one built from configuration.
func (c *Client) WithClient(cl *client.Client) *Client {
	if cl != nil {
		c.http = cl
	}
	return c
}

// WithDecipherer sets the Decipherer, and with it the token sequence cache.
func (c *Client) WithDecipherer(d *cipher.Decipherer) *Client {
	if d != nil {
		c.decipherer = d
	}
	return c
}

// WithBaseURL sets the site root for watch pages and relative script URLs.
func (c *Client) WithBaseURL(base string) *Client {
	if base = strings.TrimSpace(base); base != "" {
		c.baseURL = strings.TrimRight(base, "/")
	}
	return c
}

// Decipherer returns the Decipherer in use.
func (c *Client) Decipherer() *cipher.Decipherer {
	return c.decipherer
}

// GetVideo loads the video identified by idOrURL and returns its metadata and
// sources. Ciphered sources get deciphered URLs; a source that cannot be
// deciphered is still listed and carries the reason in Format.Err. GetVideo
// fails only when the video is not playable, has no sources at all, or none
// of its sources could be resolved.
func (c *Client) GetVideo(ctx context.Context, idOrURL string) (*Video, error) {
	id, err := ExtractVideoID(idOrURL)
	if err != nil {
		return nil, err
	}
	log := c.log
	fields := map[string]interface{}{"video_id": id}

	html, err := c.http.Fetch(ctx, watch.URL(c.baseURL, id))
	if err != nil {
		return nil, fmt.Errorf("fetch watch page %s: %w", id, err)
	}
	page, err := watch.ParsePage(html)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", id, err)
	}

	video := &Video{ID: id, Status: "OK"}
	var list []types.Format
	if pr := page.Player; pr != nil {
		status := pr.PlayabilityStatus
		if perr := errs.FromPlayability(status.Status, status.Reason); perr != nil {
			log.Info("video not playable", fields, map[string]interface{}{"status": status.Status, "reason": status.Reason})
			return nil, fmt.Errorf("video %s: %s: %w", id, status.Reason, perr)
		}
		if status.Status != "" {
			video.Status = status.Status
		}
		video.Title = pr.VideoDetails.Title
		video.Uploader = pr.VideoDetails.Author
		video.Description = pr.VideoDetails.ShortDescription
		video.Duration = pr.Length()
		video.ViewCount = pr.Views()
		list = formats.ParseFormats(pr)
	}
	if len(list) == 0 && page.StreamMap != "" {
		if list, err = formats.ParseStreamMap(page.StreamMap); err != nil {
			return nil, fmt.Errorf("video %s: %w", id, err)
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("video %s: %w", id, errs.ErrNoSources)
	}

	if needsCipher(list) {
		list, err = c.resolve(ctx, page, list, video)
		if err != nil {
			return video, err
		}
	}
	video.Formats = list

	log.Debug("video resolved", fields, map[string]interface{}{"sources": len(list), "player_url": video.PlayerURL})
	return video, nil
}

func (c *Client) resolve(ctx context.Context, page *watch.Page, list []types.Format, video *Video) ([]types.Format, error) {
	scriptURL, err := watch.ResolvePlayerURL(c.baseURL, page.PlayerURL)
	if err != nil {
		markCiphered(list, err)
	} else {
		video.PlayerURL = scriptURL
		if list, err = formats.ResolveAll(ctx, c.decipherer, scriptURL, list); err != nil {
			c.log.Warn("signatures not deciphered", map[string]interface{}{
				"video_id":   video.ID,
				"player_url": scriptURL,
				"error":      err.Error(),
			})
		}
	}
	if !anyPlayable(list) {
		video.Formats = list
		if err == nil {
			err = errs.ErrCipherFailed
		}
		return list, fmt.Errorf("video %s: no playable source: %w", video.ID, err)
	}
	return list, nil
}

// Decipher returns the plaintext signatures of ciphers for the player script
// at scriptURL, which may be relative to the base URL.
func (c *Client) Decipher(ctx context.Context, scriptURL string, ciphers ...string) ([]string, error) {
	abs, err := watch.ResolvePlayerURL(c.baseURL, scriptURL)
	if err != nil {
		return nil, err
	}
	out, err := c.decipherer.DecipherAll(ctx, abs, ciphers)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCipherFailed, err)
	}
	return out, nil
}

// ExtractVideoID returns the video id of a watch, shorts, embed or youtu.be
// URL, or of a bare 11 character id.
func ExtractVideoID(idOrURL string) (string, error) {
	s := strings.TrimSpace(idOrURL)
	if videoIDRe.MatchString(s) {
		return s, nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%q: %w", idOrURL, errs.ErrInvalidVideoID)
	}

	var id string
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		switch {
		case strings.HasPrefix(u.Path, "/watch"):
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = strings.TrimPrefix(u.Path, "/shorts/")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = strings.TrimPrefix(u.Path, "/embed/")
		case strings.HasPrefix(u.Path, "/live/"):
			id = strings.TrimPrefix(u.Path, "/live/")
		}
		id = strings.Trim(id, "/")
	}
	if id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("%q: %w", idOrURL, errs.ErrInvalidVideoID)
	}
	return id, nil
}

func needsCipher(list []types.Format) bool {
	for _, f := range list {
		if f.Ciphered() {
			return true
		}
	}
	return false
}

func anyPlayable(list []types.Format) bool {
	for _, f := range list {
		if f.URL != "" {
			return true
		}
	}
	return false
}

func markCiphered(list []types.Format, err error) {
	for i := range list {
		if list[i].Ciphered() {
			list[i].Err = err.Error()
		}
	}
}
