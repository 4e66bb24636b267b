package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ytget/ytdl/errs"
	"github.com/ytget/ytdl/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// fasthttp refreshes its cached Date header from a process-wide goroutine.
		goleak.IgnoreAnyFunction("github.com/valyala/fasthttp.updateServerDate.func1"),
	)
}

const sourceURL = "https://r1.googlevideo.com/videoplayback?itag=18&sig=ABC"

type fakeVideos struct {
	video *types.VideoInfo
	err   error
	got   string
}

func (f *fakeVideos) GetVideo(ctx context.Context, idOrURL string) (*types.VideoInfo, error) {
	f.got = idOrURL
	return f.video, f.err
}

type fakeClipper struct {
	start, dur time.Duration
	url        string
	out        []byte
	err        error
}

func (f *fakeClipper) Make(ctx context.Context, u string, start, dur time.Duration) ([]byte, error) {
	f.url, f.start, f.dur = u, start, dur
	return f.out, f.err
}

func newTestServer(videos Videos, clips Clipper) *Server {
	if videos == nil {
		videos = &fakeVideos{}
	}
	if clips == nil {
		clips = &fakeClipper{}
	}
	return New(videos, clips, prometheus.NewRegistry())
}

func do(t *testing.T, s *Server, target string) (*http.Response, string) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, string(body)
}

func TestHelp(t *testing.T) {
	resp, body := do(t, newTestServer(nil, nil), "/")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got struct {
		Endpoints []struct {
			Path string `json:"path"`
		} `json:"endpoints"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	var paths []string
	for _, e := range got.Endpoints {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"/", "/watch", "/extract", "/metrics"}, paths)
}

func TestRequestID(t *testing.T) {
	resp, _ := do(t, newTestServer(nil, nil), "/")
	id := resp.Header.Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	assert.NoError(t, err, "request id %q", id)
}

func TestWatch(t *testing.T) {
	videos := &fakeVideos{video: &types.VideoInfo{
		ID:      "dQw4w9WgXcQ",
		Title:   "Test",
		Status:  "OK",
		Formats: []types.Format{{Itag: 18, URL: sourceURL, Signature: "ABC"}},
	}}
	resp, body := do(t, newTestServer(videos, nil), "/watch?v=dQw4w9WgXcQ")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "dQw4w9WgXcQ", videos.got)
	assert.Contains(t, body, "\n  \"id\": \"dQw4w9WgXcQ\"", "pretty printed")

	var got types.VideoInfo
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	require.Len(t, got.Formats, 1)
	assert.Equal(t, sourceURL, got.Formats[0].URL)
}

func TestWatch_Errors(t *testing.T) {
	resp, body := do(t, newTestServer(nil, nil), "/watch")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "missing query parameter v")
	assert.Contains(t, body, `<h2 style="color: red;"> Error </h2>`)

	videos := &fakeVideos{err: errs.ErrVideoUnavailable}
	resp, body = do(t, newTestServer(videos, nil), "/watch?v=gone")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "video unavailable")
}

func TestExtract(t *testing.T) {
	clips := &fakeClipper{out: []byte("GIF89a")}
	q := url.Values{}
	q.Set("url", sourceURL)
	q.Set("start", "1:00")
	q.Set("end", "1:20")

	resp, body := do(t, newTestServer(nil, clips), "/extract?"+q.Encode())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "GIF89a", body)
	assert.Equal(t, "image/gif", resp.Header.Get("Content-Type"))
	assert.Equal(t, `inline; filename="extracted.gif"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, sourceURL, clips.url)
	assert.Equal(t, time.Minute, clips.start)
	assert.Equal(t, 20*time.Second, clips.dur)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		want  string
	}{
		{"missing url", url.Values{"start": {"0"}, "end": {"5"}}, "missing query parameter url"},
		{"foreign url", url.Values{"url": {"https://example.com/v.mp4"}, "start": {"0"}, "end": {"5"}}, "googlevideo.com"},
		{"missing end", url.Values{"url": {sourceURL}, "start": {"0"}}, "missing query parameter end"},
		{"bad time", url.Values{"url": {sourceURL}, "start": {"99"}, "end": {"5"}}, "invalid time range"},
		{"reversed", url.Values{"url": {sourceURL}, "start": {"10"}, "end": {"5"}}, "invalid time range"},
		{"too long", url.Values{"url": {sourceURL}, "start": {"0:00"}, "end": {"1:00"}}, "invalid time range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, newTestServer(nil, nil), "/extract?"+tt.query.Encode())
			assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
			assert.Contains(t, body, tt.want)
		})
	}

	clips := &fakeClipper{err: errors.New("ffmpeg exploded")}
	q := url.Values{"url": {sourceURL}, "start": {"0"}, "end": {"5"}}
	resp, body := do(t, newTestServer(nil, clips), "/extract?"+q.Encode())
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "ffmpeg exploded")
}

func TestNotFound(t *testing.T) {
	s := newTestServer(nil, nil)
	resp, body := do(t, s, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, body)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodPost, "/watch", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(nil, nil)
	do(t, s, "/")
	do(t, s, "/nope")

	resp, body := do(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `ytdl_http_requests_total{route="/",status="200"} 1`)
	assert.True(t, strings.Contains(body, `route="unmatched",status="404"`), body)
}
