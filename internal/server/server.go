// Package server exposes video sources and GIF clips over HTTP.
//
// Routes:
//
//	GET /                          endpoint listing
//	GET /watch?v=ID                video info and sources as JSON
//	GET /extract?url=&start=&end=  GIF clip of a googlevideo source
//	GET /metrics                   Prometheus metrics
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ytget/ytdl/internal/clip"
	"github.com/ytget/ytdl/internal/logger"
	"github.com/ytget/ytdl/internal/sanitize"
	"github.com/ytget/ytdl/types"
)

// RequestIDHeader carries the id assigned to each request.
const RequestIDHeader = fiber.HeaderXRequestID

const requestIDKey = "requestid"

// Videos resolves a video id or URL to its info and sources.
type Videos interface {
	GetVideo(ctx context.Context, idOrURL string) (*types.VideoInfo, error)
}

// Clipper cuts a GIF out of a media URL.
type Clipper interface {
	Make(ctx context.Context, url string, start, dur time.Duration) ([]byte, error)
}

type endpoint struct {
	Path           string `json:"path"`
	Method         string `json:"method"`
	RequiredParams any    `json:"required_params"`
	Description    string `json:"description"`
}

var help = struct {
	Endpoints []endpoint `json:"endpoints"`
}{
	Endpoints: []endpoint{
		{Path: "/", Method: fiber.MethodGet, RequiredParams: "", Description: "View this endpoint."},
		{Path: "/watch", Method: fiber.MethodGet, RequiredParams: map[string]string{
			"v": "the video id",
		}, Description: "get the video download urls"},
		{Path: "/extract", Method: fiber.MethodGet, RequiredParams: map[string]string{
			"url":   "the extracted video url from /watch endpoint",
			"start": "the start time in HH:MM:SS format",
			"end":   "the end time in HH:MM:SS format",
		}, Description: "extract gif from the video"},
		{Path: "/metrics", Method: fiber.MethodGet, RequiredParams: "", Description: "Prometheus metrics."},
	},
}

// Server is the HTTP front-end.
type Server struct {
	app      *fiber.App
	videos   Videos
	clips    Clipper
	requests *prometheus.CounterVec
	log      *logger.ComponentLogger
}

// New builds the server. Metrics of the process, including any collectors
// already registered on reg, are served from reg at /metrics.
func New(videos Videos, clips Clipper, reg *prometheus.Registry) *Server {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s := &Server{
		videos: videos,
		clips:  clips,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "ytdl_http_requests_total", Help: "Number of HTTP requests by route and status"},
			[]string{"route", "status"},
		),
		log: logger.WithComponent(logger.ComponentServer),
	}
	reg.MustRegister(s.requests)

	s.app = fiber.New(fiber.Config{
		AppName:               "ytdl",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(requestid.New(requestid.Config{
		Header:     RequestIDHeader,
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	s.app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${locals:" + requestIDKey + "} ${status} ${method} ${path} ${latency}\n",
		Output: logWriter{s.log},
	}))
	s.app.Use(s.count)

	s.app.Get("/", s.handleHelp)
	s.app.Get("/watch", s.handleWatch)
	s.app.Get("/extract", s.handleExtract)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info("listening", map[string]interface{}{"addr": addr})
	return s.app.Listen(addr)
}

// Shutdown stops the server, waiting for active requests up to ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) count(c *fiber.Ctx) error {
	err := c.Next()
	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	} else if err != nil {
		status = fiber.StatusInternalServerError
	}
	route := c.Route().Path
	if status == fiber.StatusNotFound || status == fiber.StatusMethodNotAllowed {
		route = "unmatched"
	}
	s.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	return err
}

func (s *Server) handleHelp(c *fiber.Ctx) error {
	return s.sendJSON(c, help)
}

func (s *Server) handleWatch(c *fiber.Ctx) error {
	id, err := requireQuery(c, "v")
	if err != nil {
		return err
	}
	video, err := s.videos.GetVideo(c.UserContext(), id)
	if err != nil {
		s.log.Warn("watch failed", map[string]interface{}{
			"request_id": c.Locals(requestIDKey),
			"video":      id,
			"error":      err.Error(),
		})
		return err
	}
	return s.sendJSON(c, video)
}

func (s *Server) handleExtract(c *fiber.Ctx) error {
	videoURL, err := requireQuery(c, "url")
	if err != nil {
		return err
	}
	if err := clip.ValidateURL(videoURL); err != nil {
		return errors.New("maybe not a video url? it should be from googlevideo.com")
	}
	startText, err := requireQuery(c, "start")
	if err != nil {
		return err
	}
	endText, err := requireQuery(c, "end")
	if err != nil {
		return err
	}
	start, err := clip.ParseTime(startText)
	if err != nil {
		return err
	}
	end, err := clip.ParseTime(endText)
	if err != nil {
		return err
	}
	dur, err := clip.Duration(start, end)
	if err != nil {
		return err
	}

	gif, err := s.clips.Make(c.UserContext(), videoURL, start, dur)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, clip.ContentType)
	c.Set(fiber.HeaderContentDisposition, sanitize.ContentDisposition("inline", clip.Filename(c.Query("name"))))
	return c.Send(gif)
}

func (s *Server) sendJSON(c *fiber.Ctx, v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// handleError renders unmatched routes as an empty 404 and every other
// failure as a 500 carrying the error text.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && (fe.Code == fiber.StatusNotFound || fe.Code == fiber.StatusMethodNotAllowed) {
		return c.Status(fiber.StatusNotFound).Send(nil)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(fiber.StatusInternalServerError).
		SendString(fmt.Sprintf(`<h2 style="color: red;"> Error </h2>: %s`, html.EscapeString(err.Error())))
}

func requireQuery(c *fiber.Ctx, key string) (string, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return "", fmt.Errorf("missing query parameter %s", key)
	}
	return v, nil
}

// logWriter feeds fiber's access log lines into the component logger.
type logWriter struct {
	log *logger.ComponentLogger
}

func (w logWriter) Write(p []byte) (int, error) {
	w.log.Info(strings.TrimSpace(string(p)))
	return len(p), nil
}
