package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ytget/ytdl/internal/clip"
	"github.com/ytget/ytdl/internal/logger"
	"github.com/ytget/ytdl/internal/server"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sources, GIF clips and metrics over HTTP",
		Long: `serve starts the HTTP server. The listen address defaults to :8080; the
PORT environment variable replaces that default.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			srv := server.New(a.newClient(reg), clip.New(a.cfg.FFmpegPath), reg)

			errc := make(chan error, 1)
			go func() { errc <- srv.Listen(a.cfg.ListenAddr()) }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			logger.WithComponent(logger.ComponentApp).Info("shutting down")
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				return err
			}
			return <-errc
		},
	}
	cmd.Flags().String("listen", ":8080", "address to listen on")
	cmd.Flags().String("ffmpeg", "ffmpeg", "path of the ffmpeg binary")
	return cmd
}
