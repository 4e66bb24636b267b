package main

import (
	"encoding/json"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ytget/ytdl"
	"github.com/ytget/ytdl/internal/config"
	"github.com/ytget/ytdl/pkg/client"
	"github.com/ytget/ytdl/youtube/cipher"
)

type app struct {
	v   *viper.Viper
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "ytdl",
		Short: "Resolve playable video sources and decipher their signatures",
		Long: `ytdl loads a video's watch page, lists every media source and deciphers
the signature of ciphered sources with the player script the page references.

Settings come from flags, YTDL_* environment variables (YTDL_HTTP_TIMEOUT,
YTDL_LOG_LEVEL, ...) and an optional YAML file given with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
				return err
			}
			file, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(a.v, file)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return cfg.SetupLogging()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(a.sourcesCmd(), a.decipherCmd(), a.serveCmd())
	return root
}

// newClient wires the configured HTTP client, a token cache reporting to reg
// (when non-nil) and the video client.
func (a *app) newClient(reg prometheus.Registerer) *ytdl.Client {
	httpc := client.NewWith(a.cfg.ClientConfig())
	cache := cipher.NewCache().WithMetrics(cipher.NewMetrics(reg))
	return ytdl.New().
		WithClient(httpc).
		WithDecipherer(cipher.NewDecipherer(httpc, cache)).
		WithBaseURL(a.cfg.BaseURL)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
