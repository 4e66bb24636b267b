package main

import (
	"github.com/spf13/cobra"

	"github.com/ytget/ytdl/youtube/formats"
)

func (a *app) sourcesCmd() *cobra.Command {
	var quality, ext string

	cmd := &cobra.Command{
		Use:   "sources <video-url-or-id>",
		Short: "Print a video's info and sources as JSON",
		Example: `  ytdl sources dQw4w9WgXcQ
  ytdl sources https://youtu.be/dQw4w9WgXcQ --format best --ext mp4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			video, err := a.newClient(nil).GetVideo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if quality == "" && ext == "" {
				return writeJSON(cmd.OutOrStdout(), video)
			}

			f, err := formats.SelectFormat(video.Formats, quality, ext)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().StringVar(&quality, "format", "", "print one source: itag=NN, best, worst, height<=NNN or height>=NNN")
	cmd.Flags().StringVar(&ext, "ext", "", "print one source with this extension (mp4, webm, ...)")
	return cmd
}
