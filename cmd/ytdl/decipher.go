package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ytget/ytdl/youtube/watch"
)

func (a *app) decipherCmd() *cobra.Command {
	var script string
	var tokens bool

	cmd := &cobra.Command{
		Use:   "decipher --script <player-url> <cipher>...",
		Short: "Decipher signatures with a player script",
		Long: `decipher extracts the operation sequence of the player script and prints
the plaintext signature of each cipher argument on its own line. With --tokens
it prints the extracted sequence instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if script == "" {
				return errors.New("--script is required")
			}
			c := a.newClient(nil)
			out := cmd.OutOrStdout()

			if tokens {
				abs, err := watch.ResolvePlayerURL(a.cfg.BaseURL, script)
				if err != nil {
					return err
				}
				seq, err := c.Decipherer().Tokens(cmd.Context(), abs)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, seq)
				return err
			}

			if len(args) == 0 {
				return errors.New("at least one cipher is required")
			}
			sigs, err := c.Decipher(cmd.Context(), script, args...)
			if err != nil {
				return err
			}
			for _, s := range sigs {
				if _, err := fmt.Fprintln(out, s); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&script, "script", "", "player script URL, absolute or relative to --base-url")
	cmd.Flags().BoolVar(&tokens, "tokens", false, "print the extracted operation sequence")
	return cmd
}
