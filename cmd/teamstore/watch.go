package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/teamstore/pkg/server"
)

func watchCmd(opts *rootOptions) *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream selection changes from a running server",
		Long: `Connect to a running "teamstore serve" and print the selected team,
then every change, one JSON value per line. Stops on Ctrl+C.

Examples:
  teamstore watch
  teamstore watch --url http://teams.internal:8090`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if serverURL == "" {
				serverURL = "http://" + cfg.Server.Addr
			}
			watchURL, err := server.WatchURL(serverURL)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Debug("watching", "url", watchURL)
			out := cmd.OutOrStdout()
			return server.Watch(ctx, watchURL, func(v json.RawMessage) {
				fmt.Fprintln(out, string(v))
			})
		},
	}

	cmd.Flags().StringVarP(&serverURL, "url", "u", "", "Server URL (default http://<server.addr>)")

	return cmd
}
