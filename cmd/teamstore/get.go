package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/teamstore/internal/errors"
)

func getCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the selected team",
		Long: `Print the selected team as JSON. Prints null when nothing is selected.

Examples:
  teamstore get
  teamstore get --dsn redis://localhost:6379/0`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			sel, store, err := openSelection(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			data, err := json.Marshal(sel.Get())
			if err != nil {
				return errors.New("E204").Wrap(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

// noArgs rejects positional arguments with a coded error.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return errors.New("E310").
			WithDetail(fmt.Sprintf("%q takes no arguments, got %d.", cmd.CommandPath(), len(args)))
	}
	return nil
}
