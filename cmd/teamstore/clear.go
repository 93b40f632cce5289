package main

import (
	"github.com/spf13/cobra"
)

func clearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the selected team",
		Long:  `Set the selected team to null.`,
		Args:  noArgs,
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

			if err := sel.SetContext(cmd.Context(), nil); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Selection cleared")
			return nil
		},
	}
}
