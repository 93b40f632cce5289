package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/teamstore/internal/errors"
)

func setCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <value>",
		Short: "Select a team",
		Long: `Select a team. The value is parsed as JSON; anything that is not
valid JSON is stored as a string.

Examples:
  teamstore set teamA               # "teamA"
  teamstore set '{"id":7}'          # {"id":7}
  teamstore set '"null"'            # the string "null"`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("E310").
					WithDetail(fmt.Sprintf("set takes exactly one value, got %d.", len(args))).
					WithSuggestion("Quote values containing spaces: teamstore set 'Team A'")
			}
			return nil
		},
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

			value := parseValue(args[0])
			if err := sel.SetContext(cmd.Context(), value); err != nil {
				return err
			}

			data, _ := json.Marshal(value)
			out := cmd.OutOrStdout()
			success(out, "Selected %s", data)
			if !sel.Persistent() {
				warn(out, "Storage is unavailable; the selection was not saved")
			}
			return nil
		},
	}
}

// parseValue decodes arg as one JSON value, falling back to the raw
// string. Numbers keep their exact text.
func parseValue(arg string) any {
	dec := json.NewDecoder(bytes.NewReader([]byte(arg)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return arg
	}
	if _, err := dec.Token(); err != io.EOF {
		return arg
	}
	return v
}
