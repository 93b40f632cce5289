package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/teamstore/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔╦╗┌─┐┌─┐┌┬┐┌─┐┌┬┐┌─┐┬─┐┌─┐
   ║ ├┤ ├─┤│││└─┐ │ │ │├┬┘├┤
   ╩ └─┘┴ ┴┴ ┴└─┘ ┴ └─┘┴└─└─┘
`

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "teamstore",
		Short: "Persisted selected-team store",
		Long: `teamstore keeps the currently selected team in persistent storage.

The value is any JSON document, stored under a single key and mirrored
to every watcher when it changes. Storage backends:

  • memory:                     process memory
  • file:state.json             JSON file
  • sqlite:///path/state.db     SQLite
  • postgres://…                PostgreSQL
  • redis://host:6379/0         Redis
  • s3://bucket/prefix          S3 or compatible object storage`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "teamstore.json", "Path to the configuration file")
	flags.StringVar(&opts.dsn, "dsn", "", "Storage DSN (overrides config)")
	flags.StringVar(&opts.key, "key", "", "Storage key (overrides config)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		getCmd(opts),
		setCmd(opts),
		clearCmd(opts),
		watchCmd(opts),
		serveCmd(opts),
		versionCmd(),
	)

	return rootCmd
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
