package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vango-dev/teamstore/internal/config"
	"github.com/vango-dev/teamstore/pkg/selection"
	"github.com/vango-dev/teamstore/pkg/storage"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	dsn        string
	key        string
	logLevel   string
}

// load reads the config file, applies TEAMSTORE_* variables and then
// explicitly set flags, validates the result and installs the logger.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("dsn") {
		cfg.Storage.DSN = o.dsn
	}
	if flags.Changed("key") {
		cfg.Storage.Key = o.key
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// newLogger builds the slog handler selected by cfg.Log.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler), nil
}

// openSelection opens the configured store and the selection on top of it.
// The caller closes the returned store.
func openSelection(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...selection.Option) (*selection.Selection[any], storage.Store, error) {
	var openOpts []storage.OpenOption
	if cfg.Storage.Prefix != "" {
		openOpts = append(openOpts, storage.WithPrefix(cfg.Storage.Prefix))
	}
	if cfg.Storage.Table != "" {
		openOpts = append(openOpts, storage.WithTableName(cfg.Storage.Table))
	}

	store, err := storage.Open(ctx, cfg.Storage.DSN, openOpts...)
	if err != nil {
		return nil, nil, err
	}

	opts := []selection.Option{selection.WithLogger(logger)}
	if cfg.Storage.Strict {
		opts = append(opts, selection.Strict())
	}
	opts = append(opts, extra...)

	sel, err := selection.New[any](ctx, store, cfg.Storage.Key, opts...)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return sel, store, nil
}
