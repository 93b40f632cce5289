package selection

import (
	"log/slog"
)

// Option configures a Selection.
type Option func(*config)

type config struct {
	defaultValue  any
	hasDefault    bool
	equal         any
	alwaysNotify  bool
	strict        bool
	logger        *slog.Logger
	onDecodeError func(key, raw string, err error)
	onPersist     func(key string, err error)
}

// WithDefault sets the value used when nothing is stored, when the stored
// text is malformed, and by Reset. Without it the zero value (JSON null)
// is used. The type of v must match the Selection's type.
func WithDefault[T any](v T) Option {
	return func(c *config) {
		c.defaultValue = v
		c.hasDefault = true
	}
}

// WithEquals sets the equality function used to detect changes. The
// default treats equal scalars as unchanged and every map, slice, pointer
// or struct as changed.
// A Set whose value is equal to the current one notifies nobody and writes
// nothing.
func WithEquals[T any](fn func(a, b T) bool) Option {
	return func(c *config) {
		c.equal = fn
	}
}

// AlwaysNotify disables change detection: every Set and Update notifies
// subscribers and writes to storage, even when the value is unchanged.
func AlwaysNotify() Option {
	return func(c *config) {
		c.alwaysNotify = true
	}
}

// Strict makes malformed stored text fail construction instead of falling
// back to the default value.
func Strict() Option {
	return func(c *config) {
		c.strict = true
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// OnDecodeError registers a hook called when the stored text for key cannot
// be decoded and the Selection falls back to its default.
func OnDecodeError(fn func(key, raw string, err error)) Option {
	return func(c *config) {
		c.onDecodeError = fn
	}
}

// OnPersist registers a hook called after every storage write with its
// result. It is not called when storage is unavailable.
func OnPersist(fn func(key string, err error)) Option {
	return func(c *config) {
		c.onPersist = fn
	}
}
