package server

import (
	"net/http"
	"net/url"
	"time"
)

// Config holds server settings.
type Config struct {
	// Address is the listen address (default "localhost:8090").
	Address string

	// ReadBufferSize is the WebSocket read buffer size.
	// Default: 1024
	ReadBufferSize int

	// WriteBufferSize is the WebSocket write buffer size.
	// Default: 1024
	WriteBufferSize int

	// CheckOrigin validates the Origin of WebSocket upgrades.
	// Default: SameOriginCheck
	CheckOrigin func(r *http.Request) bool

	// MaxBodyBytes bounds PUT request bodies.
	// Default: 1 MiB
	MaxBodyBytes int64

	// WatchBuffer is how many pending frames a watcher may queue before it
	// is disconnected.
	// Default: 64
	WatchBuffer int

	// WriteTimeout bounds each WebSocket frame write.
	// Default: 10s
	WriteTimeout time.Duration

	// PingInterval is how often idle watchers are pinged. A watcher that
	// does not answer within two intervals is closed.
	// Default: 30s
	PingInterval time.Duration

	// ReadHeaderTimeout is passed to http.Server.
	// Default: 5s
	ReadHeaderTimeout time.Duration

	// ShutdownTimeout is the maximum time Run waits for in-flight requests
	// and watchers after its context is cancelled.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Address:           "localhost:8090",
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		CheckOrigin:       SameOriginCheck,
		MaxBodyBytes:      1 << 20,
		WatchBuffer:       64,
		WriteTimeout:      10 * time.Second,
		PingInterval:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	defaults := DefaultConfig()
	if c == nil {
		return defaults
	}
	out := *c
	if out.Address == "" {
		out.Address = defaults.Address
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = defaults.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = defaults.WriteBufferSize
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = defaults.CheckOrigin
	}
	if out.MaxBodyBytes == 0 {
		out.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if out.WatchBuffer == 0 {
		out.WatchBuffer = defaults.WatchBuffer
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = defaults.WriteTimeout
	}
	if out.PingInterval == 0 {
		out.PingInterval = defaults.PingInterval
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = defaults.ShutdownTimeout
	}
	return &out
}

// SameOriginCheck accepts WebSocket upgrades without an Origin header or
// whose Origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// No Origin header (e.g., curl or a native client)
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if r.Host == "" {
		return false
	}
	return originURL.Host == r.Host
}
