package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/teamstore/internal/errors"
)

// WatchURL turns a server base URL ("http://host:port") into its watch
// stream URL. ws:// and wss:// URLs are returned with the path filled in
// when it is empty.
func WatchURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", errors.New("E310").Wrap(err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.New("E310").
			WithDetail("Watch URLs must use http, https, ws or wss.")
	}
	if strings.TrimSuffix(u.Path, "/") == "" {
		u.Path = WatchPath
	}
	return u.String(), nil
}

// Watch connects to a watch stream and calls fn with every value received,
// starting with the current one. It returns nil when ctx is cancelled or
// the server closes the stream normally.
func Watch(ctx context.Context, watchURL string, fn func(json.RawMessage)) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, watchURL, http.Header{})
	if err != nil {
		e := errors.New("E302").Wrap(err)
		if resp != nil {
			e = e.WithDetail("Server responded " + resp.Status + ".")
		}
		return e
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return errors.New("E302").Wrap(err)
		}
		fn(json.RawMessage(data))
	}
}
