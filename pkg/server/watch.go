package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// maxClientMessage bounds frames read from watchers; clients are not
// expected to send anything but control frames.
const maxClientMessage = 512

// watcher is one WebSocket watch stream.
type watcher struct {
	conn   *websocket.Conn
	frames chan []byte

	overflow     chan struct{}
	overflowOnce sync.Once
}

// enqueue is the selection subscriber. It runs on the setter's goroutine,
// so it never blocks: a full queue marks the watcher for disconnect.
func (w *watcher) enqueue(data []byte) {
	select {
	case w.frames <- data:
	default:
		w.overflowOnce.Do(func() { close(w.overflow) })
	}
}

func (s *Server) handleWatch(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		s.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		s.recordWebSocketError("upgrade")
		return
	}
	defer conn.Close()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.writeClose(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	s.watchers.Add(1)
	s.mu.Unlock()
	defer s.watchers.Done()

	if s.metrics != nil {
		s.metrics.WatcherConnected()
		defer s.metrics.WatcherDisconnected()
	}

	w := &watcher{
		conn:     conn,
		frames:   make(chan []byte, s.config.WatchBuffer),
		overflow: make(chan struct{}),
	}
	unsubscribe := s.sel.Subscribe(func(v any) {
		data, err := json.Marshal(v)
		if err != nil {
			s.logger.Error("encode watch frame", "error", err)
			return
		}
		w.enqueue(data)
	})
	defer unsubscribe()

	s.logger.Debug("watcher connected", "remote", r.RemoteAddr)
	defer s.logger.Debug("watcher disconnected", "remote", r.RemoteAddr)

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		s.readLoop(conn)
	}()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-w.frames:
			conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug("watch write failed", "error", err)
				s.recordWebSocketError("write")
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(s.config.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.recordWebSocketError("ping")
				return
			}

		case <-w.overflow:
			s.logger.Warn("watcher too slow; disconnecting", "remote", r.RemoteAddr)
			s.recordWebSocketError("slow_consumer")
			s.writeClose(conn, websocket.CloseTryAgainLater, "too slow")
			return

		case <-readDone:
			return

		case <-s.done:
			s.writeClose(conn, websocket.CloseGoingAway, "server shutting down")
			return
		}
	}
}

// readLoop discards client messages and keeps the read deadline alive
// on pongs. It returns when the connection closes.
func (s *Server) readLoop(conn *websocket.Conn) {
	timeout := 2 * s.config.PingInterval
	conn.SetReadLimit(maxClientMessage)
	conn.SetReadDeadline(time.Now().Add(timeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(timeout))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("watch read failed", "error", err)
				s.recordWebSocketError("read")
			}
			return
		}
	}
}

func (s *Server) writeClose(conn *websocket.Conn, code int, text string) {
	deadline := time.Now().Add(s.config.WriteTimeout)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}

func (s *Server) recordWebSocketError(kind string) {
	if s.metrics != nil {
		s.metrics.RecordWebSocketError(kind)
	}
}
