// Package server exposes a selection over HTTP and WebSocket.
//
// Routes:
//
//	GET    /selected-team        current value as JSON (null when unset)
//	PUT    /selected-team        replace the value with the JSON body
//	DELETE /selected-team        set the value to null
//	GET    /selected-team/watch  WebSocket stream, one text frame per value
//	GET    /healthz              liveness probe
//	GET    /metrics              Prometheus metrics, when enabled
//
// A watch stream starts with the current value and then carries every
// change in the order it was made. Slow watchers that fall too far behind
// are disconnected rather than allowed to block writers.
//
// Usage:
//
//	sel, _ := selection.NewSelectedTeam(ctx, store)
//	srv := server.New(sel, server.DefaultConfig())
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
