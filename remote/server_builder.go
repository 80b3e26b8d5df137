package remote

import "time"

// ServerBuilderOption configures a Server.
type ServerBuilderOption func(*Server)

// WithAddr sets the listen address used by ListenAndServe. Defaults to ":8080".
func WithAddr(addr string) ServerBuilderOption {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithReplyTimeout bounds how long a control message waits for the viewer's thread.
func WithReplyTimeout(d time.Duration) ServerBuilderOption {
	return func(s *Server) {
		if d > 0 {
			s.replyTimeout = d
		}
	}
}

// WithPingInterval sets the websocket keep-alive interval.
// Connections silent for two intervals are dropped.
func WithPingInterval(d time.Duration) ServerBuilderOption {
	return func(s *Server) {
		if d > 0 {
			s.pingInterval = d
		}
	}
}

// WithReadLimit caps the size of one incoming message in bytes.
func WithReadLimit(n int64) ServerBuilderOption {
	return func(s *Server) {
		if n > 0 {
			s.readLimit = n
		}
	}
}
