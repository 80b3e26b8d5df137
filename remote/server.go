// Package remote serves a phone control page that steers a panorama viewer over a websocket.
package remote

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-panorama/common"
	"github.com/Carmen-Shannon/oxy-panorama/engine/host"
	"github.com/Carmen-Shannon/oxy-panorama/orientation"
	"github.com/Carmen-Shannon/oxy-panorama/panorama"
	"github.com/gorilla/websocket"
)

//go:embed assets/remote.html
var remotePage []byte

// maxZoomSteps crosses the whole focal range; larger deltas change nothing more.
const maxZoomSteps = int(panorama.MaxFocalLength - panorama.MinFocalLength)

// Controller is the part of the viewer the remote drives.
type Controller interface {
	IncreaseFocalLength() float64
	DecreaseFocalLength() float64
	FocalLength() float64
	IsAnimated() bool
	SetAnimated(animated bool)
	TouchStart(touches []panorama.Touch)
	TouchMove(touches []panorama.Touch)
	TouchEnd(touches []panorama.Touch)
	ResetOrientation()
}

var _ Controller = panorama.Viewer(nil)

// Server serves the remote page on "/" and the control websocket on "/ws".
// Orientation messages are republished to subscribers; every other message is applied to the
// controller on the scheduler's thread and answered with the resulting State.
type Server struct {
	feed orientation.Feed

	controller Controller
	scheduler  host.Scheduler
	upgrader   websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}

	addr         string
	readLimit    int64
	replyTimeout time.Duration
	pingInterval time.Duration
}

var _ orientation.Source = &Server{}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteJSON(v)
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

// NewServer creates a remote server for the controller.
//
// Parameters:
//   - controller: the viewer to drive
//   - scheduler: the scheduler owning the viewer's thread
//   - options: variadic list of ServerBuilderOption functions
//
// Returns:
//   - *Server: the server, not yet listening
func NewServer(controller Controller, scheduler host.Scheduler, options ...ServerBuilderOption) *Server {
	s := &Server{
		controller:   controller,
		scheduler:    scheduler,
		clients:      make(map[*client]struct{}),
		addr:         ":8080",
		readLimit:    4096,
		replyTimeout: time.Second,
		pingInterval: 30 * time.Second,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Phones usually open the page by IP address.
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Subscribe implements orientation.Source.
func (s *Server) Subscribe(fn func(orientation.Event)) func() {
	return s.feed.Subscribe(fn)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Clients returns the number of connected pages.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Handler returns the HTTP handler serving the page and the websocket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.servePage)
	mux.HandleFunc("/ws", s.serveWebSocket)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down and closes every websocket.
//
// Parameters:
//   - ctx: controls the server's lifetime
//
// Returns:
//   - error: a listen error, or nil after a clean shutdown
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("remote: listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[Remote] shutdown: %v", err)
		}
		s.closeClients()
	}()

	log.Printf("[Remote] serving on http://%s", ln.Addr())
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		return nil
	}
	return err
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(remotePage)
}

func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Remote] upgrade: %v", err)
		return
	}
	c := &client{conn: conn}
	s.addClient(c)
	defer s.removeClient(c)

	conn.SetReadLimit(s.readLimit)
	conn.SetReadDeadline(time.Now().Add(2 * s.pingInterval))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * s.pingInterval))
	})

	done := make(chan struct{})
	defer close(done)
	go s.keepAlive(c, done)

	if st, ok := s.state(r.Context(), nil); ok {
		c.writeJSON(st)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[Remote] read: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(2 * s.pingInterval))

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.writeJSON(errorReply{Type: TypeError, Error: fmt.Sprintf("invalid message: %v", err)})
			continue
		}
		if err := s.handle(r.Context(), msg); err != nil {
			c.writeJSON(errorReply{Type: TypeError, Error: err.Error()})
		}
	}
}

func (s *Server) keepAlive(c *client, done <-chan struct{}) {
	t := time.NewTicker(s.pingInterval)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

// handle applies one message. Control messages other than touch moves are answered with
// the viewer's state, broadcast to every page.
func (s *Server) handle(ctx context.Context, msg Message) error {
	var apply func()
	switch msg.Type {
	case TypeOrientation:
		s.feed.Publish(orientation.Event{Alpha: msg.Alpha, Beta: msg.Beta, Gamma: msg.Gamma})
		return nil
	case TypeTouchStart:
		touches := toPanoramaTouches(msg.Touches)
		s.scheduler.Dispatch(func() { s.controller.TouchStart(touches) })
		return nil
	case TypeTouchMove:
		touches := toPanoramaTouches(msg.Touches)
		s.scheduler.Dispatch(func() { s.controller.TouchMove(touches) })
		return nil
	case TypeTouchEnd:
		touches := toPanoramaTouches(msg.Touches)
		apply = func() { s.controller.TouchEnd(touches) }
	case TypeZoom:
		if msg.Delta == 0 {
			return errors.New("zoom: delta must be non-zero")
		}
		delta := common.Clamp(msg.Delta, -maxZoomSteps, maxZoomSteps)
		apply = func() {
			for ; delta > 0; delta-- {
				s.controller.IncreaseFocalLength()
			}
			for ; delta < 0; delta++ {
				s.controller.DecreaseFocalLength()
			}
		}
	case TypeAnimate:
		animated := msg.Animated
		apply = func() { s.controller.SetAnimated(animated) }
	case TypeReset:
		apply = s.controller.ResetOrientation
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}

	if st, ok := s.state(ctx, apply); ok {
		s.broadcast(st)
	}
	return nil
}

// state runs apply on the scheduler's thread and reads the viewer's state after it.
// Gives up after replyTimeout when the loop is not running.
func (s *Server) state(ctx context.Context, apply func()) (State, bool) {
	states := make(chan State, 1)
	s.scheduler.Dispatch(func() {
		if apply != nil {
			apply()
		}
		states <- State{
			Type:        TypeState,
			FocalLength: s.controller.FocalLength(),
			Animated:    s.controller.IsAnimated(),
		}
	})

	t := time.NewTimer(s.replyTimeout)
	defer t.Stop()
	select {
	case st := <-states:
		return st, true
	case <-t.C:
		log.Printf("[Remote] viewer did not answer within %s", s.replyTimeout)
	case <-ctx.Done():
	}
	return State{}, false
}

func (s *Server) broadcast(v any) {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if err := c.writeJSON(v); err != nil {
			log.Printf("[Remote] write: %v", err)
			c.conn.Close()
		}
	}
}

func (s *Server) addClient(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	log.Printf("[Remote] client connected (%d total)", n)
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.conn.Close()
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.conn.Close()
	}
}
