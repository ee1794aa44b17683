// Package relay collects dump blocks that other processes mirror over
// websockets.
package relay

import (
	"errors"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const DefaultPath = "/dump"

// Server accepts websocket connections and publishes every text message it
// receives on Messages. It implements http.Handler, so it can be mounted on
// any mux; Start serves it on its own listener.
type Server struct {
	upgrader websocket.Upgrader

	msgs  chan []byte
	errCh chan error

	done      chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	conns  map[string]*websocket.Conn
	closed bool
	wg     sync.WaitGroup

	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a relay Server.
func NewServer() *Server {
	return &Server{
		msgs:  make(chan []byte, 100),
		errCh: make(chan error, 1),
		done:  make(chan struct{}),
		conns: make(map[string]*websocket.Conn),
	}
}

// Start listens on addr and serves the relay at path.
func (s *Server) Start(addr, path string) error {
	if path == "" {
		path = DefaultPath
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle(path, s)

	s.mu.Lock()
	s.listener = l
	s.httpServer = &http.Server{Handler: mux}
	hs := s.httpServer
	s.mu.Unlock()

	go func() {
		if err := hs.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case s.errCh <- err:
			default:
			}
		}
	}()
	return nil
}

// Addr returns the listening address after Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) track(id string, conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[id] = conn
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	delete(s.conns, id)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Relay upgrade failed: %v", err)
		return
	}

	id := uuid.NewString()
	if !s.track(id, conn) {
		_ = conn.Close()
		return
	}
	defer s.untrack(id)
	defer conn.Close()

	log.Printf("Relay connection %s from %s", id, r.RemoteAddr)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Relay connection %s read error: %v", id, err)
			} else {
				log.Printf("Relay connection %s closed", id)
			}
			return
		}

		select {
		case s.msgs <- message:
		case <-s.done:
			return
		}
	}
}

// Messages returns a channel to receive relayed blocks. It is closed by Close.
func (s *Server) Messages() <-chan []byte {
	return s.msgs
}

// Errors returns a channel that receives a listener failure after Start.
func (s *Server) Errors() <-chan error {
	return s.errCh
}

// Close stops the listener, drops all connections and closes Messages.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		s.closed = true
		hs := s.httpServer
		conns := make([]*websocket.Conn, 0, len(s.conns))
		for _, c := range s.conns {
			conns = append(conns, c)
		}
		s.mu.Unlock()

		if hs != nil {
			err = hs.Close()
		}
		for _, c := range conns {
			_ = c.Close()
		}
		s.wg.Wait()
		close(s.msgs)
	})
	return err
}
