package sink

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	WriteTimeout = 10 * time.Second
	PongTimeout  = 10 * time.Second
)

var ErrSinkClosed = errors.New("sink closed")

// WebSocketSink sends each block as a text message to a websocket endpoint,
// typically a dump relay. It dials on first use; after a failed write the
// connection is dropped and the next Write dials again.
type WebSocketSink struct {
	url    string
	dialer *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewWebSocketSink creates a WebSocketSink for url (ws:// or wss://).
func NewWebSocketSink(url string) *WebSocketSink {
	return &WebSocketSink{
		url:    url,
		dialer: websocket.DefaultDialer,
	}
}

func (s *WebSocketSink) dial() (*websocket.Conn, error) {
	conn, _, err := s.dialer.Dial(s.url, nil)
	if err != nil {
		return nil, err
	}

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(PongTimeout))
	})
	return conn, nil
}

// drain reads until the connection fails so control frames get handled and
// a closed peer is noticed before the next Write.
func (s *WebSocketSink) drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.NextReader(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !s.isClosed() {
				log.Printf("WebSocket sink read error: %v", err)
			}
			s.clearConnIfSame(conn)
			_ = conn.Close()
			return
		}
	}
}

func (s *WebSocketSink) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *WebSocketSink) clearConnIfSame(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
}

// IsConnected reports whether the sink currently holds a connection.
func (s *WebSocketSink) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *WebSocketSink) Write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}

	if s.conn == nil {
		conn, err := s.dial()
		if err != nil {
			return fmt.Errorf("websocket sink dial %s: %w", s.url, err)
		}
		s.conn = conn
		go s.drain(conn)
	}

	conn := s.conn
	_ = conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.conn = nil
		_ = conn.Close()
		return err
	}
	return nil
}

// Close sends a close frame and closes the connection. Later writes fail
// with ErrSinkClosed.
func (s *WebSocketSink) Close() error {
	s.mu.Lock()
	s.closed = true
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(WriteTimeout))
	// drain may already have closed it after the peer's close reply
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
