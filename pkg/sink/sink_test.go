package sink

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestConsoleSink_WritesLine(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)
	if err := s.Write([]byte(`{"name":"a"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != "{\"name\":\"a\"}\n" {
		t.Fatalf("got %q", got)
	}
}

func TestFileSink_AppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "blocks.log")
	s, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data := make([]byte, 1, 8)
	data[0] = 'a'
	if err := s.Write(data); err != nil {
		t.Fatalf("write: %v", err)
	}
	if data[:2][1] == '\n' {
		t.Fatal("write touched caller's buffer")
	}
	if err := s.Write([]byte("b")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "a\nb\n" {
		t.Fatalf("content = %q", b)
	}
}

type failingSink struct {
	writes int
}

func (s *failingSink) Write([]byte) error {
	s.writes++
	return errors.New("nope")
}

func (s *failingSink) Close() error { return errors.New("close nope") }

func TestMultiSink_DeliversToAll(t *testing.T) {
	var buf bytes.Buffer
	bad := &failingSink{}
	m := NewMultiSink([]Sink{bad})
	m.Add(NewWriterSink(&buf))
	if m.Len() != 2 {
		t.Fatalf("len = %d", m.Len())
	}

	err := m.Write([]byte("x"))
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("err = %v", err)
	}
	if bad.writes != 1 || buf.String() != "x\n" {
		t.Fatalf("delivery: bad=%d buf=%q", bad.writes, buf.String())
	}
	if err := m.Close(); err == nil {
		t.Fatal("expected close error")
	}
}

type httpRequest struct {
	body, contentType, method string
}

func TestHttpSink(t *testing.T) {
	requests := make(chan httpRequest, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		requests <- httpRequest{body: string(b), contentType: r.Header.Get("Content-Type"), method: r.Method}
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	s := NewHttpSink(srv.URL+"/blocks", "", "")
	if err := s.Write([]byte(`{"a":1}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := <-requests; got != (httpRequest{body: `{"a":1}`, contentType: "application/json", method: http.MethodPost}) {
		t.Fatalf("request = %+v", got)
	}

	if err := NewHttpSink(srv.URL+"/fail", http.MethodPut, "text/plain").Write([]byte("x")); err == nil {
		t.Fatal("expected status error")
	}
	if got := <-requests; got.method != http.MethodPut || got.contentType != "text/plain" {
		t.Fatalf("request = %+v", got)
	}
	_ = s.Close()
}

func newEchoServer(t *testing.T, received chan<- string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- string(msg)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestWebSocketSink_SendsMessages(t *testing.T) {
	received := make(chan string, 4)
	srv := newEchoServer(t, received)

	s := NewWebSocketSink(wsURL(srv.URL))
	if s.IsConnected() {
		t.Fatal("connected before first write")
	}
	for _, msg := range []string{"one", "two"} {
		if err := s.Write([]byte(msg)); err != nil {
			t.Fatalf("write %s: %v", msg, err)
		}
	}
	for _, want := range []string{"one", "two"} {
		select {
		case got := <-received:
			if got != want {
				t.Fatalf("got %q, want %q", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for %q", want)
		}
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Write([]byte("late")); !errors.Is(err, ErrSinkClosed) {
		t.Fatalf("write after close: %v", err)
	}
}

func TestWebSocketSink_DialError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv.URL)
	srv.Close()

	s := NewWebSocketSink(url)
	if err := s.Write([]byte("x")); err == nil {
		t.Fatal("expected dial error")
	}
	if s.IsConnected() {
		t.Fatal("connected after failed dial")
	}
}
