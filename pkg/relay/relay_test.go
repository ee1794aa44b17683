package relay

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dumper/pkg/dump"
	"dumper/pkg/pipeline"
	"dumper/pkg/sink"
)

func TestReplaySink_AppendsContent(t *testing.T) {
	folder := t.TempDir()
	s := NewReplaySink(dump.New(dump.Config{Enabled: true, Folder: folder}))

	for _, content := range []string{"A", "B"} {
		msg := fmt.Sprintf(`{"source":"x","name":"trace","extension":".txt","content":%q}`, content)
		if err := s.Write([]byte(msg)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	b, err := os.ReadFile(filepath.Join(folder, "trace.txt"))
	if err != nil || string(b) != "AB" {
		t.Fatalf("content = %q, err = %v", b, err)
	}
}

func TestReplaySink_Rejects(t *testing.T) {
	s := NewReplaySink(dump.New(dump.Config{Enabled: true, Folder: t.TempDir()}))
	for _, msg := range []string{
		`not json`,
		`{"name":"","extension":".txt"}`,
		`{"name":"../escape","extension":".txt","content":"x"}`,
	} {
		if err := s.Write([]byte(msg)); err == nil {
			t.Fatalf("expected error for %s", msg)
		}
	}
}

func waitForContent(t *testing.T, path, want string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	var got []byte
	for time.Now().Before(deadline) {
		got, _ = os.ReadFile(path)
		if string(got) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("content of %s = %q, want %q", path, got, want)
}

func TestServer_ReplaysMirroredDumps(t *testing.T) {
	srv := NewServer()
	if err := srv.Start("127.0.0.1:0", DefaultPath); err != nil {
		t.Fatalf("start: %v", err)
	}

	relayFolder := t.TempDir()
	replay := NewReplaySink(dump.New(dump.Config{Enabled: true, Folder: relayFolder}))
	done := make(chan pipeline.Stats, 1)
	go func() {
		done <- pipeline.Run(srv.Messages(), srv.Errors(), replay)
	}()

	mirror := sink.NewWebSocketSink("ws://" + srv.Addr().String() + DefaultPath)
	local := dump.New(dump.Config{Enabled: true, Folder: t.TempDir()}, dump.WithMirror(mirror))

	type sample struct {
		A int
		B bool
	}
	if err := dump.JSON(local, sample{A: 1, B: true}, "remote", nil); err != nil {
		t.Fatalf("dump json: %v", err)
	}
	if err := dump.TSV(local, []sample{{1, true}, {2, false}}, "remote", nil, true); err != nil {
		t.Fatalf("dump tsv: %v", err)
	}

	waitForContent(t, filepath.Join(relayFolder, "remote.json"), `{"A":1,"B":true}`)
	waitForContent(t, filepath.Join(relayFolder, "remote.tsv"), "A\tB\r\n1\tTrue\r\n2\tFalse\r\n")

	if err := local.Close(); err != nil {
		t.Fatalf("close dumper: %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Fatalf("close relay: %v", err)
	}
	select {
	case st := <-done:
		if st.Delivered != 2 || st.Failed != 0 {
			t.Fatalf("stats = %+v", st)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("pipeline did not stop after Close")
	}
}

func TestServer_StartError(t *testing.T) {
	srv := NewServer()
	if err := srv.Start("127.0.0.1:-1", ""); err == nil {
		t.Fatal("expected listen error")
	}
	if srv.Addr() != nil {
		t.Fatal("addr set after failed start")
	}
	if err := srv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, ok := <-srv.Messages(); ok {
		t.Fatal("messages not closed")
	}
}

func TestServer_CloseIdempotent(t *testing.T) {
	srv := NewServer()
	if err := srv.Close(); err != nil {
		t.Fatal(err)
	}
	if err := srv.Close(); err != nil {
		t.Fatal(err)
	}
}
