package pipeline

import (
	"bytes"
	"errors"
	"testing"

	"dumper/pkg/sink"
)

type flakySink struct {
	sink.Sink
	fail string
}

func (s flakySink) Write(data []byte) error {
	if string(data) == s.fail {
		return errors.New("rejected")
	}
	return s.Sink.Write(data)
}

func TestRun_DeliversUntilClosed(t *testing.T) {
	var buf bytes.Buffer
	msgs := make(chan []byte, 3)
	msgs <- []byte("a")
	msgs <- []byte("bad")
	msgs <- []byte("b")
	close(msgs)

	st := Run(msgs, nil, flakySink{Sink: sink.NewWriterSink(&buf), fail: "bad"})
	if st.Delivered != 2 || st.Failed != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if buf.String() != "a\nb\n" {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestRun_StopsOnSourceError(t *testing.T) {
	errCh := make(chan error, 1)
	errCh <- errors.New("listener gone")
	st := Run(make(chan []byte), errCh, sink.NewWriterSink(&bytes.Buffer{}))
	if st != (Stats{}) {
		t.Fatalf("stats = %+v", st)
	}
}
