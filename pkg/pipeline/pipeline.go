package pipeline

import (
	"log"

	"dumper/pkg/sink"
)

// Stats counts what Run delivered.
type Stats struct {
	// Delivered counts messages the sink accepted.
	Delivered int
	// Failed counts messages whose Write returned an error. Run logs the
	// error and moves on to the next message.
	Failed int
}

// Run reads blocks from msgCh and writes them to s. It returns when msgCh is
// closed or errCh yields an error. A nil errCh is never selected.
func Run(msgCh <-chan []byte, errCh <-chan error, s sink.Sink) Stats {
	var st Stats
	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return st
			}
			if err := s.Write(msg); err != nil {
				st.Failed++
				log.Printf("Sink error: %v", err)
				continue
			}
			st.Delivered++
		case err := <-errCh:
			log.Printf("Source error: %v", err)
			return st
		}
	}
}
