package sink

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HttpSink posts each block to an HTTP endpoint.
type HttpSink struct {
	url         string
	method      string
	contentType string
	client      *http.Client
}

// NewHttpSink creates a new HttpSink. Empty method and contentType default
// to POST and application/json.
func NewHttpSink(url, method, contentType string) *HttpSink {
	if method == "" {
		method = http.MethodPost
	}
	if contentType == "" {
		contentType = "application/json"
	}
	return &HttpSink{
		url:         url,
		method:      method,
		contentType: contentType,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *HttpSink) Write(data []byte) error {
	req, err := http.NewRequest(s.method, s.url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", s.contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("http sink received status code: %d", resp.StatusCode)
	}
	return nil
}

func (s *HttpSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
