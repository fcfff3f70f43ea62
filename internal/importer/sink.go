package importer

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
)

type progressEvent struct {
	Type    string `json:"type"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

type resultEvent struct {
	Type string `json:"type"`
	Result
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NDJSONSink writes one JSON object per line and flushes after each. Once a
// write fails the client is treated as gone and later events are dropped.
type NDJSONSink struct {
	enc     *json.Encoder
	flusher http.Flusher
	gone    bool
}

func NewNDJSONSink(w io.Writer) *NDJSONSink {
	s := &NDJSONSink{enc: json.NewEncoder(w)}
	if f, ok := w.(http.Flusher); ok {
		s.flusher = f
	}
	return s
}

func (s *NDJSONSink) Progress(current, total int) {
	s.write(progressEvent{Type: "progress", Current: current, Total: total})
}

func (s *NDJSONSink) Result(r Result) {
	if r.Errors == nil {
		r.Errors = []string{}
	}
	s.write(resultEvent{Type: "result", Result: r})
}

func (s *NDJSONSink) Fail(message string) {
	s.write(errorEvent{Type: "error", Message: message})
}

// Gone reports whether the client stopped reading.
func (s *NDJSONSink) Gone() bool { return s.gone }

func (s *NDJSONSink) write(v any) {
	if s.gone {
		return
	}
	if err := s.enc.Encode(v); err != nil {
		log.Printf("Import stream: client went away: %v", err)
		s.gone = true
		return
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
