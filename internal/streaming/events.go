package streaming

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
)

// EventStream writes Server-Sent Events, flushing after each one.
type EventStream struct {
	*Writer
}

// NewEventStream sets the event-stream headers and writes the 200 status.
func NewEventStream(ctx context.Context, w http.ResponseWriter, config Config) *EventStream {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	return &EventStream{Writer: NewWriter(ctx, w, config)}
}

// Event writes one named event. Multi-line data is split into one data
// field per line.
func (s *EventStream) Event(name, id string, data []byte) error {
	var buf bytes.Buffer
	if name != "" {
		fmt.Fprintf(&buf, "event: %s\n", name)
	}
	if id != "" {
		fmt.Fprintf(&buf, "id: %s\n", id)
	}
	for _, line := range bytes.Split(data, []byte("\n")) {
		buf.WriteString("data: ")
		buf.Write(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	return s.send(buf.Bytes())
}

// Comment writes a comment line, which clients ignore. Used for
// keep-alives.
func (s *EventStream) Comment(text string) error {
	return s.send([]byte(": " + text + "\n\n"))
}

func (s *EventStream) send(frame []byte) error {
	if _, err := s.Write(frame); err != nil {
		return err
	}
	return s.Flush()
}
