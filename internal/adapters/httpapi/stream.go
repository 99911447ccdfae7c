package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.trai.ch/stitch/internal/core/domain"
)

// StreamMessageType names the kind of a message sent on the resolve stream.
type StreamMessageType string

const (
	// StreamEvent carries one resolution progress event.
	StreamEvent StreamMessageType = "event"
	// StreamResult carries the final virtual file set.
	StreamResult StreamMessageType = "result"
	// StreamError carries a request or resolution failure.
	StreamError StreamMessageType = "error"
)

// StreamMessage is one server to client message of GET /v1/resolve/stream.
type StreamMessage struct {
	Type   StreamMessageType      `json:"type"`
	Event  *domain.Event          `json:"event,omitempty"`
	Result *domain.VirtualFileSet `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// handleStream reads a single request message, streams the resolution events followed by
// the result, then closes the connection.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxRequestSize)

	var req domain.Request
	if err := conn.ReadJSON(&req); err != nil {
		s.closeWith(conn, websocket.CloseUnsupportedData, StreamMessage{Type: StreamError, Error: "invalid request: " + err.Error()})
		return
	}

	// The sink runs on the resolving goroutine, which is the only writer.
	var writeErr error
	sink := func(e domain.Event) {
		if writeErr != nil {
			return
		}
		writeErr = s.send(conn, StreamMessage{Type: StreamEvent, Event: &e})
	}

	set, err := s.resolve(r.Context(), req, sink)
	if writeErr != nil {
		return
	}
	if err != nil {
		s.closeWith(conn, websocket.CloseInternalServerErr, StreamMessage{Type: StreamError, Error: err.Error()})
		return
	}

	s.closeWith(conn, websocket.CloseNormalClosure, StreamMessage{Type: StreamResult, Result: set})
}

func (s *Server) send(conn *websocket.Conn, msg StreamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(msg)
}

// closeWith sends a final message followed by a close frame.
func (s *Server) closeWith(conn *websocket.Conn, code int, msg StreamMessage) {
	if err := s.send(conn, msg); err != nil {
		return
	}
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, string(msg.Type)),
		time.Now().Add(writeTimeout),
	)
}
