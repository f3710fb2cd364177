package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	MessageInputs  = "inputs"
	MessageRefresh = "refresh"
	MessagePing    = "ping"

	EventView  = "view"
	EventError = "error"
	EventPong  = "pong"

	maxMessageSize = 4096
	writeWait      = 10 * time.Second
)

var ErrUnknownMessage = errors.New("unknown message type")

// ClientMessage is sent by a websocket client. Inputs replaces the session inputs of an inputs
// message, unset fields keep their current value.
type ClientMessage struct {
	Type   string        `json:"type"`
	Inputs *InputsUpdate `json:"inputs,omitempty"`
}

type InputsUpdate struct {
	Horizon       *int     `json:"horizon,omitempty"`
	ManualEnabled *bool    `json:"manual_enabled,omitempty"`
	ManualValue   *float64 `json:"manual_value,omitempty"`
}

func (u *InputsUpdate) apply(in Inputs) Inputs {
	if u == nil {
		return in
	}
	if u.Horizon != nil {
		in.Horizon = *u.Horizon
	}
	if u.ManualEnabled != nil {
		in.ManualEnabled = *u.ManualEnabled
	}
	if u.ManualValue != nil {
		in.ManualValue = *u.ManualValue
	}
	return in.Normalise()
}

// UpdateEvent is pushed to a websocket client
type UpdateEvent struct {
	Type      string    `json:"type"`
	Session   string    `json:"session"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

type session struct {
	id     string
	conn   *websocket.Conn
	inputs Inputs
}

// SessionCount returns the number of open websocket sessions
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) addSession(sess *session) {
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.metrics.sessionOpened()
}

func (s *Server) removeSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	s.metrics.sessionClosed()
}

// handleWebSocket runs one session per connection. Messages are handled in order on the
// connection goroutine so every write comes from a single writer.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	in, err := ParseInputs(r.URL.Query(), s.defaults)
	if err != nil {
		http.Error(w, err.Error(), StatusCode(err))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	sess := &session{
		id:     uuid.NewString(),
		conn:   conn,
		inputs: in,
	}
	s.addSession(sess)
	defer s.removeSession(sess.id)
	s.logger.Info("websocket connected", "session", sess.id)

	ctx := r.Context()
	if err := s.sendView(ctx, sess); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "session", sess.id, "error", err.Error())
			}
			break
		}
		if err := s.handleMessage(ctx, sess, data); err != nil {
			s.logger.Warn("websocket write failed", "session", sess.id, "error", err.Error())
			break
		}
	}
	s.logger.Info("websocket disconnected", "session", sess.id)
}

// handleMessage only returns errors from writing to the connection. Bad messages and failed
// recomputes are reported to the client as error events.
func (s *Server) handleMessage(ctx context.Context, sess *session, data []byte) error {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return s.send(sess, EventError, errorData(fmt.Errorf("%w, %w", ErrInvalidInput, err)))
	}

	switch msg.Type {
	case MessagePing:
		return s.send(sess, EventPong, nil)
	case MessageInputs:
		sess.inputs = msg.Inputs.apply(sess.inputs)
		return s.sendView(ctx, sess)
	case MessageRefresh:
		if s.cache != nil {
			s.cache.Invalidate()
		}
		return s.sendView(ctx, sess)
	}
	return s.send(sess, EventError, errorData(fmt.Errorf("%q, %w", msg.Type, ErrUnknownMessage)))
}

func (s *Server) sendView(ctx context.Context, sess *session) error {
	v, err := s.pipeline.Recompute(ctx, sess.inputs)
	if err != nil {
		s.logger.Warn("recompute failed", "session", sess.id, "error", err.Error())
		return s.send(sess, EventError, errorData(err))
	}
	return s.send(sess, EventView, v)
}

func errorData(err error) map[string]any {
	return map[string]any{
		"error":  err.Error(),
		"status": StatusCode(err),
	}
}

func (s *Server) send(sess *session, eventType string, data any) error {
	out, err := json.Marshal(UpdateEvent{
		Type:      eventType,
		Session:   sess.id,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		return err
	}
	if err := sess.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return sess.conn.WriteMessage(websocket.TextMessage, out)
}
