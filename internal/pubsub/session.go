package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var ErrNotConnected = errors.New("session is closed")

// frame is the wire unit: every message, in either direction, is routed
// by a destination name.
type frame struct {
	Destination string          `json:"destination"`
	Body        json.RawMessage `json:"body"`
}

// Handler receives the raw body of every frame pushed to a subscribed
// destination. Handlers run on the session's read goroutine.
type Handler func(body json.RawMessage)

// Session is one publish/subscribe connection to the chat backend.
// There is no reconnect: when the read loop ends, the session is done.
type Session struct {
	conn *websocket.Conn
	log  zerolog.Logger

	mu       sync.Mutex
	handlers map[string]Handler
	closed   bool
}

// Dial opens the websocket endpoint derived from the HTTP base URL,
// passing the access token as a query parameter.
func Dial(ctx context.Context, baseURL, accessToken string) (*Session, error) {
	u, err := wsURL(baseURL, accessToken)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, err
	}

	s := &Session{
		conn:     conn,
		log:      zerolog.Nop(),
		handlers: make(map[string]Handler),
	}
	go s.readLoop()
	return s, nil
}

// SetLogger replaces the no-op logger. Call before Subscribe.
func (s *Session) SetLogger(log zerolog.Logger) {
	s.log = log
}

// Subscribe registers the handler for one destination. A later call for
// the same destination replaces the handler.
func (s *Session) Subscribe(destination string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[destination] = h
}

// Send publishes one frame to the given destination.
func (s *Session) Send(destination string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrNotConnected
	}
	return s.conn.WriteJSON(frame{Destination: destination, Body: body})
}

// Close tears the connection down. Best effort and idempotent; the read
// loop exits on the closed connection.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = s.conn.Close()
}

func (s *Session) readLoop() {
	for {
		var f frame
		if err := s.conn.ReadJSON(&f); err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed {
				s.log.Warn().Err(err).Msg("session read loop ended")
			}
			return
		}

		s.mu.Lock()
		h, ok := s.handlers[f.Destination]
		s.mu.Unlock()

		if !ok {
			s.log.Debug().Str("destination", f.Destination).Msg("dropping frame with no subscriber")
			continue
		}
		h(f.Body)
	}
}

func wsURL(baseURL, accessToken string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/ws-chat"

	q := u.Query()
	q.Set("token", accessToken)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
