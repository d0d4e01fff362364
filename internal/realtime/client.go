package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	pkgerrors "github.com/bitescout/bitescout-backend/pkg/errors"
	"github.com/bitescout/bitescout-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

const (
	eventAuthenticate = "authenticate"
	eventAuthOK       = "authenticated"
	eventNotification = "notification"
	eventError        = "error"
)

type inboundEvent struct {
	Type   string `json:"type"`
	UserID string `json:"userId,omitempty"`
}

type outboundEvent struct {
	Type    string `json:"type"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Session wraps a single websocket connection. The read pump handles the
// in-band authenticate handshake; the write pump drains the send buffer
// and keeps the connection alive with pings.
type Session struct {
	id       uuid.UUID
	conn     *websocket.Conn
	registry *Registry
	logg     *logger.Logger
	send     chan []byte

	mu     sync.Mutex
	userID uuid.UUID
	closed bool
}

// NewSession wraps an upgraded connection. Run starts the pumps and blocks
// until the connection drops.
func NewSession(conn *websocket.Conn, registry *Registry, logg *logger.Logger, sendBuffer int) *Session {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Session{
		id:       uuid.New(),
		conn:     conn,
		registry: registry,
		logg:     logg,
		send:     make(chan []byte, sendBuffer),
	}
}

// ID identifies the connection, not the user; rate-limit counters key on it
// so an attacker cannot lock a victim out by burning their attempts.
func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) bind(userID uuid.UUID) {
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
}

func (s *Session) boundUser() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.userID != uuid.Nil
}

// trySend enqueues under the session mutex so a concurrent close cannot
// slip between the closed check and the channel send.
func (s *Session) trySend(message []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	select {
	case s.send <- message:
		return true
	default:
		// Buffer full means the peer is not draining; treat as offline.
		return false
	}
}

// CloseSuperseded tells the peer a newer session took over, then drops the
// connection.
func (s *Session) CloseSuperseded() {
	s.trySend(mustMarshal(outboundEvent{Type: eventError, Message: "session superseded by a newer connection"}))
	s.close()
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

// Run drives the session until the peer disconnects or is superseded.
func (s *Session) Run(ctx context.Context) {
	go s.writePump()
	s.readPump(ctx)
}

func (s *Session) readPump(ctx context.Context) {
	defer func() {
		s.registry.Deregister(s)
		s.close()
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logg.Warn(ctx, "websocket read failed: "+err.Error())
			}
			return
		}

		var event inboundEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			s.sendError("malformed message")
			continue
		}
		s.handleEvent(ctx, event)
	}
}

func (s *Session) handleEvent(ctx context.Context, event inboundEvent) {
	switch event.Type {
	case eventAuthenticate:
		userID, err := uuid.Parse(event.UserID)
		if err != nil {
			s.sendError("invalid user id")
			return
		}
		if err := s.registry.Authenticate(ctx, s, userID); err != nil {
			var typed *pkgerrors.Error
			if errors.As(err, &typed) && typed.Code() == pkgerrors.CodeRateLimit {
				s.sendError("too many authentication attempts")
				return
			}
			s.sendError("authentication failed")
			return
		}
		s.trySend(mustMarshal(outboundEvent{Type: eventAuthOK}))
	default:
		s.sendError("unknown message type")
	}
}

func (s *Session) sendError(message string) {
	s.trySend(mustMarshal(outboundEvent{Type: eventError, Message: message}))
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func mustMarshal(event outboundEvent) []byte {
	raw, err := json.Marshal(event)
	if err != nil {
		return []byte(`{"type":"error","message":"internal error"}`)
	}
	return raw
}
