package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/bitescout/bitescout-backend/pkg/config"
	pkgerrors "github.com/bitescout/bitescout-backend/pkg/errors"
	"github.com/bitescout/bitescout-backend/pkg/logger"
	"github.com/google/uuid"
)

// AttemptCounter tracks authentication attempts per connection inside a
// fixed window. Implemented by the redis client; tests use an in-memory fake.
type AttemptCounter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// Registry maps authenticated users to their single live session. It is
// shared mutable state touched by every connection goroutine plus the
// request handlers that push notifications.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	counter AttemptCounter
	limit   int64
	window  time.Duration
	logg    *logger.Logger
}

// NewRegistry builds a connection registry with the configured rate limit.
func NewRegistry(cfg config.RealtimeConfig, counter AttemptCounter, logg *logger.Logger) *Registry {
	limit := int64(cfg.AuthAttemptLimit)
	if limit <= 0 {
		limit = 5
	}
	window := cfg.AuthAttemptWindow
	if window <= 0 {
		window = time.Minute
	}
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		counter:  counter,
		limit:    limit,
		window:   window,
		logg:     logg,
	}
}

// Authenticate binds a session to a user. Each connection gets at most
// limit attempts per window; a user authenticating from a new connection
// supersedes and closes the previous one.
func (r *Registry) Authenticate(ctx context.Context, sess *Session, userID uuid.UUID) error {
	if sess == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "session required")
	}
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	if r.counter != nil {
		key := r.counter.RateLimitKey("ws_auth:" + sess.ID().String())
		count, err := r.counter.IncrWithTTL(ctx, key, r.window)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count auth attempt")
		}
		if count > r.limit {
			return pkgerrors.New(pkgerrors.CodeRateLimit, "too many authentication attempts")
		}
	}

	r.mu.Lock()
	previous := r.sessions[userID]
	if previous == sess {
		r.mu.Unlock()
		return nil
	}
	// A session switching identities releases its old mapping.
	if oldUser, ok := sess.boundUser(); ok && r.sessions[oldUser] == sess {
		delete(r.sessions, oldUser)
	}
	r.sessions[userID] = sess
	sess.bind(userID)
	r.mu.Unlock()

	if previous != nil {
		previous.CloseSuperseded()
		r.logg.Info(r.logg.WithUserID(ctx, userID.String()), "live session superseded")
	}
	return nil
}

// Deregister drops the session's mapping. A session that has already been
// superseded leaves the newer mapping untouched.
func (r *Registry) Deregister(sess *Session) {
	if sess == nil {
		return
	}
	userID, ok := sess.boundUser()
	if !ok {
		return
	}

	r.mu.Lock()
	if r.sessions[userID] == sess {
		delete(r.sessions, userID)
	}
	r.mu.Unlock()
}

// Push delivers a payload to the user's live session. Returns false when
// the user is offline or the session's buffer is full; delivery is
// best-effort and the caller never blocks.
func (r *Registry) Push(userID uuid.UUID, payload any) bool {
	r.mu.Lock()
	sess := r.sessions[userID]
	r.mu.Unlock()
	if sess == nil {
		return false
	}

	message, err := json.Marshal(outboundEvent{Type: eventNotification, Data: payload})
	if err != nil {
		r.logg.Error(context.Background(), "marshal push payload", err)
		return false
	}
	return sess.trySend(message)
}

// Online reports whether the user currently has a live session.
func (r *Registry) Online(userID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[userID] != nil
}
