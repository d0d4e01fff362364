package notifications

import (
	"context"
	"time"

	"github.com/bitescout/bitescout-backend/pkg/enums"
	"github.com/bitescout/bitescout-backend/pkg/logger"
	"github.com/bitescout/bitescout-backend/pkg/types"
	"github.com/google/uuid"
)

// Pusher delivers an already-persisted notification to a live session, if
// the recipient has one.
type Pusher interface {
	Push(userID uuid.UUID, payload any) bool
}

// Dispatcher persists notifications and forwards them to live sessions
// without blocking the operation that triggered them.
type Dispatcher struct {
	svc     Service
	pusher  Pusher
	logg    *logger.Logger
	timeout time.Duration
}

// NewDispatcher wires the async fan-out path. pusher may be nil when no
// live channel is configured.
func NewDispatcher(svc Service, pusher Pusher, logg *logger.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		svc:     svc,
		pusher:  pusher,
		logg:    logg,
		timeout: timeout,
	}
}

// Dispatch creates the notification and pushes it to the recipient's
// session in a background goroutine. Failures are logged and swallowed;
// the triggering operation has already succeeded and must not be rolled
// back over a notification.
func (d *Dispatcher) Dispatch(recipientID uuid.UUID, kind enums.NotificationType, data types.JSONMap) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		ctx = d.logg.WithFields(ctx, map[string]any{
			"recipient_id": recipientID.String(),
			"type":         string(kind),
		})

		dto, err := d.svc.Create(ctx, recipientID, kind, data)
		if err != nil {
			d.logg.Error(ctx, "notification dispatch failed", err)
			return
		}
		if d.pusher == nil {
			return
		}
		if delivered := d.pusher.Push(recipientID, dto); !delivered {
			d.logg.Info(ctx, "recipient offline, notification stored only")
		}
	}()
}

// DispatchAll fans a notification out to several recipients. Each
// recipient gets its own row so read state stays per-user.
func (d *Dispatcher) DispatchAll(recipientIDs []uuid.UUID, kind enums.NotificationType, data types.JSONMap) {
	for _, id := range recipientIDs {
		d.Dispatch(id, kind, data)
	}
}
