package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bitescout/bitescout-backend/pkg/enums"
	"github.com/bitescout/bitescout-backend/pkg/types"
)

// Notification stores in-app notification payloads per recipient user.
// Rows are written once and only ever mutated by the mark-read paths.
type Notification struct {
	ID              uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientUserID uuid.UUID              `gorm:"column:recipient_user_id;type:uuid;not null;index"`
	Type            enums.NotificationType `gorm:"type:text;not null"`
	Data            types.JSONMap          `gorm:"type:jsonb"`
	ReadAt          *time.Time             `gorm:"type:timestamptz"`
	CreatedAt       time.Time              `gorm:"type:timestamptz;default:now()"`
}

// IsRead reports whether the notification has been acknowledged.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}
