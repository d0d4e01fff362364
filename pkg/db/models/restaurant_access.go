package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bitescout/bitescout-backend/pkg/enums"
)

// RestaurantAccess links a user with a restaurant and captures the
// role/status of their management access. At most one record per
// (user, restaurant) pair may sit in a non-inactive status.
type RestaurantAccess struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	RestaurantID uuid.UUID          `gorm:"column:restaurant_id;type:uuid;not null;index"`
	Role         *enums.MemberRole  `gorm:"column:role;type:text"`
	Status       enums.AccessStatus `gorm:"column:status;type:text;not null"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (RestaurantAccess) TableName() string {
	return "restaurant_accesses"
}
