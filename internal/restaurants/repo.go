package restaurants

import (
	"context"
	"errors"

	"github.com/bitescout/bitescout-backend/pkg/db/models"
	"github.com/bitescout/bitescout-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes the restaurant read surface needed by the access
// control plane: identity, ownership, and the owner/admin audience for
// notification fan-out.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID retrieves a restaurant by id. Returns (nil, nil) when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&restaurant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// IsOwnerOrAdmin reports whether the user owns the restaurant or holds an
// approved admin access record on it.
func (r *Repository) IsOwnerOrAdmin(ctx context.Context, userID, restaurantID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Restaurant{}).
		Where("id = ? AND owner_user_id = ?", restaurantID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	err = r.db.WithContext(ctx).
		Model(&models.RestaurantAccess{}).
		Where("restaurant_id = ? AND user_id = ? AND status = ? AND role IN ?",
			restaurantID, userID, enums.AccessStatusApproved,
			[]enums.MemberRole{enums.MemberRoleOwner, enums.MemberRoleAdmin}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ManagerUserIDs returns the owner plus every user holding an approved
// owner/admin access record, deduplicated. This is the audience for
// access_request notifications.
func (r *Repository) ManagerUserIDs(ctx context.Context, restaurantID uuid.UUID) ([]uuid.UUID, error) {
	restaurant, err := r.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, nil
	}

	var adminIDs []uuid.UUID
	err = r.db.WithContext(ctx).
		Model(&models.RestaurantAccess{}).
		Where("restaurant_id = ? AND status = ? AND role IN ?",
			restaurantID, enums.AccessStatusApproved,
			[]enums.MemberRole{enums.MemberRoleOwner, enums.MemberRoleAdmin}).
		Pluck("user_id", &adminIDs).Error
	if err != nil {
		return nil, err
	}

	seen := map[uuid.UUID]struct{}{restaurant.OwnerUserID: {}}
	ids := []uuid.UUID{restaurant.OwnerUserID}
	for _, id := range adminIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
