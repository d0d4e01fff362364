package access

import (
	"context"
	"errors"
	"time"

	"github.com/bitescout/bitescout-backend/pkg/db/models"
	"github.com/bitescout/bitescout-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes restaurant access persistence operations.
type Repository interface {
	Create(ctx context.Context, access *models.RestaurantAccess) error
	GetByID(ctx context.Context, accessID uuid.UUID) (*models.RestaurantAccess, error)
	GetByUserAndRestaurant(ctx context.Context, userID, restaurantID uuid.UUID) (*models.RestaurantAccess, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]AccessWithRestaurant, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]AccessWithRequester, error)
	UpdateStatus(ctx context.Context, params updateStatusParams) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type updateStatusParams struct {
	AccessID uuid.UUID
	// FromStatuses guards the transition; the update applies only while
	// the row still holds one of these statuses.
	FromStatuses []enums.AccessStatus
	ToStatus     enums.AccessStatus
	Role         *enums.MemberRole
	Now          time.Time
}

// AccessWithRestaurant joins an access record with restaurant metadata
// for the requester-facing listing.
type AccessWithRestaurant struct {
	Access         models.RestaurantAccess
	RestaurantName string
}

// AccessWithRequester joins an access record with requester metadata for
// the owner-facing listing.
type AccessWithRequester struct {
	Access         models.RestaurantAccess
	RestaurantName string
	Email          string
	FirstName      string
	LastName       string
}

type accessWithRestaurantRow struct {
	models.RestaurantAccess
	RestaurantName string `gorm:"column:restaurant_name"`
}

type accessWithRequesterRow struct {
	models.RestaurantAccess
	RestaurantName string `gorm:"column:restaurant_name"`
	Email          string `gorm:"column:email"`
	FirstName      string `gorm:"column:first_name"`
	LastName       string `gorm:"column:last_name"`
}

func (r *repositoryImpl) Create(ctx context.Context, access *models.RestaurantAccess) error {
	return r.db.WithContext(ctx).Create(access).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, accessID uuid.UUID) (*models.RestaurantAccess, error) {
	var access models.RestaurantAccess
	err := r.db.WithContext(ctx).Where("id = ?", accessID).First(&access).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &access, nil
}

func (r *repositoryImpl) GetByUserAndRestaurant(ctx context.Context, userID, restaurantID uuid.UUID) (*models.RestaurantAccess, error) {
	var access models.RestaurantAccess
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND restaurant_id = ?", userID, restaurantID).
		First(&access).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &access, nil
}

func (r *repositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]AccessWithRestaurant, error) {
	var rows []accessWithRestaurantRow
	err := r.db.WithContext(ctx).
		Model(&models.RestaurantAccess{}).
		Select("restaurant_accesses.*, restaurants.name AS restaurant_name").
		Joins("JOIN restaurants ON restaurants.id = restaurant_accesses.restaurant_id").
		Where("restaurant_accesses.user_id = ?", userID).
		Where("restaurant_accesses.status != ?", enums.AccessStatusInactive).
		Order("restaurant_accesses.created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]AccessWithRestaurant, 0, len(rows))
	for _, row := range rows {
		items = append(items, AccessWithRestaurant{
			Access:         row.RestaurantAccess,
			RestaurantName: row.RestaurantName,
		})
	}
	return items, nil
}

func (r *repositoryImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]AccessWithRequester, error) {
	var rows []accessWithRequesterRow
	err := r.db.WithContext(ctx).
		Model(&models.RestaurantAccess{}).
		Select("restaurant_accesses.*, restaurants.name AS restaurant_name, users.email, users.first_name, users.last_name").
		Joins("JOIN restaurants ON restaurants.id = restaurant_accesses.restaurant_id").
		Joins("JOIN users ON users.id = restaurant_accesses.user_id").
		Where("restaurants.owner_user_id = ?", ownerID).
		Where("restaurant_accesses.status != ?", enums.AccessStatusInactive).
		Order("restaurant_accesses.created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]AccessWithRequester, 0, len(rows))
	for _, row := range rows {
		items = append(items, AccessWithRequester{
			Access:         row.RestaurantAccess,
			RestaurantName: row.RestaurantName,
			Email:          row.Email,
			FirstName:      row.FirstName,
			LastName:       row.LastName,
		})
	}
	return items, nil
}

// UpdateStatus applies a guarded status transition. It reports false when
// the row was missing or no longer in one of the expected statuses, so a
// concurrent transition never overwrites a later one.
func (r *repositoryImpl) UpdateStatus(ctx context.Context, params updateStatusParams) (bool, error) {
	updates := map[string]any{
		"status":     params.ToStatus,
		"updated_at": params.Now,
	}
	if params.Role != nil {
		updates["role"] = *params.Role
	}

	result := r.db.WithContext(ctx).
		Model(&models.RestaurantAccess{}).
		Where("id = ? AND status IN ?", params.AccessID, params.FromStatuses).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
