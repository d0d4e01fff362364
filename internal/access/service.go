package access

import (
	"context"
	"time"

	"github.com/bitescout/bitescout-backend/pkg/db"
	"github.com/bitescout/bitescout-backend/pkg/db/models"
	"github.com/bitescout/bitescout-backend/pkg/enums"
	pkgerrors "github.com/bitescout/bitescout-backend/pkg/errors"
	"github.com/bitescout/bitescout-backend/pkg/types"
	"github.com/google/uuid"
)

// Service owns the RestaurantAccess lifecycle.
type Service interface {
	Request(ctx context.Context, userID, restaurantID uuid.UUID) (*AccessDTO, error)
	Grant(ctx context.Context, accessID, actorID uuid.UUID, role *enums.MemberRole) (*AccessDTO, error)
	Suspend(ctx context.Context, accessID, actorID uuid.UUID) (*AccessDTO, error)
	Deactivate(ctx context.Context, accessID, actorID uuid.UUID) (*AccessDTO, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]AccessDTO, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]AccessDTO, error)
}

// Notifier fans notifications out without blocking the caller.
type Notifier interface {
	Dispatch(recipientID uuid.UUID, kind enums.NotificationType, data types.JSONMap)
	DispatchAll(recipientIDs []uuid.UUID, kind enums.NotificationType, data types.JSONMap)
}

type restaurantDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	IsOwnerOrAdmin(ctx context.Context, userID, restaurantID uuid.UUID) (bool, error)
	ManagerUserIDs(ctx context.Context, restaurantID uuid.UUID) ([]uuid.UUID, error)
}

type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type service struct {
	repo        Repository
	restaurants restaurantDirectory
	users       userDirectory
	notifier    Notifier
}

// AccessDTO is the wire shape of a RestaurantAccess record, optionally
// enriched with joined restaurant/requester metadata in listings.
type AccessDTO struct {
	ID             uuid.UUID          `json:"id"`
	UserID         uuid.UUID          `json:"userId"`
	RestaurantID   uuid.UUID          `json:"restaurantId"`
	Role           *enums.MemberRole  `json:"role,omitempty"`
	Status         enums.AccessStatus `json:"status"`
	RestaurantName string             `json:"restaurantName,omitempty"`
	RequesterName  string             `json:"requesterName,omitempty"`
	RequesterEmail string             `json:"requesterEmail,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

func dtoFromModel(access models.RestaurantAccess) AccessDTO {
	return AccessDTO{
		ID:           access.ID,
		UserID:       access.UserID,
		RestaurantID: access.RestaurantID,
		Role:         access.Role,
		Status:       access.Status,
		CreatedAt:    access.CreatedAt,
		UpdatedAt:    access.UpdatedAt,
	}
}

// NewService wires access dependencies. notifier may be nil; transitions
// then apply without fan-out.
func NewService(repo Repository, restaurants restaurantDirectory, users userDirectory, notifier Notifier) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "access repository required")
	}
	if restaurants == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "restaurants repository required")
	}
	if users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	return &service{
		repo:        repo,
		restaurants: restaurants,
		users:       users,
		notifier:    notifier,
	}, nil
}

func (s *service) Request(ctx context.Context, userID, restaurantID uuid.UUID) (*AccessDTO, error) {
	if userID == uuid.Nil || restaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and restaurant id required")
	}

	requester, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch requester")
	}
	if requester == nil || !requester.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	restaurant, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch restaurant")
	}
	if restaurant == nil || !restaurant.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
	}

	existing, err := s.repo.GetByUserAndRestaurant(ctx, userID, restaurantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing access")
	}
	if existing != nil && !existing.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "access request already exists for this restaurant")
	}

	now := time.Now().UTC()
	access := &models.RestaurantAccess{
		ID:           uuid.New(),
		UserID:       userID,
		RestaurantID: restaurantID,
		Status:       enums.AccessStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, access); err != nil {
		// The partial unique index closes the pre-check race.
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "access request already exists for this restaurant")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create access request")
	}

	if s.notifier != nil {
		managers, err := s.restaurants.ManagerUserIDs(ctx, restaurantID)
		if err == nil {
			s.notifier.DispatchAll(managers, enums.NotificationTypeAccessRequest, types.JSONMap{
				"accessId":       access.ID.String(),
				"restaurantId":   restaurantID.String(),
				"restaurantName": restaurant.Name,
				"requesterId":    userID.String(),
				"requesterName":  requester.FullName(),
			})
		}
	}

	dto := dtoFromModel(*access)
	return &dto, nil
}

func (s *service) Grant(ctx context.Context, accessID, actorID uuid.UUID, role *enums.MemberRole) (*AccessDTO, error) {
	if role != nil && !role.IsGrantable() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role is not grantable")
	}

	defaultRole := enums.MemberRoleStaff
	access, err := s.transition(ctx, accessID, actorID, transitionRule{
		From:        []enums.AccessStatus{enums.AccessStatusPending, enums.AccessStatusSuspended},
		To:          enums.AccessStatusApproved,
		Role:        role,
		RoleIfUnset: &defaultRole,
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Dispatch(access.UserID, enums.NotificationTypeAccessGranted, s.transitionPayload(ctx, access))
	}
	dto := dtoFromModel(*access)
	return &dto, nil
}

func (s *service) Suspend(ctx context.Context, accessID, actorID uuid.UUID) (*AccessDTO, error) {
	access, err := s.transition(ctx, accessID, actorID, transitionRule{
		From: []enums.AccessStatus{enums.AccessStatusPending, enums.AccessStatusApproved},
		To:   enums.AccessStatusSuspended,
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Dispatch(access.UserID, enums.NotificationTypeAccessSuspended, s.transitionPayload(ctx, access))
	}
	dto := dtoFromModel(*access)
	return &dto, nil
}

func (s *service) Deactivate(ctx context.Context, accessID, actorID uuid.UUID) (*AccessDTO, error) {
	// Deactivation is silent: removed members are not notified.
	access, err := s.transition(ctx, accessID, actorID, transitionRule{
		From: enums.ActiveAccessStatuses,
		To:   enums.AccessStatusInactive,
	})
	if err != nil {
		return nil, err
	}
	dto := dtoFromModel(*access)
	return &dto, nil
}

type transitionRule struct {
	From []enums.AccessStatus
	To   enums.AccessStatus
	// Role, when set, overwrites the record's role. RoleIfUnset applies
	// only to records that never had one, so re-approving a suspended
	// member keeps the role they were granted.
	Role        *enums.MemberRole
	RoleIfUnset *enums.MemberRole
}

func (s *service) transition(ctx context.Context, accessID, actorID uuid.UUID, rule transitionRule) (*models.RestaurantAccess, error) {
	if accessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "access id required")
	}
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "acting user id required")
	}

	access, err := s.repo.GetByID(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch access record")
	}
	if access == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "access record not found")
	}

	allowed, err := s.restaurants.IsOwnerOrAdmin(ctx, actorID, access.RestaurantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check actor authority")
	}
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "acting user is not an owner or admin of this restaurant")
	}

	roleUpdate := rule.Role
	if roleUpdate == nil && rule.RoleIfUnset != nil && access.Role == nil {
		roleUpdate = rule.RoleIfUnset
	}

	updated, err := s.repo.UpdateStatus(ctx, updateStatusParams{
		AccessID:     accessID,
		FromStatuses: rule.From,
		ToStatus:     rule.To,
		Role:         roleUpdate,
		Now:          time.Now().UTC(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply status transition")
	}
	if !updated {
		// Lost the compare-and-set: the record moved since we read it,
		// or it was never in an allowed starting status.
		current, err := s.repo.GetByID(ctx, accessID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refetch access record")
		}
		if current == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "access record not found")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "access record cannot transition from status "+string(current.Status)).
			WithDetails(map[string]any{"status": current.Status})
	}

	current, err := s.repo.GetByID(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refetch access record")
	}
	if current == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "access record not found")
	}
	return current, nil
}

// transitionPayload enriches the notification body with display names; the
// lookups are best-effort since they only decorate the payload.
func (s *service) transitionPayload(ctx context.Context, access *models.RestaurantAccess) types.JSONMap {
	payload := types.JSONMap{
		"accessId":     access.ID.String(),
		"restaurantId": access.RestaurantID.String(),
		"status":       string(access.Status),
	}
	if restaurant, err := s.restaurants.FindByID(ctx, access.RestaurantID); err == nil && restaurant != nil {
		payload["restaurantName"] = restaurant.Name
	}
	return payload
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]AccessDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list access by user")
	}

	items := make([]AccessDTO, 0, len(rows))
	for _, row := range rows {
		dto := dtoFromModel(row.Access)
		dto.RestaurantName = row.RestaurantName
		items = append(items, dto)
	}
	return items, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]AccessDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}

	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list access by owner")
	}

	items := make([]AccessDTO, 0, len(rows))
	for _, row := range rows {
		dto := dtoFromModel(row.Access)
		dto.RestaurantName = row.RestaurantName
		dto.RequesterName = joinName(row.FirstName, row.LastName)
		dto.RequesterEmail = row.Email
		items = append(items, dto)
	}
	return items, nil
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
