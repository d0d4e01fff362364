package notifications

import (
	"context"
	"time"

	"github.com/bitescout/bitescout-backend/pkg/db/models"
	"github.com/bitescout/bitescout-backend/pkg/enums"
	pkgerrors "github.com/bitescout/bitescout-backend/pkg/errors"
	"github.com/bitescout/bitescout-backend/pkg/pagination"
	"github.com/bitescout/bitescout-backend/pkg/types"
	"github.com/google/uuid"
)

// Service defines notification create/list/read operations.
type Service interface {
	Create(ctx context.Context, recipientID uuid.UUID, kind enums.NotificationType, data types.JSONMap) (*NotificationDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) (*NotificationDTO, error)
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

type recipientChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type service struct {
	repo  Repository
	users recipientChecker
}

// ListParams configures filtering and pagination for notifications.
type ListParams struct {
	RecipientID uuid.UUID
	Type        *enums.NotificationType
	Limit       int
	Cursor      string
	UnreadOnly  bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []NotificationDTO `json:"items"`
	Cursor string            `json:"cursor"`
}

// NotificationDTO is the wire shape shared by the REST list and the live
// channel push.
type NotificationDTO struct {
	ID              uuid.UUID              `json:"id"`
	RecipientUserID uuid.UUID              `json:"recipientUserId"`
	Type            enums.NotificationType `json:"type"`
	Data            types.JSONMap          `json:"data,omitempty"`
	IsRead          bool                   `json:"isRead"`
	CreatedAt       time.Time              `json:"createdAt"`
}

func dtoFromModel(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:              n.ID,
		RecipientUserID: n.RecipientUserID,
		Type:            n.Type,
		Data:            n.Data,
		IsRead:          n.IsRead(),
		CreatedAt:       n.CreatedAt,
	}
}

// NewService wires notifications dependencies.
func NewService(repo Repository, users recipientChecker) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	return &service{repo: repo, users: users}, nil
}

func (s *service) Create(ctx context.Context, recipientID uuid.UUID, kind enums.NotificationType, data types.JSONMap) (*NotificationDTO, error) {
	if recipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown notification type")
	}

	exists, err := s.users.Exists(ctx, recipientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check recipient")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "recipient not found")
	}

	notification := &models.Notification{
		ID:              uuid.New(),
		RecipientUserID: recipientID,
		Type:            kind,
		Data:            data,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	dto := dtoFromModel(*notification)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.RecipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if params.Type != nil && !params.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown notification type")
	}

	query := listNotificationsParams{
		RecipientID: params.RecipientID,
		Type:        params.Type,
		Limit:       params.Limit,
		UnreadOnly:  params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, dtoFromModel(row))
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:  items,
		Cursor: cursor,
	}, nil
}

func (s *service) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) (*NotificationDTO, error) {
	if recipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if notificationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, recipientID, notificationID, time.Now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		// Either the id is unknown or it belongs to someone else; the
		// distinction decides between 404 and 403.
		notification, err := s.repo.GetByID(ctx, notificationID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch notification")
		}
		if notification == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "notification belongs to another user")
	}

	notification, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch notification")
	}
	if notification == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	dto := dtoFromModel(*notification)
	return &dto, nil
}

func (s *service) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if recipientID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	count, err := s.repo.MarkAllRead(ctx, recipientID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
