package controllers

import (
	"net/http"
	"strings"

	"github.com/bitescout/bitescout-backend/api/responses"
	"github.com/bitescout/bitescout-backend/api/validators"
	"github.com/bitescout/bitescout-backend/internal/notifications"
	"github.com/bitescout/bitescout-backend/pkg/enums"
	pkgerrors "github.com/bitescout/bitescout-backend/pkg/errors"
	"github.com/bitescout/bitescout-backend/pkg/logger"
	"github.com/bitescout/bitescout-backend/pkg/pagination"
)

// ListNotifications returns paginated notifications for a recipient.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipientID, err := parsePathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		params := notifications.ListParams{RecipientID: recipientID}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}
		params.Limit = limit

		unreadOnly, err := validators.ParseQueryBool(r, "unreadOnly", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}
		params.UnreadOnly = unreadOnly

		if cursor := strings.TrimSpace(r.URL.Query().Get("cursor")); cursor != "" {
			params.Cursor = cursor
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			kind, err := enums.ParseNotificationType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, r, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type filter"))
				return
			}
			params.Type = &kind
		}

		resp, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// MarkNotificationRead acknowledges a single notification.
func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipientID, err := parsePathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}
		notificationID, err := parsePathUUID(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		notification, err := svc.MarkRead(r.Context(), recipientID, notificationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteSuccess(w, notification)
	}
}

// MarkAllNotificationsRead acknowledges every unread notification for the
// recipient.
func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipientID, err := parsePathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		count, err := svc.MarkAllRead(r.Context(), recipientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"updated": count})
	}
}

