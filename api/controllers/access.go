package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bitescout/bitescout-backend/api/middleware"
	"github.com/bitescout/bitescout-backend/api/responses"
	"github.com/bitescout/bitescout-backend/api/validators"
	"github.com/bitescout/bitescout-backend/internal/access"
	"github.com/bitescout/bitescout-backend/pkg/enums"
	pkgerrors "github.com/bitescout/bitescout-backend/pkg/errors"
	"github.com/bitescout/bitescout-backend/pkg/logger"
)

type requestAccessBody struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

type grantAccessBody struct {
	Role string `json:"role,omitempty" validate:"omitempty,oneof=admin manager staff"`
}

func parsePathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := chi.URLParam(r, key)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}

// RequestAccess opens a pending access request for a restaurant.
func RequestAccess(svc access.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		restaurantID, err := parsePathUUID(r, "restaurantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		var body requestAccessBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}
		userID, err := uuid.Parse(body.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid userId"))
			return
		}

		record, err := svc.Request(r.Context(), userID, restaurantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// ListAccessByUser returns the user's access records across restaurants.
func ListAccessByUser(svc access.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := parsePathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		items, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// ListAccessByOwner returns access records across every restaurant the
// owner holds.
func ListAccessByOwner(svc access.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := parsePathUUID(r, "ownerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		items, err := svc.ListByOwner(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// GrantAccess approves a pending or suspended request. The acting user
// comes from the verified token, never the body.
func GrantAccess(svc access.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessID, actorID, err := transitionArgs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		var role *enums.MemberRole
		if r.ContentLength > 0 {
			var body grantAccessBody
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, r, err)
				return
			}
			if body.Role != "" {
				parsed, err := enums.ParseMemberRole(body.Role)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, r, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
					return
				}
				role = &parsed
			}
		}

		record, err := svc.Grant(r.Context(), accessID, actorID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// SuspendAccess moves an approved or pending record to suspended.
func SuspendAccess(svc access.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessID, actorID, err := transitionArgs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		record, err := svc.Suspend(r.Context(), accessID, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// DeactivateAccess retires the record permanently.
func DeactivateAccess(svc access.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessID, actorID, err := transitionArgs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}

		record, err := svc.Deactivate(r.Context(), accessID, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, r, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

func transitionArgs(r *http.Request) (accessID, actorID uuid.UUID, err error) {
	accessID, err = parsePathUUID(r, "accessId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	actor := middleware.UserIDFromContext(r.Context())
	if actor == "" {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	actorID, err = uuid.Parse(actor)
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor identity")
	}
	return accessID, actorID, nil
}
