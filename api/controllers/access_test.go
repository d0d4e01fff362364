package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/bitescout/bitescout-backend/api/middleware"
	"github.com/bitescout/bitescout-backend/internal/access"
	"github.com/bitescout/bitescout-backend/pkg/enums"
	pkgerrors "github.com/bitescout/bitescout-backend/pkg/errors"
)

type testAccessService struct {
	requestFn     func(ctx context.Context, userID, restaurantID uuid.UUID) (*access.AccessDTO, error)
	grantFn       func(ctx context.Context, accessID, actorID uuid.UUID, role *enums.MemberRole) (*access.AccessDTO, error)
	suspendFn     func(ctx context.Context, accessID, actorID uuid.UUID) (*access.AccessDTO, error)
	deactivateFn  func(ctx context.Context, accessID, actorID uuid.UUID) (*access.AccessDTO, error)
	listByUserFn  func(ctx context.Context, userID uuid.UUID) ([]access.AccessDTO, error)
	listByOwnerFn func(ctx context.Context, ownerID uuid.UUID) ([]access.AccessDTO, error)
}

func (s *testAccessService) Request(ctx context.Context, userID, restaurantID uuid.UUID) (*access.AccessDTO, error) {
	if s.requestFn != nil {
		return s.requestFn(ctx, userID, restaurantID)
	}
	return &access.AccessDTO{}, nil
}

func (s *testAccessService) Grant(ctx context.Context, accessID, actorID uuid.UUID, role *enums.MemberRole) (*access.AccessDTO, error) {
	if s.grantFn != nil {
		return s.grantFn(ctx, accessID, actorID, role)
	}
	return &access.AccessDTO{}, nil
}

func (s *testAccessService) Suspend(ctx context.Context, accessID, actorID uuid.UUID) (*access.AccessDTO, error) {
	if s.suspendFn != nil {
		return s.suspendFn(ctx, accessID, actorID)
	}
	return &access.AccessDTO{}, nil
}

func (s *testAccessService) Deactivate(ctx context.Context, accessID, actorID uuid.UUID) (*access.AccessDTO, error) {
	if s.deactivateFn != nil {
		return s.deactivateFn(ctx, accessID, actorID)
	}
	return &access.AccessDTO{}, nil
}

func (s *testAccessService) ListByUser(ctx context.Context, userID uuid.UUID) ([]access.AccessDTO, error) {
	if s.listByUserFn != nil {
		return s.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (s *testAccessService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]access.AccessDTO, error) {
	if s.listByOwnerFn != nil {
		return s.listByOwnerFn(ctx, ownerID)
	}
	return nil, nil
}

func withActor(req *http.Request, actorID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), actorID.String()))
}

func TestRequestAccessCreated(t *testing.T) {
	userID := uuid.New()
	restaurantID := uuid.New()
	svc := &testAccessService{
		requestFn: func(ctx context.Context, uid, rid uuid.UUID) (*access.AccessDTO, error) {
			if uid != userID || rid != restaurantID {
				t.Fatalf("unexpected args %s %s", uid, rid)
			}
			return &access.AccessDTO{ID: uuid.New(), UserID: uid, RestaurantID: rid, Status: enums.AccessStatusPending}, nil
		},
	}

	body := strings.NewReader(`{"userId":"` + userID.String() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/restaurant-access/"+restaurantID.String(), body)
	req = addRouteParam(req, "restaurantId", restaurantID.String())
	resp := httptest.NewRecorder()
	RequestAccess(svc, testLogg())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	var envelope struct {
		Data access.AccessDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Status != enums.AccessStatusPending {
		t.Fatalf("expected pending status got %s", envelope.Data.Status)
	}
}

func TestRequestAccessRejectsUnknownFields(t *testing.T) {
	body := strings.NewReader(`{"userId":"` + uuid.NewString() + `","role":"owner"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/restaurant-access/"+uuid.NewString(), body)
	req = addRouteParam(req, "restaurantId", uuid.NewString())
	resp := httptest.NewRecorder()
	RequestAccess(&testAccessService{}, testLogg())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRequestAccessConflictPassesThrough(t *testing.T) {
	svc := &testAccessService{
		requestFn: func(ctx context.Context, uid, rid uuid.UUID) (*access.AccessDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "access request already exists")
		},
	}
	body := strings.NewReader(`{"userId":"` + uuid.NewString() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/restaurant-access/"+uuid.NewString(), body)
	req = addRouteParam(req, "restaurantId", uuid.NewString())
	resp := httptest.NewRecorder()
	RequestAccess(svc, testLogg())(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestGrantAccessForwardsRoleAndActor(t *testing.T) {
	accessID := uuid.New()
	actorID := uuid.New()
	var gotRole *enums.MemberRole
	svc := &testAccessService{
		grantFn: func(ctx context.Context, aid, act uuid.UUID, role *enums.MemberRole) (*access.AccessDTO, error) {
			if aid != accessID {
				t.Fatalf("unexpected access id %s", aid)
			}
			if act != actorID {
				t.Fatalf("unexpected actor %s", act)
			}
			gotRole = role
			return &access.AccessDTO{ID: aid, Status: enums.AccessStatusApproved}, nil
		},
	}

	body := strings.NewReader(`{"role":"manager"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/restaurant-access/access/"+accessID.String()+"/grant", body)
	req = addRouteParam(req, "accessId", accessID.String())
	req = withActor(req, actorID)
	resp := httptest.NewRecorder()
	GrantAccess(svc, testLogg())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotRole == nil || *gotRole != enums.MemberRoleManager {
		t.Fatalf("expected manager role forwarded, got %v", gotRole)
	}
}

func TestGrantAccessWithoutBodyDefaultsRole(t *testing.T) {
	accessID := uuid.New()
	sentinel := enums.MemberRoleOwner
	gotRole := &sentinel
	svc := &testAccessService{
		grantFn: func(ctx context.Context, aid, act uuid.UUID, role *enums.MemberRole) (*access.AccessDTO, error) {
			gotRole = role
			return &access.AccessDTO{ID: aid}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/restaurant-access/access/"+accessID.String()+"/grant", nil)
	req = addRouteParam(req, "accessId", accessID.String())
	req = withActor(req, uuid.New())
	resp := httptest.NewRecorder()
	GrantAccess(svc, testLogg())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotRole != nil {
		t.Fatalf("expected nil role without body, got %s", *gotRole)
	}
}

func TestTransitionWithoutIdentityUnauthorized(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/restaurant-access/access/"+uuid.NewString()+"/suspend", nil)
	req = addRouteParam(req, "accessId", uuid.NewString())
	resp := httptest.NewRecorder()
	SuspendAccess(&testAccessService{}, testLogg())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestDeactivateAccessStateConflict(t *testing.T) {
	svc := &testAccessService{
		deactivateFn: func(ctx context.Context, aid, act uuid.UUID) (*access.AccessDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "access already inactive").
				WithDetails(map[string]any{"status": "inactive"})
		},
	}
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/restaurant-access/access/"+uuid.NewString()+"/delete", nil)
	req = addRouteParam(req, "accessId", uuid.NewString())
	req = withActor(req, uuid.New())
	resp := httptest.NewRecorder()
	DeactivateAccess(svc, testLogg())(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Error.Details["status"] != "inactive" {
		t.Fatalf("expected current status in details, got %+v", envelope.Error.Details)
	}
}

func TestListAccessByOwnerReturnsItems(t *testing.T) {
	ownerID := uuid.New()
	svc := &testAccessService{
		listByOwnerFn: func(ctx context.Context, oid uuid.UUID) ([]access.AccessDTO, error) {
			if oid != ownerID {
				t.Fatalf("unexpected owner %s", oid)
			}
			return []access.AccessDTO{{ID: uuid.New()}, {ID: uuid.New()}}, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/restaurant-access/owner/"+ownerID.String(), nil)
	req = addRouteParam(req, "ownerId", ownerID.String())
	resp := httptest.NewRecorder()
	ListAccessByOwner(svc, testLogg())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data []access.AccessDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 records got %d", len(envelope.Data))
	}
}
