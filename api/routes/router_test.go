package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bitescout/bitescout-backend/internal/access"
	"github.com/bitescout/bitescout-backend/internal/notifications"
	"github.com/bitescout/bitescout-backend/internal/realtime"
	pkgAuth "github.com/bitescout/bitescout-backend/pkg/auth"
	"github.com/bitescout/bitescout-backend/pkg/config"
	"github.com/bitescout/bitescout-backend/pkg/enums"
	"github.com/bitescout/bitescout-backend/pkg/logger"
	"github.com/bitescout/bitescout-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCounter struct{}

func (stubCounter) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return 1, nil
}

func (stubCounter) RateLimitKey(scope string) string {
	return "ratelimit:" + scope
}

type stubAccessService struct {
	requestFn func(ctx context.Context, userID, restaurantID uuid.UUID) (*access.AccessDTO, error)
	grantFn   func(ctx context.Context, accessID, actorID uuid.UUID, role *enums.MemberRole) (*access.AccessDTO, error)
}

func (s stubAccessService) Request(ctx context.Context, userID, restaurantID uuid.UUID) (*access.AccessDTO, error) {
	if s.requestFn != nil {
		return s.requestFn(ctx, userID, restaurantID)
	}
	return &access.AccessDTO{}, nil
}

func (s stubAccessService) Grant(ctx context.Context, accessID, actorID uuid.UUID, role *enums.MemberRole) (*access.AccessDTO, error) {
	if s.grantFn != nil {
		return s.grantFn(ctx, accessID, actorID, role)
	}
	return &access.AccessDTO{}, nil
}

func (stubAccessService) Suspend(ctx context.Context, accessID, actorID uuid.UUID) (*access.AccessDTO, error) {
	return &access.AccessDTO{}, nil
}

func (stubAccessService) Deactivate(ctx context.Context, accessID, actorID uuid.UUID) (*access.AccessDTO, error) {
	return &access.AccessDTO{}, nil
}

func (stubAccessService) ListByUser(ctx context.Context, userID uuid.UUID) ([]access.AccessDTO, error) {
	return nil, nil
}

func (stubAccessService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]access.AccessDTO, error) {
	return nil, nil
}

type stubNotificationsService struct {
	listFn func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
}

func (s stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) Create(ctx context.Context, recipientID uuid.UUID, kind enums.NotificationType, data types.JSONMap) (*notifications.NotificationDTO, error) {
	return &notifications.NotificationDTO{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) (*notifications.NotificationDTO, error) {
	return &notifications.NotificationDTO{}, nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
		Permissions: config.PermissionsConfig{DefaultAllow: true},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Output: io.Discard})
	registry := realtime.NewRegistry(cfg.Realtime, stubCounter{}, logg)
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		nil,
		registry,
		stubAccessService{},
		stubNotificationsService{},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.MemberRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if env := resp.Header().Get("X-BiteScout-Env"); env != "test" {
		t.Fatalf("expected env header, got %q", env)
	}
}

func TestHealthReadySkipsUnwiredRedis(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Checks map[string]string `json:"checks"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Checks["database"] != "ok" {
		t.Fatalf("expected database ok, got %+v", envelope.Data.Checks)
	}
	if envelope.Data.Checks["redis"] != "skipped" {
		t.Fatalf("a nil redis client must be skipped, got %+v", envelope.Data.Checks)
	}
}

func TestGateRejectsMissingToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/"+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestTransitionRoutesRequireManagementRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	target := "/api/v1/restaurant-access/access/" + uuid.NewString() + "/grant"

	staff := httptest.NewRequest(http.MethodPatch, target, nil)
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleStaff))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff got %d", resp.Code)
	}

	owner := httptest.NewRequest(http.MethodPatch, target, nil)
	owner.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleOwner))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, owner)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner got %d", resp.Code)
	}
}

func TestRequestAccessAdmitsAnyRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	body := bytes.NewBufferString(`{"userId":"` + uuid.NewString() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/restaurant-access/"+uuid.NewString(), body)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleUser))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
}

func TestNotificationsRouteAdmitsUserRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestLiveChannelUpgradesThroughMiddleware(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(testConfig()))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("websocket dial failed (status %d): %v", status, err)
	}
	defer conn.Close()

	userID := uuid.New()
	if err := conn.WriteJSON(map[string]string{"type": "authenticate", "userId": userID.String()}); err != nil {
		t.Fatalf("write authenticate: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event struct {
		Type string `json:"type"`
	}
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Type != "authenticated" {
		t.Fatalf("expected authenticated event got %q", event.Type)
	}
}

func TestExpiredTokenIsUnauthorized(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now().Add(-2*time.Hour), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.MemberRoleUser,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token got %d", resp.Code)
	}
}
