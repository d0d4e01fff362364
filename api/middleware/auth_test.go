package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgAuth "github.com/bitescout/bitescout-backend/pkg/auth"
	"github.com/bitescout/bitescout-backend/pkg/config"
	"github.com/bitescout/bitescout-backend/pkg/enums"
	"github.com/bitescout/bitescout-backend/pkg/logger"
	"github.com/google/uuid"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "bitescout-test",
		ExpirationMinutes: 15,
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func mintToken(t *testing.T, cfg config.JWTConfig, now time.Time, role enums.MemberRole) (string, uuid.UUID) {
	t.Helper()

	userID := uuid.New()
	token, err := pkgAuth.MintAccessToken(cfg, now, pkgAuth.AccessTokenPayload{UserID: userID, Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token, userID
}

func runGate(t *testing.T, cfg config.JWTConfig, authorization string, next http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/abc", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	Auth(cfg, testLogger())(next).ServeHTTP(rec, req)
	return rec
}

func TestAuth_MissingCredentials(t *testing.T) {
	rec := runGate(t, testJWTConfig(), "", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_ExpiredTokenCarriesReason(t *testing.T) {
	cfg := testJWTConfig()
	token, _ := mintToken(t, cfg, time.Now().Add(-2*time.Hour), enums.MemberRoleUser)

	rec := runGate(t, cfg, "Bearer "+token, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with an expired token")
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Details["reason"] != "expired" {
		t.Fatalf("expected expiry reason, got %+v", body.Error)
	}
}

func TestAuth_BadSignatureForbidden(t *testing.T) {
	otherCfg := testJWTConfig()
	otherCfg.Secret = "different-secret"
	token, _ := mintToken(t, otherCfg, time.Now(), enums.MemberRoleUser)

	rec := runGate(t, testJWTConfig(), "Bearer "+token, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a forged token")
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAuth_MalformedTokenForbidden(t *testing.T) {
	rec := runGate(t, testJWTConfig(), "Bearer not.a.jwt", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a malformed token")
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAuth_ValidTokenSeedsContext(t *testing.T) {
	cfg := testJWTConfig()
	token, userID := mintToken(t, cfg, time.Now(), enums.MemberRoleAdmin)

	var sawUser, sawRole string
	rec := runGate(t, cfg, "Bearer "+token, func(w http.ResponseWriter, r *http.Request) {
		sawUser = UserIDFromContext(r.Context())
		sawRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if sawUser != userID.String() {
		t.Fatalf("unexpected user id %q", sawUser)
	}
	if sawRole != string(enums.MemberRoleAdmin) {
		t.Fatalf("unexpected role %q", sawRole)
	}
}
