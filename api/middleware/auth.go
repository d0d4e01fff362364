package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bitescout/bitescout-backend/api/responses"
	pkgAuth "github.com/bitescout/bitescout-backend/pkg/auth"
	"github.com/bitescout/bitescout-backend/pkg/config"
	pkgerrors "github.com/bitescout/bitescout-backend/pkg/errors"
	"github.com/bitescout/bitescout-backend/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

// Auth validates a bearer token and seeds the request context with the
// verified identity. Absent credentials are a 401; a token that was
// presented but fails verification is a 403, except expiry, which stays a
// 401 with an explicit reason so clients know to refresh.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					responses.WriteError(r.Context(), logg, w, r,
						pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "token expired").
							WithDetails(map[string]any{"reason": "expired"}))
					return
				}
				responses.WriteError(r.Context(), logg, w, r, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid token"))
				return
			}

			role := pkgAuth.ResolveRole(claims)

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxRole, string(role))

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    claims.UserID.String(),
					"actor_role": string(role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
