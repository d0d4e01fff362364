package middleware

import (
	"net/http"
	"strings"

	"github.com/bitescout/bitescout-backend/api/responses"
	"github.com/bitescout/bitescout-backend/pkg/config"
	"github.com/bitescout/bitescout-backend/pkg/enums"
	pkgerrors "github.com/bitescout/bitescout-backend/pkg/errors"
	"github.com/bitescout/bitescout-backend/pkg/logger"
)

// PermissionRule maps a route prefix to the roles allowed through it.
type PermissionRule struct {
	Prefix string
	Roles  []enums.MemberRole
}

// PermissionTable resolves the allowed roles for a path by longest
// matching prefix. Paths without a matching rule fall back to the
// configured default.
type PermissionTable struct {
	rules        []PermissionRule
	defaultAllow bool
}

// NewPermissionTable builds the table. Rule order does not matter; lookup
// always picks the longest matching prefix.
func NewPermissionTable(cfg config.PermissionsConfig, rules []PermissionRule) *PermissionTable {
	return &PermissionTable{rules: rules, defaultAllow: cfg.DefaultAllow}
}

// Allows reports whether the role may reach the path.
func (t *PermissionTable) Allows(path string, role enums.MemberRole) bool {
	var best *PermissionRule
	for i := range t.rules {
		rule := &t.rules[i]
		if !strings.HasPrefix(path, rule.Prefix) {
			continue
		}
		if best == nil || len(rule.Prefix) > len(best.Prefix) {
			best = rule
		}
	}
	if best == nil {
		return t.defaultAllow
	}
	for _, allowed := range best.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Permissions enforces the table against the role seeded by Auth. It must
// run after Auth in the chain.
func Permissions(table *PermissionTable, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := enums.MemberRole(RoleFromContext(r.Context()))
			if !table.Allows(r.URL.Path, role) {
				responses.WriteError(r.Context(), logg, w, r, pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted for this route"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
