package auth

import (
	"github.com/bitescout/bitescout-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.MemberRole
}

// AccessTokenClaims represents the typed JWT presented by clients.
type AccessTokenClaims struct {
	UserID uuid.UUID        `json:"user_id"`
	Role   enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}

// ResolveRole extracts the platform role from verified claims. Tokens
// without a recognizable role claim resolve to the plain user role.
func ResolveRole(claims *AccessTokenClaims) enums.MemberRole {
	if claims == nil {
		return enums.MemberRoleUser
	}
	if claims.Role.IsValid() {
		return claims.Role
	}
	return enums.MemberRoleUser
}
