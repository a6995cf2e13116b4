package daemon

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenRole reads the role claim out of a bearer token without verifying
// the signature. The daemon verifies; the client only needs the claim to
// decide whether to offer admin controls.
func TokenRole(token string) string {
	if token == "" {
		return ""
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return ""
	}
	role, _ := claims["role"].(string)
	return role
}

// IsAdminToken reports whether the token carries the admin role.
func IsAdminToken(token string) bool {
	return TokenRole(token) == "admin"
}
