package api

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"aegis/config"
	"aegis/core"
	"aegis/rbac"
)

// Claims represents the JWT claims issued by the national SSO gateway.
// Role carries the role identifier assigned at sign-in; permissions are
// never embedded in the token and are resolved from the catalog on every
// request.
type Claims struct {
	Identity string `json:"identity"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// validateJWT validates a JWT token string and returns the claims.
func validateJWT(tokenString string, cfg *config.Config) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.Auth.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, errors.New("token has expired")
	}
	if claims.NotBefore != nil && claims.NotBefore.After(time.Now()) {
		return nil, errors.New("token not yet valid")
	}

	return claims, nil
}

// GenerateToken issues a signed token for the given identity and role.
// Primarily used by tests and the bundled token tool; production tokens
// come from the SSO gateway.
func GenerateToken(identity, role string, cfg *config.Config) (string, error) {
	now := time.Now()
	claims := &Claims{
		Identity: identity,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Auth.JWTExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "aegis",
			Subject:   identity,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Auth.JWTSecret))
}

// principalFromClaims resolves token claims into a principal with effective
// permissions. A role that no longer resolves in the catalog yields a
// principal with zero permissions rather than an authentication failure;
// every guarded route then denies it.
func principalFromClaims(claims *Claims, catalog *rbac.Catalog) *core.Principal {
	return &core.Principal{
		Identity:    claims.Identity,
		Role:        claims.Role,
		Permissions: catalog.PermissionsOf(claims.Role),
	}
}
