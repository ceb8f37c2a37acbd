// Package token validates the bearer tokens issued by the platform's auth
// service. This core does not issue tokens; it only checks signature and
// expiry and extracts the caller identity.
package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"locatio/internal/platform/middleware"
)

// Validator verifies HS256-signed tokens with the shared platform key.
type Validator struct {
	signingKey []byte
}

func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ValidateToken checks the token signature and expiry and returns the caller
// identity. The subject claim is the actor ID.
func (v *Validator) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token invalid")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	return &middleware.JWTClaims{ActorID: c.Subject, Role: c.Role}, nil
}
