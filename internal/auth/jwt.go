// Package auth resolves bearer tokens into an actor identity. The dispatch
// engine trusts the resolved (actor ID, roles) pair without re-verification;
// token issuance lives outside this service.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role names carried in tokens. A token holds a single role; the resolved
// identity exposes it as a set for the engine's role checks.
const (
	RolePassenger = "passenger"
	RoleDriver    = "driver"
)

// Identity is the authenticated actor resolved from a request token.
type Identity struct {
	ActorID string
	Roles   []string
}

// HasRole reports whether the identity carries the named role.
func (id Identity) HasRole(role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Claims is the JWT payload this service accepts: the standard registered
// claims plus a role. The subject claim is the actor ID.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier parses and validates HS256 bearer tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a Verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Parse validates a token (with or without the "Bearer " prefix) and returns
// the identity it carries. Only HMAC signatures are accepted; tokens signed
// with any other method are rejected.
func (v *Verifier) Parse(tokenString string) (Identity, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("auth.Verifier.Parse: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, errors.New("auth.Verifier.Parse: invalid token")
	}
	if claims.Subject == "" {
		return Identity{}, errors.New("auth.Verifier.Parse: token has no subject")
	}

	id := Identity{ActorID: claims.Subject}
	if claims.Role != "" {
		id.Roles = []string{claims.Role}
	}
	return id, nil
}

// Sign issues a token for the given actor and role, valid for ttl.
// Used by tests and local tooling; production tokens come from the external
// identity service.
func (v *Verifier) Sign(actorID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("auth.Verifier.Sign: %w", err)
	}
	return signed, nil
}

// contextKey is unexported so only this package can place identities in a context.
type contextKey struct{}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the identity placed by the authentication middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
