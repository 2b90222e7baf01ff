package domain

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is an opaque bearer token together with the role claim decoded
// from it. The role is derived exactly once, here, and drives view routing
// only — it is never an authorization decision; the server re-checks every
// request. A Credential is immutable: replacing it means constructing a new
// one and discarding the old.
type Credential struct {
	token    string
	username string
	role     string
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewCredential decodes the role claim out of a bearer token. The decode is
// deliberately unverified — the client does not hold the signing key — and
// fails closed: a token that cannot be parsed, or whose role claim is absent
// or unknown, yields ErrMalformedCredential, never a defaulted role.
func NewCredential(token string) (Credential, error) {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}
	if claims.Role != RoleUser && claims.Role != RoleAdmin {
		return Credential{}, fmt.Errorf("%w: unknown role %q", ErrMalformedCredential, claims.Role)
	}
	return Credential{token: token, username: claims.Subject, role: claims.Role}, nil
}

// Token returns the raw bearer string for the Authorization header.
func (c Credential) Token() string { return c.token }

// Username returns the subject claim, when the token carried one.
func (c Credential) Username() string { return c.username }

// Role returns the decoded role claim, RoleUser or RoleAdmin.
func (c Credential) Role() string { return c.role }

// IsAdmin reports whether the credential carries the ADMIN role.
func (c Credential) IsAdmin() bool { return c.role == RoleAdmin }
