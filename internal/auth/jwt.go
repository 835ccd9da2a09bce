package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload embedded in an admin bearer token: the user's
// identity plus a snapshot of their role and its permissions at issue time.
type Claims struct {
	UUID  string     `json:"uuid"`
	Email string     `json:"email"`
	Role  *RoleClaim `json:"role,omitempty"`
}

type RoleClaim struct {
	UUID        string            `json:"uuid"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Permissions []PermissionClaim `json:"permissions"`
}

type PermissionClaim struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// HasPermission reports whether the snapshot grants the permission slug.
func (c Claims) HasPermission(slug string) bool {
	if c.Role == nil {
		return false
	}
	for _, p := range c.Role.Permissions {
		if p.Slug == slug {
			return true
		}
	}
	return false
}

type tokenClaims struct {
	Claims
	jwt.RegisteredClaims
}

// Sign issues an HS256 token carrying c, expiring after ttl.
func Sign(c Claims, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	tc := tokenClaims{
		Claims: c,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UUID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(secret)
}

// Verify parses and validates a bearer token. Any failure (malformed,
// expired, bad signature, wrong algorithm) comes back as a single error.
func Verify(tokenStr string, secret []byte) (Claims, error) {
	var tc tokenClaims
	tok, err := jwt.ParseWithClaims(tokenStr, &tc, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return Claims{}, errors.New("invalid token")
	}
	return tc.Claims, nil
}
