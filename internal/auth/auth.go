// Package auth checks the bearer credential browser clients send with
// processing requests.
package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"photopipe/internal/models"
)

// Verifier validates bearer tokens. Without a secret it only requires that a
// token is present.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	v := &Verifier{}
	if secret != "" {
		v.secret = []byte(secret)
	}
	return v
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Verify checks the Authorization header and returns the token subject, which
// is empty when no secret is configured.
func (v *Verifier) Verify(header string) (string, error) {
	const op = "auth.Verify"

	token, ok := BearerToken(header)
	if !ok {
		return "", fmt.Errorf("%s: %w: missing bearer token", op, models.ErrUnauthorized)
	}
	if v.secret == nil {
		return "", nil
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%s: %w: %v", op, models.ErrUnauthorized, err)
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, models.ErrUnauthorized, err)
	}
	return sub, nil
}
