// Package utils provides token signing and password hashing helpers.
package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the identity carried by a token. Tokens issued by the shared login
// carry email and userId; tokens issued by a portal's own login may carry
// only userId. The json names match tokens minted by the other portals.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs c with HS256. The issued-at and expiry claims are derived
// from now and ttl; the expiry is returned alongside the token.
func IssueToken(c Claims, secret string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	exp := now.Add(ttl).UTC()
	c.IssuedAt = jwt.NewNumericDate(now.UTC())
	c.ExpiresAt = jwt.NewNumericDate(exp)
	if c.Subject == "" {
		c.Subject = c.UserID
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyToken checks the signature and expiry of raw as of now. It fails with
// ErrMissingToken, ErrExpiredToken or ErrInvalidToken.
func VerifyToken(raw, secret string, now time.Time) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value. An
// absent header or a non-Bearer scheme yields "".
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
