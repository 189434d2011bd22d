package http

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/example/academy-scheduler/internal/application"
)

// ErrInvalidToken is returned for malformed, expired or mis-signed tokens.
var ErrInvalidToken = errors.New("http: invalid token")

const tokenIssuer = "academy-scheduler"

type principalClaims struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 bearer tokens for principals.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer signing with secret. A nil now uses time.Now.
func NewTokenIssuer(secret string, ttl time.Duration, now func() time.Time) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue signs a token for principal and returns it with its expiry.
func (i *TokenIssuer) Issue(principal application.Principal) (string, time.Time, error) {
	if len(i.secret) == 0 {
		return "", time.Time{}, errors.New("http: token secret is empty")
	}
	if principal.UserID <= 0 || !principal.Role.Valid() {
		return "", time.Time{}, fmt.Errorf("http: cannot issue token for %+v", principal)
	}

	issuedAt := i.now()
	expiresAt := issuedAt.Add(i.ttl)
	claims := principalClaims{
		ID:   principal.UserID,
		Name: principal.Name,
		Role: string(principal.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("%d", principal.UserID),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("http: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses token and returns the principal it carries.
func (i *TokenIssuer) Verify(token string) (application.Principal, error) {
	claims := &principalClaims{}
	parser := jwt.Parser{SkipClaimsValidation: true}
	_, err := parser.ParseWithClaims(strings.TrimSpace(token), claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return application.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !claims.VerifyExpiresAt(i.now(), true) {
		return application.Principal{}, fmt.Errorf("%w: token expired", ErrInvalidToken)
	}

	principal := application.Principal{
		UserID: claims.ID,
		Name:   claims.Name,
		Role:   application.Role(claims.Role),
	}
	if principal.UserID <= 0 || !principal.Role.Valid() {
		return application.Principal{}, fmt.Errorf("%w: missing id or role", ErrInvalidToken)
	}
	return principal, nil
}
