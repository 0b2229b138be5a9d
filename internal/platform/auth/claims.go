// Package auth verifies bearer credentials and exposes the verified caller to
// HTTP handlers and the realtime endpoint.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

// ErrUnauthorized wraps every credential failure.
var ErrUnauthorized = errors.New("unauthorized")

// Claims is the payload of an access token.
type Claims struct {
	Subject    int64            `json:"sub"`
	EmployeeID int64            `json:"employeeId"`
	NIK        string           `json:"nik"`
	Role       identity.Role    `json:"role"`
	IssuedAt   *jwt.NumericDate `json:"iat,omitempty"`
	ExpiresAt  *jwt.NumericDate `json:"exp,omitempty"`
}

// Actor converts verified claims into the caller identity used by services.
func (c Claims) Actor() identity.Actor {
	return identity.Actor{
		SubjectID:  c.Subject,
		EmployeeID: c.EmployeeID,
		NIK:        c.NIK,
		Role:       c.Role,
	}
}

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error) { return c.IssuedAt, nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c Claims) GetIssuer() (string, error) { return "", nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error) { return nil, nil }

func (c Claims) GetSubject() (string, error) {
	if c.Subject == 0 {
		return "", nil
	}
	return strconv.FormatInt(c.Subject, 10), nil
}

func (c Claims) validate() error {
	switch {
	case c.Subject == 0:
		return fmt.Errorf("%w: missing subject", ErrUnauthorized)
	case c.EmployeeID == 0:
		return fmt.Errorf("%w: missing employee id", ErrUnauthorized)
	case !c.Role.Valid():
		return fmt.Errorf("%w: unknown role %q", ErrUnauthorized, c.Role)
	}
	return nil
}

// Verifier checks HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// VerifierOption customises a Verifier.
type VerifierOption func(*Verifier)

// WithClock overrides the time used for expiry checks.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.now = now
	}
}

// NewVerifier creates a verifier for secret.
func NewVerifier(secret string, opts ...VerifierOption) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	v := &Verifier{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v, nil
}

// Verify parses raw and returns its claims when signature, expiry and
// required claims are valid.
func (v *Verifier) Verify(raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if err := claims.validate(); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// Issue signs claims valid for ttl from now.
func (v *Verifier) Issue(claims Claims, ttl time.Duration) (string, error) {
	now := v.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if err := claims.validate(); err != nil {
		return "", err
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
