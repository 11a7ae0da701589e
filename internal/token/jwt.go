// Package token issues and verifies signed, time-bounded session tokens.
package token

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned for tokens that cannot be decoded or lack required claims.
	ErrMalformed = errors.New("malformed token")
	// ErrInvalidSignature is returned when the signature does not match the payload.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrExpired is returned when the token is past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrEmptySubject is returned when issuing claims without a subject.
	ErrEmptySubject = errors.New("token subject cannot be empty")
)

// Claims is the verified content of a session token.
type Claims struct {
	// Subject identifies the authenticated principal.
	Subject string
	// ExpiresAt is the absolute expiry of the token.
	ExpiresAt time.Time
	// IssuedAt is the issuance time.
	IssuedAt time.Time
	// Fields holds any additional custom claims.
	Fields map[string]any
}

// Service implements HS256 JWT issuance and verification.
type Service struct {
	secret []byte
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a token Service signing with secretKey.
func NewService(secretKey string, opts ...Option) *Service {
	s := &Service{secret: []byte(secretKey), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs claims with an expiry of now + ttl.
// Custom fields never override the sub, exp and iat claims.
// Both iat and exp are JWT NumericDates and carry whole seconds only, so
// sub-second parts of now + ttl are truncated.
func (s *Service) Issue(claims Claims, ttl time.Duration) (string, error) {
	if claims.Subject == "" {
		return "", ErrEmptySubject
	}

	now := s.now()
	payload := jwt.MapClaims{}
	maps.Copy(payload, claims.Fields)
	payload["sub"] = claims.Subject
	payload["iat"] = jwt.NewNumericDate(now)
	payload["exp"] = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify decodes tokenString and checks, in order, its structure, its signature
// and its expiry. The returned error is one of ErrMalformed, ErrInvalidSignature
// or ErrExpired.
func (s *Service) Verify(tokenString string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)

	payload := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(tokenString, payload, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return Claims{}, classify(err)
	}

	subject, err := payload.GetSubject()
	if err != nil || subject == "" {
		return Claims{}, ErrMalformed
	}
	exp, err := payload.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, ErrMalformed
	}

	claims := Claims{
		Subject:   subject,
		ExpiresAt: exp.Time,
		Fields:    map[string]any{},
	}
	if iat, err := payload.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	for k, v := range payload {
		switch k {
		case "sub", "exp", "iat":
		default:
			claims.Fields[k] = v
		}
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformed
	}
}
