package security

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Ticket validation errors.
var (
	// ErrInvalidToken indicates a ticket is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates a ticket has expired.
	ErrExpiredToken = errors.New("token expired")
)

// TicketClaims asserts that Identifier proved control of a code for Purpose.
type TicketClaims struct {
	Identifier string `json:"identifier"`
	Purpose    string `json:"purpose"`
	jwt.RegisteredClaims
}

// TicketSigner issues short-lived HS256 verification tickets.
type TicketSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTicketSigner constructs a TicketSigner.
func NewTicketSigner(secret, issuer string, ttl time.Duration) *TicketSigner {
	return &TicketSigner{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issue signs a ticket for identifier and purpose and returns it with its expiry.
func (s *TicketSigner) Issue(identifier, purpose string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := TicketClaims{
		Identifier: identifier,
		Purpose:    purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   identifier,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse validates a ticket and returns its claims.
func (s *TicketSigner) Parse(tokenString string) (*TicketClaims, error) {
	token, err := jwt.ParseWithClaims(strings.TrimSpace(tokenString), &TicketClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*TicketClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
