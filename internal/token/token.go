// Package token signs and verifies the two token kinds of the service:
// expiring session tokens and non-expiring email confirmation tokens. Both
// are HS256 JWTs keyed by a single secret fixed at startup.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	kindSession = "session"
	kindConfirm = "confirm"
)

var (
	// ErrTokenInvalid is returned for forged, malformed or wrong-kind tokens.
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrTokenExpired is returned for a well-formed session token past its expiry.
	ErrTokenExpired = errors.New("token has expired")
)

// Claims carries the email identity plus the token kind discriminator.
type Claims struct {
	Email string `json:"email"`
	Kind  string `json:"kind"`
	jwt.RegisteredClaims
}

// Service issues and verifies tokens. It holds no mutable state and is safe
// for concurrent use.
type Service struct {
	secret     []byte
	sessionTTL time.Duration
}

// NewService creates a token service with the given signing secret and
// session token lifetime.
func NewService(secret string, sessionTTL time.Duration) *Service {
	return &Service{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
	}
}

// IssueSession signs a session token for the email. The uuid jti keeps two
// tokens for the same email byte-distinct even within one wall-clock second.
func (s *Service) IssueSession(email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		Kind:  kindSession,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// IssueConfirmation signs a confirmation token for the email. It carries no
// expiry: a confirmation link stays valid indefinitely and may be reused.
func (s *Service) IssueConfirmation(email string) (string, error) {
	claims := &Claims{
		Email: email,
		Kind:  kindConfirm,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifySession validates a session token and returns the embedded email.
// Outcomes are tri-state: (email, nil), ErrTokenExpired for a stale token,
// ErrTokenInvalid for everything else, including a confirmation token
// presented as a session token.
func (s *Service) VerifySession(tokenString string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Kind != kindSession || claims.ExpiresAt == nil || claims.Email == "" {
		return "", ErrTokenInvalid
	}
	return claims.Email, nil
}

// VerifyConfirmation validates a confirmation token and returns the embedded
// email. Any failure collapses to ErrTokenInvalid; expiry is not a concept
// for this kind.
func (s *Service) VerifyConfirmation(tokenString string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil || claims.Kind != kindConfirm || claims.Email == "" {
		return "", ErrTokenInvalid
	}
	return claims.Email, nil
}

func (s *Service) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
