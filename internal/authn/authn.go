// Package authn is the contract boundary to the external auth service: an
// opaque provider that validates a bearer token and returns a user id.
// Signup, login, password hashing, and refresh-token rotation live in that
// service; only bearer-token verification is implemented here.
package authn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ricirt/booking-backend/internal/domain"
)

// Claims is the minimal JWT payload this boundary expects; signup/login are
// external collaborators, so the only thing this package needs is to read
// what they would have issued.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Provider authenticates a bearer token and returns the caller's user id.
type Provider interface {
	Authenticate(ctx context.Context, bearerToken string) (userID string, err error)
}

type jwtProvider struct {
	secretKey []byte
}

// NewJWTProvider returns a Provider backed by HS256-signed JWTs.
func NewJWTProvider(secretKey string) Provider {
	return &jwtProvider{secretKey: []byte(secretKey)}
}

func (p *jwtProvider) Authenticate(_ context.Context, bearerToken string) (string, error) {
	tokenString := strings.TrimSpace(strings.TrimPrefix(bearerToken, "Bearer "))
	if tokenString == "" {
		return "", domain.ErrForbidden
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secretKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrForbidden, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", domain.ErrForbidden
	}
	return claims.UserID, nil
}

// IssueAccessToken is exposed for tests and for any future signup/login
// implementation to reuse the same signing path; the HTTP surface for
// issuing tokens belongs to the external auth service.
func IssueAccessToken(secretKey, userID string, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}
