package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mirror/errors"
)

// Claims carries the resolved identity in the registered subject field,
// the shape the rest of the product already issues.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken creates a signed access token for username.
// The secret comes from configuration; see cmd/server.
func GenerateToken(username string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "mirror",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ResolveSubject validates signature and expiry and returns the
// username the token was issued for. Every failure collapses into
// ErrUnauthenticated: the caller never learns why a credential is bad.
func ResolveSubject(tokenString string, secret []byte) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", errors.ErrUnauthenticated
	}
	return claims.Subject, nil
}
