package identity

import (
	"fmt"
	"time"

	"auction-marketplace/internal/auctionerrors"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "auction-marketplace"

// TokenManager issues and verifies the HS256 bearer tokens used by the
// HTTP layer. The token subject carries the user ID stamped onto bids and
// auctions.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a TokenManager signing with secret. A
// non-positive ttl defaults to 24 hours.
func NewTokenManager(secret []byte, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: secret, ttl: ttl}
}

// Issue returns a signed token identifying userID
func (tm *TokenManager) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("identity: failed to sign token for user %s: %w", userID, err)
	}
	return signed, nil
}

// Verify validates a signed token and returns the user ID it identifies
func (tm *TokenManager) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("identity: token rejected: %w", auctionerrors.ErrInvalidCredentials)
	}
	return claims.Subject, nil
}
