package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"neighborhub/internal/apperr"
)

const issuer = "neighborhub"

// Claims is the identity carried by a bearer token.
type Claims struct {
	UserID         string `json:"uid"`
	NeighborhoodID string `json:"nid"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService constructs a TokenService.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the user.
func (t *TokenService) Issue(userID, neighborhoodID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:         userID,
		NeighborhoodID: neighborhoodID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses the token and checks signature, issuer and expiry.
func (t *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, jwt.ErrTokenInvalidClaims)
	}
	return claims, nil
}

// ErrInvalidCredentials is returned for a wrong email or password.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)
