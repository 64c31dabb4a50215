package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/attendance-service/internal/domain"
)

// ErrInvalidToken covers bad signatures, wrong algorithms, malformed payloads and expiry.
var ErrInvalidToken = errors.New("invalid token")

// TokenManager issues and validates stateless session tokens.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager builds a manager around the process-wide signing secret.
func NewTokenManager(secret string) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is empty")
	}
	return &TokenManager{secret: []byte(secret), now: time.Now}, nil
}

// Identity is what a session token proves about its bearer at issuance time.
type Identity struct {
	PrincipalID string
	Role        domain.Role
	Email       string
	Name        string
	Generation  int64
}

// Claims describes the JWT payload. Role flags are deliberately absent.
type Claims struct {
	Role       domain.Role `json:"role"`
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	Generation int64       `json:"gen"`
	jwt.RegisteredClaims
}

// Identity returns the claims as an Identity.
func (c *Claims) Identity() Identity {
	return Identity{
		PrincipalID: c.Subject,
		Role:        c.Role,
		Email:       c.Email,
		Name:        c.Name,
		Generation:  c.Generation,
	}
}

// GenerateToken signs a token for id that expires after ttl.
func (tm *TokenManager) GenerateToken(id Identity, ttl time.Duration) (string, time.Time, error) {
	if id.PrincipalID == "" || !id.Role.Valid() {
		return "", time.Time{}, errors.New("token identity incomplete")
	}
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(ttl)
	claims := &Claims{
		Role:       id.Role,
		Email:      id.Email,
		Name:       id.Name,
		Generation: id.Generation,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.PrincipalID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates signature and expiry together and returns the claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
