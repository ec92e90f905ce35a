package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/gesledger/internal/domain"
)

// Issuer is stamped on every token and required on verification.
const Issuer = "gesledger"

// Claims represents the JWT claims
type Claims struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Principal converts the claims into the caller identity.
func (c *Claims) Principal() domain.Principal {
	return domain.Principal{UserID: c.UserID, Role: c.Role}
}

// JWTManager manages JWT token creation and validation
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		now:           time.Now,
	}
}

// Generate issues a token for the principal.
func (m *JWTManager) Generate(p domain.Principal) (string, error) {
	if p.UserID == "" {
		return "", fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if !p.Role.IsValid() {
		return "", domain.ErrInvalidRole
	}

	now := m.now()
	claims := Claims{
		UserID: p.UserID,
		Role:   p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   p.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Verify checks signature, issuer and expiry and returns the claims. Only
// HS256 tokens carrying an exp claim are accepted.
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(*jwt.Token) (any, error) { return m.secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.UserID == "" || !claims.Role.IsValid() {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}
