package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mcpflow/mcpflow/internal/config"
)

// tokenIssuer identifies tokens minted by this service.
const tokenIssuer = "mcpflow"

// SessionClaims carries the authenticated principal inside a JWT.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID  uint64 `json:"user_id"`  // Authenticated principal ID.
	IsAdmin bool   `json:"is_admin"` // Admin surface access.
}

// ErrInvalidToken indicates the token failed signature or claim checks.
var ErrInvalidToken = errors.New("security: invalid token")

// IssueToken signs a session token for the given principal.
func IssueToken(cfg config.JWTConfig, userID uint64, isAdmin bool) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("security: missing jwt secret")
	}
	now := time.Now().UTC()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Expiry)),
		},
		UserID:  userID,
		IsAdmin: isAdmin,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, errSign := token.SignedString([]byte(cfg.Secret))
	if errSign != nil {
		return "", fmt.Errorf("security: sign token: %w", errSign)
	}
	return signed, nil
}

// ParseToken validates a session token and returns its claims.
func ParseToken(secret, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, errParse := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if errParse != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
