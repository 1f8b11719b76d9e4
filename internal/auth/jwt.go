package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"bedrock_usage/internal/config"
	"bedrock_usage/internal/models"
)

// adminTokenTTL is how long an admin session token stays valid.
const adminTokenTTL = 8 * time.Hour

// AdminClaims are the claims carried by admin session tokens.
type AdminClaims struct {
	AdminID string   `json:"admin_id"`
	Email   string   `json:"email"`
	Roles   []string `json:"roles"`
	jwt.RegisteredClaims
}

// GenerateAdminJWT creates a signed session token for an admin user.
// Returns the token and its expiry as a Unix timestamp.
func GenerateAdminJWT(user *models.AdminUser, cfg *config.Config) (string, int64, error) {
	expiresAt := time.Now().Add(adminTokenTTL)
	claims := AdminClaims{
		AdminID: user.ID.String(),
		Email:   user.Email,
		Roles:   user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(cfg.JWTSecret)
	if err != nil {
		return "", 0, err
	}
	return signed, expiresAt.Unix(), nil
}

// ValidateAdminJWT verifies an admin session token and returns its claims.
func ValidateAdminJWT(tokenString string, cfg *config.Config) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return cfg.JWTSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// HasRole checks if the claims carry a specific role
func (c *AdminClaims) HasRole(role Role) bool {
	for _, r := range c.Roles {
		if r == role.String() {
			return true
		}
	}
	return false
}
