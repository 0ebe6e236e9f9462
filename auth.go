package main

import (
	"errors"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

const tokenIssuer = "thesisreport"

var errInvalidToken = errors.New("invalid token")

// UserClaims is the payload of an access token.
type UserClaims struct {
	UserID uuid.UUID `json:"uid"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// newAccessToken signs an HS256 token for user valid for expiry.
func newAccessToken(secret string, user *User, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := UserClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// parseToken validates a "Bearer <jwt>" header value.
func parseToken(secret, header string) (UserClaims, error) {
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return UserClaims{}, errInvalidToken
	}
	claims := &UserClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return UserClaims{}, errInvalidToken
	}
	return *claims, nil
}

// checkPassword compares password against an argon2id hash.
func checkPassword(password, hash string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		zap.L().Warn("password hash comparison failed", zap.Error(err))
		return false
	}
	return match
}

// adminRequired rejects requests without a valid admin access token.
func adminRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := parseToken(secret, c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		if claims.Role != roleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		c.Locals("claims", claims)
		return c.Next()
	}
}
