package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"tenant-sync/core/scope"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// APIKeyHeader carries the shared API key.
	APIKeyHeader = "X-API-Key"
	// LocalsKey is where the caller scope is stored on the Fiber context.
	LocalsKey = "caller_scope"
)

// ErrInvalidToken is returned for a bearer token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Config configures the auth middleware.
type Config struct {
	// ApiKey is required on every request when set.
	ApiKey string
	// JWTSecret enables bearer tokens. When empty every caller holding the
	// API key is unrestricted.
	JWTSecret string
}

// Claims are the caller attributes carried by a bearer token.
type Claims struct {
	jwt.RegisteredClaims
	Role     string `json:"role"`
	TenantID string `json:"tenantId"`
	Email    string `json:"email"`
}

// Scope derives the replication scope of the token's holder.
func (c Claims) Scope() scope.Scope {
	return scope.ForRole(c.Role, c.TenantID, c.Email)
}

// New returns the auth middleware. It rejects requests without the API key and,
// when bearer auth is enabled, without a valid token, then stores the caller
// scope for handlers.
func New(cfg Config) fiber.Handler {
	apiKey := []byte(cfg.ApiKey)
	secret := []byte(cfg.JWTSecret)

	return func(c *fiber.Ctx) error {
		if len(apiKey) > 0 && subtle.ConstantTimeCompare([]byte(c.Get(APIKeyHeader)), apiKey) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		if len(secret) == 0 {
			c.Locals(LocalsKey, scope.All())
			return c.Next()
		}

		raw, ok := bearer(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing bearer token"})
		}
		claims, err := ParseToken(raw, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		c.Locals(LocalsKey, claims.Scope())
		return c.Next()
	}
}

// ScopeFrom returns the caller scope stored by the middleware. Requests that
// never passed through it get an empty scope, which every filter refuses.
func ScopeFrom(c *fiber.Ctx) scope.Scope {
	s, _ := c.Locals(LocalsKey).(scope.Scope)
	return s
}

func bearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// GenerateToken signs claims with HS256, valid for ttl.
func GenerateToken(claims Claims, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken verifies an HS256 token and returns its claims.
func ParseToken(raw string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
