package middleware

import (
	"Inspecta/Inspection"
	"Inspecta/Models"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// Claims carried by an access token. The jti registered claim ties the
// token to its UserSession row so it can be revoked server-side.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// SecretKey returns the JWT signing key from the environment.
func SecretKey() []byte {
	if key := os.Getenv("SECRET_KEY"); key != "" {
		return []byte(key)
	}
	return []byte("dev-secret-change-me")
}

// TokenFromRequest pulls the access token from the Authorization bearer
// header or, failing that, the jwt cookie.
func TokenFromRequest(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Cookies("jwt")
}

// ParseToken validates a token string and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return SecretKey(), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Verify guards a route. With no roles listed any authenticated active
// user passes; otherwise the user's role must match one of them. The
// token's session row must still exist, unrevoked and unexpired, so a
// logout or password change kills tokens before their natural expiry.
func Verify(roles ...Inspection.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := TokenFromRequest(c)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not logged in",
			})
		}

		claims, err := ParseToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		var session Models.UserSession
		if err := Models.DB.Where("token_jti = ?", claims.ID).First(&session).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Session not found",
			})
		}
		if session.Revoked || time.Now().After(session.ExpiresAt) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Session expired or revoked",
			})
		}

		var user Models.User
		if err := Models.DB.Where("id = ?", claims.Subject).First(&user).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "User not found",
			})
		}
		if !user.IsActive {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Account is deactivated",
			})
		}

		// Store user in context for later use in handlers
		c.Locals("user", user)
		c.Locals("session", session)

		if len(roles) == 0 {
			return c.Next()
		}
		for _, role := range roles {
			if user.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Insufficient permissions to access this resource",
		})
	}
}

// CurrentUser returns the authenticated user stored by Verify. The zero
// User (empty ID) means the request never passed Verify.
func CurrentUser(c *fiber.Ctx) Models.User {
	user, _ := c.Locals("user").(Models.User)
	return user
}
