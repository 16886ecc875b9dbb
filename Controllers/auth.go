package Controllers

import (
	"Inspecta/Inspection"
	"Inspecta/Models"
	"Inspecta/email"
	"Inspecta/middleware"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// validate is the shared request validator for every controller.
var validate = validator.New()

// tokenLifetime reads ACCESS_TOKEN_EXPIRE_MINUTES, 30 minutes when
// unset.
func tokenLifetime() time.Duration {
	if v, err := strconv.Atoi(os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES")); err == nil && v > 0 {
		return time.Duration(v) * time.Minute
	}
	return 30 * time.Minute
}

// issueToken signs an access token for the user and records its session
// row. Returns the signed token and its expiry.
func issueToken(user Models.User) (string, time.Time, error) {
	jti := uuid.NewString()
	expiresAt := time.Now().Add(tokenLifetime())

	claims := middleware.Claims{
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(middleware.SecretKey())
	if err != nil {
		return "", time.Time{}, err
	}

	session := Models.UserSession{
		UserID:    user.ID,
		TokenJTI:  jti,
		ExpiresAt: expiresAt,
	}
	if err := Models.DB.Create(&session).Error; err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone"`
}

// Register creates a client account. Inspector and admin accounts are
// only created by an admin through the users API.
func Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var existing Models.User
	if err := Models.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "An account with this email already exists"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create account"})
	}

	user := Models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Phone:        req.Phone,
		Role:         Inspection.RoleClient,
		IsActive:     true,
	}
	if err := Models.DB.Create(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create account"})
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and issues an access token. The token is
// returned in the body for API clients and set as a cookie for the web
// portal.
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var user Models.User
	if err := Models.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account is deactivated"})
	}

	token, expiresAt, err := issueToken(user)
	if err != nil {
		log.Printf("Failed to issue token for %s: %v", user.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to log in"})
	}

	now := time.Now()
	Models.DB.Model(&user).Update("last_login_at", &now)

	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    token,
		Expires:  expiresAt,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
		"expires_at":   expiresAt,
		"user":         user,
	})
}

// Logout revokes the caller's session and clears the cookie.
func Logout(c *fiber.Ctx) error {
	if session, ok := c.Locals("session").(Models.UserSession); ok {
		Models.DB.Model(&Models.UserSession{}).Where("id = ?", session.ID).Update("revoked", true)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// ValidateToken reports whether the presented token is still usable and
// who it belongs to. Used by the portal on page load.
func ValidateToken(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return c.JSON(fiber.Map{
		"valid": true,
		"user":  user,
	})
}

// Permissions serves the caller's allowed actions from the declarative
// policy table. A UX convenience for button visibility; the route
// guards stay authoritative.
func Permissions(c *fiber.Ctx) error {
	role := Inspection.RoleNone
	if tokenString := middleware.TokenFromRequest(c); tokenString != "" {
		if claims, err := middleware.ParseToken(tokenString); err == nil {
			role = Inspection.Role(claims.Role)
		}
	}
	return c.JSON(fiber.Map{
		"role":    role,
		"actions": Inspection.ActionsFor(role),
	})
}

// resetClaims scope a token to the password-reset flow so an access
// token can never reset a password and vice versa.
type resetClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

const resetPurpose = "password_reset"

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword answers identically whether or not the account exists,
// and mails a one-hour reset token when it does.
func ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var user Models.User
	if err := Models.DB.Where("email = ? AND is_active = ?", req.Email, true).First(&user).Error; err == nil {
		claims := resetClaims{
			Purpose: resetPurpose,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   user.ID,
				ID:        uuid.NewString(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(middleware.SecretKey())
		if err != nil {
			log.Printf("Failed to sign reset token for %s: %v", user.Email, err)
		} else {
			go email.SendPasswordReset(user.Email, token)
		}
	}

	return c.JSON(fiber.Map{"message": "If the account exists, a reset link has been sent"})
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ResetPassword consumes a reset token, sets the new password and
// revokes every open session of the account.
func ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	token, err := jwt.ParseWithClaims(req.Token, &resetClaims{}, func(t *jwt.Token) (interface{}, error) {
		return middleware.SecretKey(), nil
	})
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired reset token"})
	}
	claims, ok := token.Claims.(*resetClaims)
	if !ok || claims.Purpose != resetPurpose {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired reset token"})
	}

	var user Models.User
	if err := Models.DB.Where("id = ?", claims.Subject).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired reset token"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reset password"})
	}
	if err := Models.DB.Model(&user).Update("password_hash", string(hash)).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reset password"})
	}
	if err := Models.RevokeUserSessions(user.ID); err != nil {
		log.Printf("Failed to revoke sessions for %s: %v", user.ID, err)
	}

	return c.JSON(fiber.Map{"message": "Password has been reset"})
}
