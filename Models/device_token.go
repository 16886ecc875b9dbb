package Models

import (
	"github.com/gofiber/fiber/v2"
)

// DeviceToken is a push notification token registered by a user's
// device. One user can hold several tokens, one per device.
type DeviceToken struct {
	Base
	UserID string `json:"user_id" gorm:"type:char(36);not null;index"`
	Value  string `json:"value" gorm:"size:255;not null;uniqueIndex"`
}

type UpdateTokenRequest struct {
	Value string `json:"value" validate:"required"`
}

// UpdateToken registers or refreshes the caller's device token.
func UpdateToken(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(User)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthenticated",
		})
	}

	var req UpdateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Value == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Token value is required",
		})
	}

	var token DeviceToken
	err := DB.Where("value = ?", req.Value).FirstOrCreate(&token, DeviceToken{
		UserID: user.ID,
		Value:  req.Value,
	}).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to register token",
		})
	}

	// Token moved to another account, reassign it.
	if token.UserID != user.ID {
		token.UserID = user.ID
		if err := DB.Save(&token).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update token",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Token registered successfully",
	})
}

// TokensForUser returns the push token values registered by a user.
func TokensForUser(userID string) ([]string, error) {
	var tokens []DeviceToken
	if err := DB.Where("user_id = ?", userID).Find(&tokens).Error; err != nil {
		return nil, err
	}
	values := make([]string, 0, len(tokens))
	for _, t := range tokens {
		values = append(values, t.Value)
	}
	return values, nil
}
