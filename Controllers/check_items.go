package Controllers

import (
	"Inspecta/Inspection"
	"Inspecta/Models"
	"Inspecta/middleware"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GetCheckItems lists the checklist ordered by ordinal. Non-admins only
// see active items, which is what the scoring form renders.
func GetCheckItems(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	query := Models.DB.Model(&Models.CheckItemTemplate{})
	if user.Role != Inspection.RoleAdmin {
		query = query.Where("is_active = ?", true)
	}

	var templates []Models.CheckItemTemplate
	if err := query.Order("ordinal").Find(&templates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve check items"})
	}
	return c.JSON(templates)
}

// GetCheckItem returns one template.
func GetCheckItem(c *fiber.Ctx) error {
	var template Models.CheckItemTemplate
	if err := Models.DB.Where("id = ?", c.Params("id")).First(&template).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Check item not found"})
	}
	return c.JSON(template)
}

type CheckItemRequest struct {
	Code        string `json:"code" validate:"required,max=20"`
	Description string `json:"description" validate:"required,max=255"`
	Ordinal     int    `json:"ordinal" validate:"required"`
}

// CreateCheckItem adds a template. Codes are uppercased; a code or
// ordinal collision is refused so the checklist stays at one item per
// position.
func CreateCheckItem(c *fiber.Ctx) error {
	var req CheckItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.Ordinal < 1 || req.Ordinal > Inspection.CheckItemCount {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("ordinal must be between 1 and %d", Inspection.CheckItemCount),
		})
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	var existing Models.CheckItemTemplate
	if err := Models.DB.Where("code = ? OR ordinal = ?", code, req.Ordinal).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A check item with this code or ordinal already exists"})
	}

	template := Models.CheckItemTemplate{
		Code:        code,
		Description: req.Description,
		Ordinal:     req.Ordinal,
		IsActive:    true,
	}
	if err := Models.DB.Create(&template).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create check item"})
	}
	return c.Status(fiber.StatusCreated).JSON(template)
}

type UpdateCheckItemRequest struct {
	Code        *string `json:"code"`
	Description *string `json:"description"`
	Ordinal     *int    `json:"ordinal"`
	IsActive    *bool   `json:"is_active"`
}

// UpdateCheckItem edits a template. Historical results keep pointing at
// the row, so edits show up in old reports too; that is intentional
// reference-data behavior.
func UpdateCheckItem(c *fiber.Ctx) error {
	var template Models.CheckItemTemplate
	if err := Models.DB.Where("id = ?", c.Params("id")).First(&template).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Check item not found"})
	}

	var req UpdateCheckItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.Code))
		var other Models.CheckItemTemplate
		if err := Models.DB.Where("code = ? AND id <> ?", code, template.ID).First(&other).Error; err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A check item with this code already exists"})
		}
		updates["code"] = code
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Ordinal != nil {
		if *req.Ordinal < 1 || *req.Ordinal > Inspection.CheckItemCount {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("ordinal must be between 1 and %d", Inspection.CheckItemCount),
			})
		}
		var other Models.CheckItemTemplate
		if err := Models.DB.Where("ordinal = ? AND id <> ?", *req.Ordinal, template.ID).First(&other).Error; err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A check item with this ordinal already exists"})
		}
		updates["ordinal"] = *req.Ordinal
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := Models.DB.Model(&template).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update check item"})
		}
	}
	return c.JSON(template)
}

// DeleteCheckItem removes a template that no historical result
// references. Referenced templates can only be deactivated.
func DeleteCheckItem(c *fiber.Ctx) error {
	var template Models.CheckItemTemplate
	if err := Models.DB.Where("id = ?", c.Params("id")).First(&template).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Check item not found"})
	}

	var usage int64
	Models.DB.Model(&Models.ItemCheck{}).Where("template_id = ?", template.ID).Count(&usage)
	if usage > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": fmt.Sprintf("Check item is referenced by %d recorded checks; deactivate it instead", usage),
		})
	}

	if err := Models.DB.Delete(&template).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete check item"})
	}
	return c.JSON(fiber.Map{"message": "Check item deleted"})
}
