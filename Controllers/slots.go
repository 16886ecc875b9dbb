package Controllers

import (
	"Inspecta/Inspection"
	"Inspecta/Models"
	"Inspecta/middleware"
	"time"

	"github.com/gofiber/fiber/v2"
)

type CreateSlotRequest struct {
	StartTime time.Time `json:"start_time" validate:"required"`
}

// CreateSlot opens one bookable hour on the calendar. The end is always
// start plus one hour; overlapping an existing slot is refused.
func CreateSlot(c *fiber.Ctx) error {
	var req CreateSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	start := req.StartTime.Truncate(time.Minute)
	end := start.Add(time.Hour)

	var overlapping int64
	Models.DB.Model(&Models.AvailabilitySlot{}).
		Where("start_time < ? AND end_time > ?", end, start).
		Count(&overlapping)
	if overlapping > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "The slot overlaps an existing one"})
	}

	slot := Models.AvailabilitySlot{
		StartTime: start,
		EndTime:   end,
	}
	if err := Models.DB.Create(&slot).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create slot"})
	}
	return c.Status(fiber.StatusCreated).JSON(slot)
}

// GetSlots lists the calendar. Non-admins only see future unbooked
// slots; admins see everything with date and booked filters.
func GetSlots(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	query := Models.DB.Model(&Models.AvailabilitySlot{})
	if user.Role != Inspection.RoleAdmin {
		query = query.Where("start_time > ? AND is_booked = ?", time.Now(), false)
	} else {
		if from := c.Query("date_from"); from != "" {
			if t, err := time.Parse("2006-01-02", from); err == nil {
				query = query.Where("start_time >= ?", t)
			}
		}
		if to := c.Query("date_to"); to != "" {
			if t, err := time.Parse("2006-01-02", to); err == nil {
				query = query.Where("start_time < ?", t.AddDate(0, 0, 1))
			}
		}
		if booked := c.Query("is_booked"); booked != "" {
			query = query.Where("is_booked = ?", booked == "true")
		}
	}

	var slots []Models.AvailabilitySlot
	if err := query.Order("start_time").Find(&slots).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve slots"})
	}
	return c.JSON(slots)
}

// GetSlot returns one slot.
func GetSlot(c *fiber.Ctx) error {
	var slot Models.AvailabilitySlot
	if err := Models.DB.Where("id = ?", c.Params("id")).First(&slot).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Slot not found"})
	}
	return c.JSON(slot)
}

// DeleteSlot removes an unbooked slot. A booked one is refused: cancel
// the appointment first, the cancellation frees the slot.
func DeleteSlot(c *fiber.Ctx) error {
	var slot Models.AvailabilitySlot
	if err := Models.DB.Where("id = ?", c.Params("id")).First(&slot).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Slot not found"})
	}
	if slot.IsBooked {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "The slot is booked and cannot be deleted"})
	}
	if err := Models.DB.Delete(&slot).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete slot"})
	}
	return c.JSON(fiber.Map{"message": "Slot deleted"})
}
