package Controllers

import (
	"Inspecta/Inspection"
	"Inspecta/Models"
	"Inspecta/middleware"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateAnnualRequest struct {
	VehicleID string `json:"vehicle_id" validate:"required"`
	Year      int    `json:"year" validate:"required,min=2000,max=2100"`
}

// CreateAnnualInspection opens a yearly cycle for a vehicle. One per
// vehicle per year.
func CreateAnnualInspection(c *fiber.Ctx) error {
	var req CreateAnnualRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var vehicle Models.Vehicle
	if err := Models.DB.Where("id = ?", req.VehicleID).First(&vehicle).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vehicle not found"})
	}

	var existing Models.AnnualInspection
	if err := Models.DB.Where("vehicle_id = ? AND year = ?", req.VehicleID, req.Year).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "An annual inspection for this vehicle and year already exists"})
	}

	annual := Models.AnnualInspection{
		VehicleID: req.VehicleID,
		Year:      req.Year,
		Status:    Models.AnnualPending,
	}
	if err := Models.DB.Create(&annual).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create annual inspection"})
	}
	return c.Status(fiber.StatusCreated).JSON(annual)
}

// GetAnnualInspections lists cycles scoped by role: clients see their
// own vehicles, inspectors the cycles behind their assigned
// appointments, admins everything.
func GetAnnualInspections(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	page, pageSize, offset := pagination(c)

	query := Models.DB.Model(&Models.AnnualInspection{}).Preload("Vehicle")
	switch user.Role {
	case Inspection.RoleAdmin:
	case Inspection.RoleInspector:
		var inspector Models.Inspector
		if err := Models.DB.Where("user_id = ?", user.ID).First(&inspector).Error; err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No inspector record for this account"})
		}
		query = query.Where("id IN (?)",
			Models.DB.Model(&Models.Appointment{}).Select("annual_inspection_id").Where("inspector_id = ?", inspector.ID))
	default:
		query = query.Where("vehicle_id IN (?)",
			Models.DB.Model(&Models.Vehicle{}).Select("id").Where("owner_id = ?", user.ID))
	}

	if yearStr := c.Query("year"); yearStr != "" {
		if year, err := strconv.Atoi(yearStr); err == nil {
			query = query.Where("year = ?", year)
		}
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var annuals []Models.AnnualInspection
	if err := query.Order("year DESC, created_at DESC").Limit(pageSize).Offset(offset).Find(&annuals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve annual inspections"})
	}

	return c.JSON(fiber.Map{
		"annual_inspections": annuals,
		"total":              total,
		"page":               page,
		"page_size":          pageSize,
	})
}

// GetAnnualInspection returns one cycle with its appointments and
// results.
func GetAnnualInspection(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var annual Models.AnnualInspection
	if err := Models.DB.Preload("Vehicle").Where("id = ?", c.Params("id")).First(&annual).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Annual inspection not found"})
	}
	if user.Role == Inspection.RoleClient && annual.Vehicle.OwnerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your vehicle"})
	}

	var appointments []Models.Appointment
	Models.DB.Preload("Inspector").Where("annual_inspection_id = ?", annual.ID).
		Order("date_time DESC").Find(&appointments)

	var results []Models.InspectionResult
	Models.DB.Preload("ItemChecks").Preload("ItemChecks.Template").
		Where("appointment_id IN (?)",
			Models.DB.Model(&Models.Appointment{}).Select("id").Where("annual_inspection_id = ?", annual.ID)).
		Order("created_at DESC").Find(&results)

	return c.JSON(fiber.Map{
		"annual_inspection": annual,
		"appointments":      appointments,
		"results":           results,
	})
}

type UpdateAnnualRequest struct {
	Status       *string `json:"status"`
	AttemptCount *int    `json:"attempt_count"`
}

// UpdateAnnualInspection lets an admin correct the cycle status or
// attempt count after manual review.
func UpdateAnnualInspection(c *fiber.Ctx) error {
	var annual Models.AnnualInspection
	if err := Models.DB.Where("id = ?", c.Params("id")).First(&annual).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Annual inspection not found"})
	}

	var req UpdateAnnualRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.Status != nil {
		status := Models.AnnualStatus(*req.Status)
		switch status {
		case Models.AnnualPending, Models.AnnualInProgress, Models.AnnualPassed, Models.AnnualFailed:
			updates["status"] = status
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
		}
	}
	if req.AttemptCount != nil {
		if *req.AttemptCount < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "attempt_count cannot be negative"})
		}
		updates["attempt_count"] = *req.AttemptCount
	}

	if len(updates) > 0 {
		if err := Models.DB.Model(&annual).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update annual inspection"})
		}
	}
	return c.JSON(annual)
}

// DeleteAnnualInspection removes a cycle and everything under it.
func DeleteAnnualInspection(c *fiber.Ctx) error {
	var annual Models.AnnualInspection
	if err := Models.DB.Where("id = ?", c.Params("id")).First(&annual).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Annual inspection not found"})
	}

	err := Models.DB.Transaction(func(tx *gorm.DB) error {
		var appointments []Models.Appointment
		if err := tx.Where("annual_inspection_id = ?", annual.ID).Find(&appointments).Error; err != nil {
			return err
		}
		for _, appointment := range appointments {
			var results []Models.InspectionResult
			if err := tx.Where("appointment_id = ?", appointment.ID).Find(&results).Error; err != nil {
				return err
			}
			for _, result := range results {
				if err := tx.Where("result_id = ?", result.ID).Delete(&Models.ItemCheck{}).Error; err != nil {
					return err
				}
				if err := tx.Where("result_id = ?", result.ID).Delete(&Models.ResultPhoto{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("appointment_id = ?", appointment.ID).Delete(&Models.InspectionResult{}).Error; err != nil {
				return err
			}
			if appointment.SlotID != nil {
				tx.Model(&Models.AvailabilitySlot{}).Where("id = ?", *appointment.SlotID).Update("is_booked", false)
			}
		}
		if err := tx.Where("annual_inspection_id = ?", annual.ID).Delete(&Models.Appointment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&annual).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete annual inspection"})
	}

	return c.JSON(fiber.Map{"message": "Annual inspection deleted"})
}
