package Controllers

import (
	"Inspecta/Inspection"
	"Inspecta/Models"
	"Inspecta/Notifications"
	"Inspecta/Slack"
	"Inspecta/email"
	"Inspecta/middleware"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// newConfirmationToken builds the short code clients present at the
// station.
func newConfirmationToken() string {
	return "CONF-" + strings.ToUpper(uuid.NewString()[:8])
}

type CreateAppointmentRequest struct {
	VehicleID string     `json:"vehicle_id" validate:"required"`
	SlotID    string     `json:"slot_id"`
	DateTime  *time.Time `json:"date_time"`
}

// CreateAppointment books an inspection visit. Clients book their own
// vehicles, admins any vehicle. The current-year annual inspection is
// resolved or created; a cycle already PASSED refuses another booking.
// Either a slot is taken (and marked booked) or an explicit future time
// is given. Appointments are confirmed immediately.
func CreateAppointment(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req CreateAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.SlotID == "" && req.DateTime == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Either slot_id or date_time is required"})
	}

	var vehicle Models.Vehicle
	if err := Models.DB.Where("id = ? AND is_active = ?", req.VehicleID, true).First(&vehicle).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vehicle not found"})
	}
	if user.Role != Inspection.RoleAdmin && vehicle.OwnerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your vehicle"})
	}

	annual, err := ensureCurrentAnnual(vehicle.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve annual inspection"})
	}
	if annual.Status == Models.AnnualPassed {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "This vehicle already passed its inspection this year"})
	}

	channel := Models.ChannelClientPortal
	if user.Role == Inspection.RoleAdmin {
		channel = Models.ChannelAdminPanel
	}

	appointment := Models.Appointment{
		AnnualInspectionID: annual.ID,
		VehicleID:          vehicle.ID,
		CreatedByUserID:    user.ID,
		CreatedChannel:     channel,
		Status:             Models.AppointmentConfirmed,
		ConfirmationToken:  newConfirmationToken(),
	}

	err = Models.DB.Transaction(func(tx *gorm.DB) error {
		if req.SlotID != "" {
			var slot Models.AvailabilitySlot
			if err := tx.Where("id = ?", req.SlotID).First(&slot).Error; err != nil {
				return fmt.Errorf("slot not found")
			}
			if slot.IsBooked {
				return fmt.Errorf("slot is already booked")
			}
			if err := tx.Model(&slot).Update("is_booked", true).Error; err != nil {
				return err
			}
			appointment.SlotID = &slot.ID
			appointment.DateTime = slot.StartTime
		} else {
			if !req.DateTime.After(time.Now()) {
				return fmt.Errorf("date_time must be in the future")
			}
			appointment.DateTime = *req.DateTime
		}

		if err := tx.Create(&appointment).Error; err != nil {
			return err
		}
		if annual.Status == Models.AnnualPending {
			if err := tx.Model(&Models.AnnualInspection{}).Where("id = ?", annual.ID).
				Update("status", Models.AnnualInProgress).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		switch err.Error() {
		case "slot not found":
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case "slot is already booked", "date_time must be in the future":
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create appointment"})
	}

	var owner Models.User
	if err := Models.DB.Where("id = ?", vehicle.OwnerID).First(&owner).Error; err == nil {
		go email.SendAppointmentConfirmation(owner.Email, vehicle.PlateNumber, appointment.DateTime, appointment.ConfirmationToken)
		go Notifications.SendToUser(owner.ID, "Appointment confirmed",
			fmt.Sprintf("Inspection of %s booked for %s", vehicle.PlateNumber, appointment.DateTime.Format("02 Jan 15:04")))
	}

	return c.Status(fiber.StatusCreated).JSON(appointment)
}

// GetAppointments lists appointments scoped by role with status and
// date filters.
func GetAppointments(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	page, pageSize, offset := pagination(c)

	query := Models.DB.Model(&Models.Appointment{}).
		Preload("Vehicle").Preload("Inspector").Preload("Inspector.User")
	switch user.Role {
	case Inspection.RoleAdmin:
	case Inspection.RoleInspector:
		var inspector Models.Inspector
		if err := Models.DB.Where("user_id = ?", user.ID).First(&inspector).Error; err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No inspector record for this account"})
		}
		query = query.Where("inspector_id = ?", inspector.ID)
	default:
		query = query.Where("vehicle_id IN (?)",
			Models.DB.Model(&Models.Vehicle{}).Select("id").Where("owner_id = ?", user.ID))
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", strings.ToUpper(status))
	}
	if from := c.Query("date_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			query = query.Where("date_time >= ?", t)
		}
	}
	if to := c.Query("date_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			query = query.Where("date_time < ?", t.AddDate(0, 0, 1))
		}
	}

	var total int64
	query.Count(&total)

	var appointments []Models.Appointment
	if err := query.Order("date_time").Limit(pageSize).Offset(offset).Find(&appointments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve appointments"})
	}

	return c.JSON(fiber.Map{
		"appointments": appointments,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
	})
}

// canSeeAppointment checks whether the caller may read an appointment.
func canSeeAppointment(user Models.User, appointment Models.Appointment) bool {
	switch user.Role {
	case Inspection.RoleAdmin:
		return true
	case Inspection.RoleInspector:
		var inspector Models.Inspector
		if err := Models.DB.Where("user_id = ?", user.ID).First(&inspector).Error; err != nil {
			return false
		}
		return appointment.InspectorID != nil && *appointment.InspectorID == inspector.ID
	default:
		return appointment.Vehicle.OwnerID == user.ID
	}
}

// GetAppointment returns one appointment with its result when present.
func GetAppointment(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var appointment Models.Appointment
	if err := Models.DB.Preload("Vehicle").Preload("Inspector").Preload("AnnualInspection").
		Where("id = ?", c.Params("id")).First(&appointment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
	}
	if !canSeeAppointment(user, appointment) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your appointment"})
	}

	response := fiber.Map{"appointment": appointment}
	var result Models.InspectionResult
	if err := Models.DB.Preload("ItemChecks").Preload("ItemChecks.Template").
		Where("appointment_id = ?", appointment.ID).First(&result).Error; err == nil {
		response["result"] = result
	}
	return c.JSON(response)
}

type UpdateAppointmentRequest struct {
	DateTime    *time.Time `json:"date_time"`
	SlotID      *string    `json:"slot_id"`
	InspectorID *string    `json:"inspector_id"`
	Status      *string    `json:"status"`
}

// UpdateAppointment rebooks or reassigns an appointment. Clients may
// only move the time of their own open appointments; admins can also
// assign the inspector and force a status.
func UpdateAppointment(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var appointment Models.Appointment
	if err := Models.DB.Preload("Vehicle").Where("id = ?", c.Params("id")).First(&appointment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
	}

	var req UpdateAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if user.Role != Inspection.RoleAdmin {
		if appointment.Vehicle.OwnerID != user.ID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your appointment"})
		}
		if req.InspectorID != nil || req.Status != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only admins can assign inspectors or change status"})
		}
		if appointment.Status == Models.AppointmentCompleted || appointment.Status == Models.AppointmentCancelled {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "This appointment can no longer be changed"})
		}
	}

	err := Models.DB.Transaction(func(tx *gorm.DB) error {
		if req.SlotID != nil || req.DateTime != nil {
			// Free the old slot before taking a new time.
			if appointment.SlotID != nil {
				if err := tx.Model(&Models.AvailabilitySlot{}).Where("id = ?", *appointment.SlotID).
					Update("is_booked", false).Error; err != nil {
					return err
				}
				appointment.SlotID = nil
			}
			if req.SlotID != nil {
				var slot Models.AvailabilitySlot
				if err := tx.Where("id = ?", *req.SlotID).First(&slot).Error; err != nil {
					return fmt.Errorf("slot not found")
				}
				if slot.IsBooked {
					return fmt.Errorf("slot is already booked")
				}
				if err := tx.Model(&slot).Update("is_booked", true).Error; err != nil {
					return err
				}
				appointment.SlotID = &slot.ID
				appointment.DateTime = slot.StartTime
			} else {
				if !req.DateTime.After(time.Now()) {
					return fmt.Errorf("date_time must be in the future")
				}
				appointment.DateTime = *req.DateTime
			}
		}

		if req.InspectorID != nil {
			if *req.InspectorID == "" {
				appointment.InspectorID = nil
			} else {
				var inspector Models.Inspector
				if err := tx.Where("id = ?", *req.InspectorID).First(&inspector).Error; err != nil {
					return fmt.Errorf("inspector not found")
				}
				appointment.InspectorID = &inspector.ID
			}
		}
		if req.Status != nil {
			status := Models.AppointmentStatus(strings.ToUpper(*req.Status))
			switch status {
			case Models.AppointmentPending, Models.AppointmentConfirmed, Models.AppointmentCancelled:
				appointment.Status = status
			default:
				return fmt.Errorf("invalid status")
			}
		}

		return tx.Save(&appointment).Error
	})
	if err != nil {
		switch err.Error() {
		case "slot not found", "inspector not found":
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case "slot is already booked", "date_time must be in the future", "invalid status":
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update appointment"})
	}

	return c.JSON(appointment)
}

// CancelAppointment cancels a booking and frees its slot. Completed
// appointments stay on the books; cancelling twice is an error.
func CancelAppointment(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var appointment Models.Appointment
	if err := Models.DB.Preload("Vehicle").Where("id = ?", c.Params("id")).First(&appointment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
	}
	if user.Role != Inspection.RoleAdmin && appointment.Vehicle.OwnerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your appointment"})
	}
	if appointment.Status == Models.AppointmentCompleted {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Completed appointments cannot be cancelled"})
	}
	if appointment.Status == Models.AppointmentCancelled {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Appointment is already cancelled"})
	}

	err := Models.DB.Transaction(func(tx *gorm.DB) error {
		if appointment.SlotID != nil {
			if err := tx.Model(&Models.AvailabilitySlot{}).Where("id = ?", *appointment.SlotID).
				Update("is_booked", false).Error; err != nil {
				return err
			}
		}
		return tx.Model(&appointment).Update("status", Models.AppointmentCancelled).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel appointment"})
	}

	return c.JSON(fiber.Map{"message": "Appointment cancelled"})
}

type CompleteAppointmentRequest struct {
	TotalScore       int    `json:"total_score"`
	ItemScores       []int  `json:"item_scores" validate:"required"`
	OwnerObservation string `json:"owner_observation"`
}

// CompleteAppointment records the inspection result. Only the assigned
// inspector may complete, only confirmed appointments are eligible, and
// the checklist must have exactly its eight active templates. The
// submitted total must agree with the item scores; the stored verdict
// is recomputed with the full acceptance rule, so one failing item
// rejects the vehicle no matter the total.
func CompleteAppointment(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var inspector Models.Inspector
	if err := Models.DB.Where("user_id = ?", user.ID).First(&inspector).Error; err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No inspector record for this account"})
	}

	var appointment Models.Appointment
	if err := Models.DB.Preload("Vehicle").Where("id = ?", c.Params("id")).First(&appointment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
	}
	if appointment.InspectorID == nil || *appointment.InspectorID != inspector.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not assigned to this appointment"})
	}
	if appointment.Status != Models.AppointmentConfirmed {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Only confirmed appointments can be completed"})
	}

	var existing Models.InspectionResult
	if err := Models.DB.Where("appointment_id = ?", appointment.ID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "This appointment already has a result"})
	}

	var req CompleteAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if len(req.ItemScores) != Inspection.CheckItemCount {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Exactly %d item scores are required", Inspection.CheckItemCount),
		})
	}
	for i, score := range req.ItemScores {
		if score < 0 || score > Inspection.MaxItemScore {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Item %d score must be between 0 and %d", i+1, Inspection.MaxItemScore),
			})
		}
	}

	var templates []Models.CheckItemTemplate
	if err := Models.DB.Where("is_active = ?", true).Order("ordinal").Find(&templates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load check items"})
	}
	if len(templates) != Inspection.CheckItemCount {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": fmt.Sprintf("The checklist must have exactly %d active items, found %d", Inspection.CheckItemCount, len(templates)),
		})
	}

	sheet := Inspection.NewScoreSheet()
	for i, score := range req.ItemScores {
		sheet.SetScore(i+1, score)
	}
	verdict := sheet.Verdict()
	if req.TotalScore != verdict.TotalScore {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("total_score %d does not match the item scores (expected %d)", req.TotalScore, verdict.TotalScore),
		})
	}

	observation := strings.TrimSpace(req.OwnerObservation)
	if len(observation) > 500 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "owner_observation must be at most 500 characters"})
	}

	result := Models.InspectionResult{
		AppointmentID:    appointment.ID,
		TotalScore:       verdict.TotalScore,
		Passed:           verdict.Passed,
		OwnerObservation: observation,
	}

	err := Models.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&result).Error; err != nil {
			return err
		}
		for i, template := range templates {
			score := sheet.Score(i + 1)
			itemObservation := "Sin observaciones"
			if score < Inspection.MinPassingItemScore {
				itemObservation = "Requiere reparación"
			}
			check := Models.ItemCheck{
				ResultID:    result.ID,
				TemplateID:  template.ID,
				Score:       score,
				Observation: itemObservation,
			}
			if err := tx.Create(&check).Error; err != nil {
				return err
			}
		}

		annualStatus := Models.AnnualFailed
		if verdict.Passed {
			annualStatus = Models.AnnualPassed
		}
		if err := tx.Model(&Models.AnnualInspection{}).Where("id = ?", appointment.AnnualInspectionID).
			Updates(map[string]interface{}{
				"status":            annualStatus,
				"attempt_count":     gorm.Expr("attempt_count + 1"),
				"current_result_id": result.ID,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&appointment).Update("status", Models.AppointmentCompleted).Error
	})
	if err != nil {
		log.Printf("Failed to record result for appointment %s: %v", appointment.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record inspection result"})
	}

	var owner Models.User
	if err := Models.DB.Where("id = ?", appointment.Vehicle.OwnerID).First(&owner).Error; err == nil {
		go email.SendInspectionCompleted(owner.Email, appointment.Vehicle.PlateNumber, verdict.Passed, verdict.TotalScore, verdict.Reason)
		outcome := "passed"
		if !verdict.Passed {
			outcome = "failed"
		}
		go Notifications.SendToUser(owner.ID, "Inspection "+outcome,
			fmt.Sprintf("%s scored %d of %d", appointment.Vehicle.PlateNumber, verdict.TotalScore, Inspection.MaxTotalScore))
	}
	if !verdict.Passed {
		go Slack.NotifyFailedInspection(appointment.Vehicle.PlateNumber, verdict.TotalScore, verdict.Reason)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Inspection recorded",
		"result": fiber.Map{
			"id":               result.ID,
			"total_score":      verdict.TotalScore,
			"passed":           verdict.Passed,
			"has_failing_item": verdict.HasFailingItem,
			"reason":           verdict.Reason,
		},
	})
}
