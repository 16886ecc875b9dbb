package Controllers

import (
	"Inspecta/Inspection"
	"Inspecta/Models"
	"Inspecta/Registry"
	"Inspecta/middleware"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateVehicleRequest struct {
	PlateNumber string `json:"plate_number" validate:"required"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Year        int    `json:"year"`
	OwnerID     string `json:"owner_id"`
}

// ensureCurrentAnnual creates the current-year cycle record for a
// vehicle when it does not exist yet.
func ensureCurrentAnnual(vehicleID string) (*Models.AnnualInspection, error) {
	year := time.Now().Year()
	var annual Models.AnnualInspection
	err := Models.DB.Where("vehicle_id = ? AND year = ?", vehicleID, year).
		FirstOrCreate(&annual, Models.AnnualInspection{
			VehicleID: vehicleID,
			Year:      year,
			Status:    Models.AnnualPending,
		}).Error
	if err != nil {
		return nil, err
	}
	return &annual, nil
}

// CreateVehicle registers a vehicle. Clients register for themselves,
// admins for any owner. A plate that was soft-deleted is reactivated
// and reassigned instead of duplicated. The current-year annual
// inspection is created alongside. With lookup=true and a configured
// registry, missing make/model/year are filled from the national
// registry.
func CreateVehicle(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req CreateVehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ownerID := user.ID
	if user.Role == Inspection.RoleAdmin {
		if req.OwnerID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "owner_id is required"})
		}
		var owner Models.User
		if err := Models.DB.Where("id = ? AND role = ?", req.OwnerID, Inspection.RoleClient).First(&owner).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Owner not found or not a client"})
		}
		ownerID = owner.ID
	} else if req.OwnerID != "" && req.OwnerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Clients can only register their own vehicles"})
	}

	plate := strings.ToUpper(strings.TrimSpace(req.PlateNumber))

	var registryJSON []byte
	if c.Query("lookup") == "true" && Registry.Enabled() {
		if info, err := Registry.Lookup(plate); err != nil {
			log.Printf("Registry lookup for %s failed: %v", plate, err)
		} else {
			if req.Make == "" {
				req.Make = info.Make
			}
			if req.Model == "" {
				req.Model = info.Model
			}
			if req.Year == 0 {
				req.Year = info.Year
			}
			registryJSON, _ = json.Marshal(info)
		}
	}

	var existing Models.Vehicle
	if err := Models.DB.Where("plate_number = ?", plate).First(&existing).Error; err == nil {
		if existing.IsActive {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A vehicle with this plate is already registered"})
		}
		// Reactivation path: the plate came back, hand the row over.
		updates := map[string]interface{}{
			"is_active": true,
			"owner_id":  ownerID,
		}
		if req.Make != "" {
			updates["make"] = req.Make
		}
		if req.Model != "" {
			updates["model"] = req.Model
		}
		if req.Year != 0 {
			updates["year"] = req.Year
		}
		if err := Models.DB.Model(&existing).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reactivate vehicle"})
		}
		if _, err := ensureCurrentAnnual(existing.ID); err != nil {
			log.Printf("Failed to create annual inspection for %s: %v", existing.ID, err)
		}
		return c.Status(fiber.StatusOK).JSON(existing)
	}

	vehicle := Models.Vehicle{
		PlateNumber:  plate,
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		OwnerID:      ownerID,
		IsActive:     true,
		RegistryData: datatypes.JSON(registryJSON),
	}
	if err := Models.DB.Create(&vehicle).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to register vehicle"})
	}
	if _, err := ensureCurrentAnnual(vehicle.ID); err != nil {
		log.Printf("Failed to create annual inspection for %s: %v", vehicle.ID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(vehicle)
}

// GetVehicles lists vehicles scoped by role: clients see their own
// active vehicles, admins everything with an include_inactive switch.
func GetVehicles(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	page, pageSize, offset := pagination(c)

	query := Models.DB.Model(&Models.Vehicle{})
	switch user.Role {
	case Inspection.RoleAdmin:
		if c.Query("include_inactive") != "true" {
			query = query.Where("is_active = ?", true)
		}
	default:
		query = query.Where("owner_id = ? AND is_active = ?", user.ID, true)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("plate_number LIKE ? OR make LIKE ? OR model LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	query.Count(&total)

	var vehicles []Models.Vehicle
	if err := query.Order("plate_number").Limit(pageSize).Offset(offset).Find(&vehicles).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve vehicles"})
	}

	return c.JSON(fiber.Map{
		"vehicles":  vehicles,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetVehiclesWithOwners lists every vehicle with its owner preloaded
// for the admin panel.
func GetVehiclesWithOwners(c *fiber.Ctx) error {
	var vehicles []Models.Vehicle
	if err := Models.DB.Preload("Owner").Order("plate_number").Find(&vehicles).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve vehicles"})
	}
	return c.JSON(vehicles)
}

// GetVehicleByPlate looks a vehicle up by its plate number.
func GetVehicleByPlate(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	plate := strings.ToUpper(c.Params("plate"))

	var vehicle Models.Vehicle
	if err := Models.DB.Where("plate_number = ?", plate).First(&vehicle).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vehicle not found"})
	}
	if user.Role != Inspection.RoleAdmin && vehicle.OwnerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your vehicle"})
	}
	return c.JSON(vehicle)
}

// GetVehicle returns one vehicle, owners only unless admin.
func GetVehicle(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var vehicle Models.Vehicle
	if err := Models.DB.Where("id = ?", c.Params("id")).First(&vehicle).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vehicle not found"})
	}
	if user.Role != Inspection.RoleAdmin && vehicle.OwnerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your vehicle"})
	}
	return c.JSON(vehicle)
}

type UpdateVehicleRequest struct {
	Make    *string `json:"make"`
	Model   *string `json:"model"`
	Year    *int    `json:"year"`
	OwnerID *string `json:"owner_id"`
}

// UpdateVehicle edits a vehicle. Clients may edit their own but never
// move it to another owner; admins may do both.
func UpdateVehicle(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var vehicle Models.Vehicle
	if err := Models.DB.Where("id = ?", c.Params("id")).First(&vehicle).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vehicle not found"})
	}
	if user.Role != Inspection.RoleAdmin && vehicle.OwnerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your vehicle"})
	}

	var req UpdateVehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.Make != nil {
		updates["make"] = *req.Make
	}
	if req.Model != nil {
		updates["model"] = *req.Model
	}
	if req.Year != nil {
		updates["year"] = *req.Year
	}
	if req.OwnerID != nil {
		if user.Role != Inspection.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only admins can change the owner"})
		}
		var owner Models.User
		if err := Models.DB.Where("id = ? AND role = ?", *req.OwnerID, Inspection.RoleClient).First(&owner).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Owner not found or not a client"})
		}
		updates["owner_id"] = owner.ID
	}

	if len(updates) > 0 {
		if err := Models.DB.Model(&vehicle).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update vehicle"})
		}
	}
	return c.JSON(vehicle)
}

// DeleteVehicle removes a vehicle. Clients soft-delete so the plate
// history survives; admins hard-delete with a cascade over the whole
// inspection chain.
func DeleteVehicle(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var vehicle Models.Vehicle
	if err := Models.DB.Where("id = ?", c.Params("id")).First(&vehicle).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Vehicle not found"})
	}

	if user.Role != Inspection.RoleAdmin {
		if vehicle.OwnerID != user.ID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your vehicle"})
		}
		if err := Models.DB.Model(&vehicle).Update("is_active", false).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete vehicle"})
		}
		return c.JSON(fiber.Map{"message": "Vehicle deactivated"})
	}

	err := Models.DB.Transaction(func(tx *gorm.DB) error {
		var annuals []Models.AnnualInspection
		if err := tx.Where("vehicle_id = ?", vehicle.ID).Find(&annuals).Error; err != nil {
			return err
		}
		for _, annual := range annuals {
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
		}
		if err := tx.Where("vehicle_id = ?", vehicle.ID).Delete(&Models.AnnualInspection{}).Error; err != nil {
			return err
		}
		return tx.Delete(&vehicle).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete vehicle"})
	}

	return c.JSON(fiber.Map{"message": "Vehicle and its inspection history deleted"})
}

// ImportVehicles loads a legacy spreadsheet of vehicles. Columns:
// plate, make, model, year, owner email. Rows whose owner cannot be
// resolved are reported back, not imported.
func ImportVehicles(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "An .xlsx file is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to open uploaded file"})
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Not a valid .xlsx file"})
	}

	imported := 0
	var skipped []string
	for i, row := range f.GetRows("Sheet1") {
		if i == 0 || len(row) < 5 {
			continue
		}
		plate := strings.ToUpper(strings.TrimSpace(row[0]))
		if plate == "" {
			continue
		}

		var owner Models.User
		if err := Models.DB.Where("email = ? AND role = ?", strings.TrimSpace(row[4]), Inspection.RoleClient).First(&owner).Error; err != nil {
			skipped = append(skipped, plate+": owner not found")
			continue
		}

		var existing Models.Vehicle
		if err := Models.DB.Where("plate_number = ?", plate).First(&existing).Error; err == nil {
			skipped = append(skipped, plate+": already registered")
			continue
		}

		year, _ := strconv.Atoi(strings.TrimSpace(row[3]))
		vehicle := Models.Vehicle{
			PlateNumber: plate,
			Make:        strings.TrimSpace(row[1]),
			Model:       strings.TrimSpace(row[2]),
			Year:        year,
			OwnerID:     owner.ID,
			IsActive:    true,
		}
		if err := Models.DB.Create(&vehicle).Error; err != nil {
			skipped = append(skipped, plate+": "+err.Error())
			continue
		}
		if _, err := ensureCurrentAnnual(vehicle.ID); err != nil {
			log.Printf("Failed to create annual inspection for imported %s: %v", plate, err)
		}
		imported++
	}

	return c.JSON(fiber.Map{
		"imported": imported,
		"skipped":  skipped,
	})
}
