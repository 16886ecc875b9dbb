package Controllers

import (
	"Inspecta/Inspection"
	"Inspecta/Models"
	"Inspecta/middleware"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// uploadDir is where result photos land, overridable for deployments
// with mounted storage.
func uploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "uploads"
}

// resultScope narrows a result query to what the caller may see.
func resultScope(user Models.User) (*gorm.DB, error) {
	query := Models.DB.Model(&Models.InspectionResult{})
	switch user.Role {
	case Inspection.RoleAdmin:
		return query, nil
	case Inspection.RoleInspector:
		var inspector Models.Inspector
		if err := Models.DB.Where("user_id = ?", user.ID).First(&inspector).Error; err != nil {
			return nil, fmt.Errorf("no inspector record")
		}
		return query.Where("appointment_id IN (?)",
			Models.DB.Model(&Models.Appointment{}).Select("id").Where("inspector_id = ?", inspector.ID)), nil
	default:
		return query.Where("appointment_id IN (?)",
			Models.DB.Model(&Models.Appointment{}).Select("id").Where("vehicle_id IN (?)",
				Models.DB.Model(&Models.Vehicle{}).Select("id").Where("owner_id = ?", user.ID))), nil
	}
}

// GetResults lists inspection results scoped by role.
func GetResults(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	page, pageSize, offset := pagination(c)

	query, err := resultScope(user)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No inspector record for this account"})
	}
	if passed := c.Query("passed"); passed != "" {
		query = query.Where("passed = ?", passed == "true")
	}

	var total int64
	query.Count(&total)

	var results []Models.InspectionResult
	if err := query.Preload("Appointment").Preload("Appointment.Vehicle").
		Order("created_at DESC").Limit(pageSize).Offset(offset).Find(&results).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve results"})
	}

	return c.JSON(fiber.Map{
		"results":   results,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// loadVisibleResult fetches a result and checks the caller may see it.
func loadVisibleResult(c *fiber.Ctx, id string) (*Models.InspectionResult, error) {
	user := middleware.CurrentUser(c)

	var result Models.InspectionResult
	err := Models.DB.Preload("ItemChecks", func(db *gorm.DB) *gorm.DB { return db.Order("item_checks.created_at") }).
		Preload("ItemChecks.Template").
		Preload("Appointment").Preload("Appointment.Vehicle").
		Preload("Appointment.Inspector").Preload("Appointment.Inspector.User").
		Where("id = ?", id).First(&result).Error
	if err != nil {
		return nil, fmt.Errorf("not found")
	}

	switch user.Role {
	case Inspection.RoleAdmin:
	case Inspection.RoleInspector:
		var inspector Models.Inspector
		if err := Models.DB.Where("user_id = ?", user.ID).First(&inspector).Error; err != nil {
			return nil, fmt.Errorf("forbidden")
		}
		if result.Appointment.InspectorID == nil || *result.Appointment.InspectorID != inspector.ID {
			return nil, fmt.Errorf("forbidden")
		}
	default:
		if result.Appointment.Vehicle.OwnerID != user.ID {
			return nil, fmt.Errorf("forbidden")
		}
	}
	return &result, nil
}

// GetResult returns one result with its item checks ordered by the
// template ordinal.
func GetResult(c *fiber.Ctx) error {
	result, err := loadVisibleResult(c, c.Params("id"))
	if err != nil {
		if err.Error() == "forbidden" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your result"})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Result not found"})
	}

	// Order checks by ordinal for the report view.
	sortItemChecks(result)

	return c.JSON(result)
}

// sortItemChecks orders a result's checks by template ordinal in place.
func sortItemChecks(result *Models.InspectionResult) {
	checks := result.ItemChecks
	for i := 1; i < len(checks); i++ {
		for j := i; j > 0 && checks[j-1].Template.Ordinal > checks[j].Template.Ordinal; j-- {
			checks[j-1], checks[j] = checks[j], checks[j-1]
		}
	}
	result.ItemChecks = checks
}

// GetResultsByAnnualInspection lists every attempt of one yearly cycle.
func GetResultsByAnnualInspection(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var annual Models.AnnualInspection
	if err := Models.DB.Preload("Vehicle").Where("id = ?", c.Params("id")).First(&annual).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Annual inspection not found"})
	}
	if user.Role == Inspection.RoleClient && annual.Vehicle.OwnerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your vehicle"})
	}

	var results []Models.InspectionResult
	if err := Models.DB.Preload("ItemChecks").Preload("ItemChecks.Template").
		Where("appointment_id IN (?)",
			Models.DB.Model(&Models.Appointment{}).Select("id").Where("annual_inspection_id = ?", annual.ID)).
		Order("created_at DESC").Find(&results).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve results"})
	}

	return c.JSON(results)
}

// UploadResultPhoto stores a defect photo for a result and writes a
// resized thumbnail next to it. Assigned inspector only.
func UploadResultPhoto(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var inspector Models.Inspector
	if err := Models.DB.Where("user_id = ?", user.ID).First(&inspector).Error; err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No inspector record for this account"})
	}

	var result Models.InspectionResult
	if err := Models.DB.Preload("Appointment").Where("id = ?", c.Params("id")).First(&result).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Result not found"})
	}
	if result.Appointment.InspectorID == nil || *result.Appointment.InspectorID != inspector.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You did not record this result"})
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A photo file is required"})
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only .jpg and .png photos are accepted"})
	}

	dir := filepath.Join(uploadDir(), "results", result.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store photo"})
	}

	name := uuid.NewString() + ext
	fullPath := filepath.Join(dir, name)
	if err := c.SaveFile(fileHeader, fullPath); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store photo"})
	}

	img, err := imaging.Open(fullPath)
	if err != nil {
		os.Remove(fullPath)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "The file is not a readable image"})
	}
	thumb := imaging.Resize(img, 320, 0, imaging.Lanczos)
	thumbPath := filepath.Join(dir, "thumb_"+name)
	if err := imaging.Save(thumb, thumbPath); err != nil {
		log.Printf("Failed to write thumbnail for %s: %v", fullPath, err)
		thumbPath = fullPath
	}

	photo := Models.ResultPhoto{
		ResultID:  result.ID,
		FileName:  fileHeader.Filename,
		FilePath:  fullPath,
		ThumbPath: thumbPath,
	}
	if err := Models.DB.Create(&photo).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store photo"})
	}

	return c.Status(fiber.StatusCreated).JSON(photo)
}

// GetResultPhotos lists the photos attached to a result.
func GetResultPhotos(c *fiber.Ctx) error {
	if _, err := loadVisibleResult(c, c.Params("id")); err != nil {
		if err.Error() == "forbidden" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your result"})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Result not found"})
	}

	var photos []Models.ResultPhoto
	if err := Models.DB.Where("result_id = ?", c.Params("id")).Order("created_at").Find(&photos).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve photos"})
	}
	return c.JSON(photos)
}
