package Controllers

import (
	"Inspecta/Inspection"
	"Inspecta/Models"
	"Inspecta/middleware"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// pagination reads page/page_size query parameters with sane bounds.
func pagination(c *fiber.Ctx) (page, pageSize, offset int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.Query("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize, (page - 1) * pageSize
}

// Me returns the caller's own account.
func Me(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}

type UpdateMeRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// UpdateMe lets a user edit their own profile fields. Role and active
// status are admin-only and cannot be reached from here.
func UpdateMe(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req UpdateMeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.FullName != "" {
		updates["full_name"] = req.FullName
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if len(updates) > 0 {
		if err := Models.DB.Model(&user).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
		}
	}

	return c.JSON(user)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword verifies the current password, sets the new one and
// revokes every session so old tokens die immediately.
func ChangePassword(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Current password is incorrect"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to change password"})
	}
	if err := Models.DB.Model(&user).Update("password_hash", string(hash)).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to change password"})
	}
	if err := Models.RevokeUserSessions(user.ID); err != nil {
		log.Printf("Failed to revoke sessions for %s: %v", user.ID, err)
	}

	return c.JSON(fiber.Map{"message": "Password changed, please log in again"})
}

// FetchUsers lists accounts for the admin panel with role and search
// filters.
func FetchUsers(c *fiber.Ctx) error {
	page, pageSize, offset := pagination(c)

	query := Models.DB.Model(&Models.User{})
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", strings.ToUpper(role))
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("email LIKE ? OR full_name LIKE ?", pattern, pattern)
	}

	var total int64
	query.Count(&total)

	var users []Models.User
	if err := query.Order("created_at DESC").Limit(pageSize).Offset(offset).Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve users"})
	}

	return c.JSON(fiber.Map{
		"users":     users,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

type RegisterUserRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone"`
	Role       string `json:"role" validate:"required,oneof=CLIENT INSPECTOR ADMIN"`
	EmployeeID string `json:"employee_id"`
}

// RegisterUser creates an account of any role. Creating an inspector
// also creates the employee record appointments are assigned against.
func RegisterUser(c *fiber.Ctx) error {
	var req RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	role := Inspection.Role(req.Role)
	if role == Inspection.RoleInspector && strings.TrimSpace(req.EmployeeID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "employee_id is required for inspector accounts"})
	}

	var existing Models.User
	if err := Models.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "An account with this email already exists"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
	}

	user := Models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Phone:        req.Phone,
		Role:         role,
		IsActive:     true,
	}

	err = Models.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if role == Inspection.RoleInspector {
			inspector := Models.Inspector{
				UserID:     user.ID,
				EmployeeID: strings.ToUpper(strings.TrimSpace(req.EmployeeID)),
			}
			if err := tx.Create(&inspector).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "Duplicate entry") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Employee ID already in use"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// GetUser returns one account by id, with its inspector record when it
// has one.
func GetUser(c *fiber.Ctx) error {
	var user Models.User
	if err := Models.DB.Where("id = ?", c.Params("id")).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	response := fiber.Map{"user": user}
	if user.Role == Inspection.RoleInspector {
		var inspector Models.Inspector
		if err := Models.DB.Where("user_id = ?", user.ID).First(&inspector).Error; err == nil {
			response["inspector"] = inspector
		}
	}
	return c.JSON(response)
}

type UpdateUserRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

// UpdateUser edits any account. Deactivating one revokes its sessions
// on the spot.
func UpdateUser(c *fiber.Ctx) error {
	var user Models.User
	if err := Models.DB.Where("id = ?", c.Params("id")).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Role != nil {
		role := Inspection.Role(strings.ToUpper(*req.Role))
		if role != Inspection.RoleClient && role != Inspection.RoleInspector && role != Inspection.RoleAdmin {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role"})
		}
		updates["role"] = role
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := Models.DB.Model(&user).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
		}
	}

	if req.IsActive != nil && !*req.IsActive {
		if err := Models.RevokeUserSessions(user.ID); err != nil {
			log.Printf("Failed to revoke sessions for %s: %v", user.ID, err)
		}
	}

	return c.JSON(user)
}

// DeleteUser removes an account. Admins cannot delete themselves, and
// an inspector with assigned appointments is refused so history keeps
// its references.
func DeleteUser(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)
	if caller.ID == c.Params("id") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot delete your own account"})
	}

	var user Models.User
	if err := Models.DB.Where("id = ?", c.Params("id")).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	if user.Role == Inspection.RoleInspector {
		var inspector Models.Inspector
		if err := Models.DB.Where("user_id = ?", user.ID).First(&inspector).Error; err == nil {
			var count int64
			Models.DB.Model(&Models.Appointment{}).Where("inspector_id = ?", inspector.ID).Count(&count)
			if count > 0 {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "Inspector has assigned appointments and cannot be deleted",
				})
			}
			Models.DB.Delete(&inspector)
		}
	}

	Models.DB.Where("user_id = ?", user.ID).Delete(&Models.UserSession{})
	Models.DB.Where("user_id = ?", user.ID).Delete(&Models.DeviceToken{})
	if err := Models.DB.Delete(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete user"})
	}

	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}
