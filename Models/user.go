package Models

import (
	"time"

	"Inspecta/Inspection"
)

// User is any account in the system. The role decides everything the
// account may do, one role per user at any time.
type User struct {
	Base
	Email        string          `json:"email" gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string          `json:"-" gorm:"size:255;not null"`
	FullName     string          `json:"full_name" gorm:"size:255;not null"`
	Phone        string          `json:"phone" gorm:"size:50"`
	Role         Inspection.Role `json:"role" gorm:"size:20;not null;default:CLIENT"`
	IsActive     bool            `json:"is_active" gorm:"not null;default:true"`
	LastLoginAt  *time.Time      `json:"last_login_at"`
}

// UserSession tracks one issued access token by its jti claim. Revoking
// the row kills the token before its natural expiry.
type UserSession struct {
	Base
	UserID    string    `json:"user_id" gorm:"type:char(36);not null;index"`
	TokenJTI  string    `json:"token_jti" gorm:"size:64;not null;uniqueIndex"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Revoked   bool      `json:"revoked" gorm:"not null;default:false"`
}

// RevokeUserSessions marks every session of the user revoked. Used on
// logout-all paths: password changes and account deactivation.
func RevokeUserSessions(userID string) error {
	return DB.Model(&UserSession{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
}
