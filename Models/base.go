package Models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the shared columns of every table. Primary keys are
// CHAR(36) UUID strings, generated on create when the caller left the ID
// empty.
type Base struct {
	ID        string    `json:"id" gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
