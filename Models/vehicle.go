package Models

import (
	"gorm.io/datatypes"
)

// Vehicle is a client's registered vehicle. Deletion by a client only
// flips IsActive so the plate history survives; re-registering the same
// plate reactivates the row instead of duplicating it.
type Vehicle struct {
	Base
	PlateNumber  string         `json:"plate_number" gorm:"size:20;not null;uniqueIndex"`
	Make         string         `json:"make" gorm:"size:100;not null"`
	Model        string         `json:"model" gorm:"size:100;not null"`
	Year         int            `json:"year" gorm:"not null"`
	OwnerID      string         `json:"owner_id" gorm:"type:char(36);not null;index"`
	IsActive     bool           `json:"is_active" gorm:"not null;default:true"`
	RegistryData datatypes.JSON `json:"registry_data,omitempty"`
	Owner        User           `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}
