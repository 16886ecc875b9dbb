package Models

import (
	"time"
)

// AppointmentStatus is the booking state of an inspection appointment.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "PENDING"
	AppointmentConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
)

// CreatedChannel records which surface booked the appointment.
type CreatedChannel string

const (
	ChannelClientPortal CreatedChannel = "CLIENT_PORTAL"
	ChannelAdminPanel   CreatedChannel = "ADMIN_PANEL"
)

// Appointment is a booked inspection visit. Appointments are confirmed
// on creation; only confirmed ones can be scored, and completing one
// creates its inspection result.
type Appointment struct {
	Base
	AnnualInspectionID string            `json:"annual_inspection_id" gorm:"type:char(36);not null;index"`
	VehicleID          string            `json:"vehicle_id" gorm:"type:char(36);not null;index"`
	InspectorID        *string           `json:"inspector_id" gorm:"type:char(36);index"`
	CreatedByUserID    string            `json:"created_by_user_id" gorm:"type:char(36);not null"`
	CreatedChannel     CreatedChannel    `json:"created_channel" gorm:"size:20;not null"`
	DateTime           time.Time         `json:"date_time" gorm:"not null;index"`
	Status             AppointmentStatus `json:"status" gorm:"size:20;not null;default:PENDING"`
	ConfirmationToken  string            `json:"confirmation_token" gorm:"size:20"`
	SlotID             *string           `json:"slot_id" gorm:"type:char(36)"`
	Vehicle            Vehicle           `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
	Inspector          *Inspector        `json:"inspector,omitempty" gorm:"foreignKey:InspectorID"`
	AnnualInspection   AnnualInspection  `json:"annual_inspection,omitempty" gorm:"foreignKey:AnnualInspectionID"`
}

// AvailabilitySlot is one bookable hour on the inspection calendar.
// EndTime is always StartTime plus one hour.
type AvailabilitySlot struct {
	Base
	StartTime time.Time `json:"start_time" gorm:"not null;index"`
	EndTime   time.Time `json:"end_time" gorm:"not null"`
	IsBooked  bool      `json:"is_booked" gorm:"not null;default:false"`
}
