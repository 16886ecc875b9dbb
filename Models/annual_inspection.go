package Models

// AnnualStatus is the state of a vehicle's yearly inspection cycle.
type AnnualStatus string

const (
	AnnualPending    AnnualStatus = "PENDING"
	AnnualInProgress AnnualStatus = "IN_PROGRESS"
	AnnualPassed     AnnualStatus = "PASSED"
	AnnualFailed     AnnualStatus = "FAILED"
)

// AnnualInspection is the yearly cycle record, one per vehicle per year.
// Every appointment and result hangs off one of these; CurrentResultID
// points at the latest attempt.
type AnnualInspection struct {
	Base
	VehicleID       string       `json:"vehicle_id" gorm:"type:char(36);not null;uniqueIndex:idx_vehicle_year"`
	Year            int          `json:"year" gorm:"not null;uniqueIndex:idx_vehicle_year"`
	Status          AnnualStatus `json:"status" gorm:"size:20;not null;default:PENDING"`
	AttemptCount    int          `json:"attempt_count" gorm:"not null;default:0"`
	CurrentResultID *string      `json:"current_result_id" gorm:"type:char(36)"`
	Vehicle         Vehicle      `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
}
