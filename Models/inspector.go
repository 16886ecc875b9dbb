package Models

// Inspector links a user account with the INSPECTOR role to its employee
// record. Appointments are assigned against this row, not the user.
type Inspector struct {
	Base
	UserID     string `json:"user_id" gorm:"type:char(36);not null;uniqueIndex"`
	EmployeeID string `json:"employee_id" gorm:"size:50;not null;uniqueIndex"`
	User       User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
