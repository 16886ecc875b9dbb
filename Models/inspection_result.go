package Models

// InspectionResult is the immutable record of one completed inspection.
// Exactly one exists per completed appointment; nothing updates it after
// creation.
type InspectionResult struct {
	Base
	AppointmentID    string      `json:"appointment_id" gorm:"type:char(36);not null;uniqueIndex"`
	TotalScore       int         `json:"total_score" gorm:"not null"`
	Passed           bool        `json:"passed" gorm:"not null"`
	OwnerObservation string      `json:"owner_observation,omitempty" gorm:"size:500"`
	ItemChecks       []ItemCheck `json:"item_checks,omitempty" gorm:"foreignKey:ResultID"`
	Appointment      Appointment `json:"appointment,omitempty" gorm:"foreignKey:AppointmentID"`
}

// ItemCheck is one scored checklist item inside a result, one per
// template.
type ItemCheck struct {
	Base
	ResultID    string            `json:"result_id" gorm:"type:char(36);not null;uniqueIndex:idx_result_template"`
	TemplateID  string            `json:"template_id" gorm:"type:char(36);not null;uniqueIndex:idx_result_template"`
	Score       int               `json:"score" gorm:"not null"`
	Observation string            `json:"observation" gorm:"size:255"`
	Template    CheckItemTemplate `json:"template,omitempty" gorm:"foreignKey:TemplateID"`
}

// ResultPhoto is a defect photo an inspector attached to a result. Paths
// point under the upload directory; ThumbPath is the resized copy served
// in listings.
type ResultPhoto struct {
	Base
	ResultID  string `json:"result_id" gorm:"type:char(36);not null;index"`
	FileName  string `json:"file_name" gorm:"size:255;not null"`
	FilePath  string `json:"file_path" gorm:"size:512;not null"`
	ThumbPath string `json:"thumb_path" gorm:"size:512;not null"`
}
