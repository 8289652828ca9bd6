package models

import "time"

// MedicalRecord represents the 'medical_records' table. Records are
// immutable after creation; there are no update or delete paths.
type MedicalRecord struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	PatientID      string     `gorm:"size:36;index;not null" json:"patient_id"`
	DoctorID       string     `gorm:"size:36;index;not null" json:"doctor_id"`
	VisitDate      time.Time  `json:"visit_date"`
	ChiefComplaint string     `gorm:"type:text;not null" json:"chief_complaint"`
	Diagnosis      string     `gorm:"type:text;not null" json:"diagnosis"`
	TreatmentPlan  string     `gorm:"type:text;not null" json:"treatment_plan"`
	Prescriptions  StringList `gorm:"type:json" json:"prescriptions"`
	Notes          string     `gorm:"type:text" json:"notes,omitempty"`
	FollowUpDate   string     `gorm:"size:20" json:"follow_up_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// CreateMedicalRecordInput captures the create-record request body.
// visit_date is set server-side, not client-supplied.
type CreateMedicalRecordInput struct {
	PatientID      string   `json:"patient_id" binding:"required"`
	ChiefComplaint string   `json:"chief_complaint" binding:"required"`
	Diagnosis      string   `json:"diagnosis" binding:"required"`
	TreatmentPlan  string   `json:"treatment_plan" binding:"required"`
	Prescriptions  []string `json:"prescriptions"`
	Notes          string   `json:"notes"`
	FollowUpDate   string   `json:"follow_up_date"`
}
