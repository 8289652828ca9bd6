package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList is stored as a JSON array column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
}

// Patient represents the 'patients' table. One profile per user is assumed
// but not enforced, matching the lookup semantics (first match wins).
type Patient struct {
	ID                    string     `gorm:"primaryKey;size:36" json:"id"`
	UserID                string     `gorm:"size:36;index;not null" json:"user_id"`
	DateOfBirth           string     `gorm:"size:20;not null" json:"date_of_birth"`
	Gender                string     `gorm:"size:10;not null" json:"gender"`
	PhoneNumber           string     `gorm:"size:30;not null" json:"phone_number"`
	Address               string     `gorm:"type:text;not null" json:"address"`
	EmergencyContactName  string     `gorm:"size:100;not null" json:"emergency_contact_name"`
	EmergencyContactPhone string     `gorm:"size:30;not null" json:"emergency_contact_phone"`
	BloodType             string     `gorm:"size:5" json:"blood_type,omitempty"`
	Allergies             StringList `gorm:"type:json" json:"allergies"`
	ChronicConditions     StringList `gorm:"type:json" json:"chronic_conditions"`
	CurrentMedications    StringList `gorm:"type:json" json:"current_medications"`
	CreatedAt             time.Time  `json:"created_at"`
}

// CreatePatientInput captures the create-profile request body.
type CreatePatientInput struct {
	DateOfBirth           string   `json:"date_of_birth" binding:"required"`
	Gender                string   `json:"gender" binding:"required,oneof=male female other"`
	PhoneNumber           string   `json:"phone_number" binding:"required"`
	Address               string   `json:"address" binding:"required"`
	EmergencyContactName  string   `json:"emergency_contact_name" binding:"required"`
	EmergencyContactPhone string   `json:"emergency_contact_phone" binding:"required"`
	BloodType             string   `json:"blood_type"`
	Allergies             []string `json:"allergies"`
	ChronicConditions     []string `json:"chronic_conditions"`
	CurrentMedications    []string `json:"current_medications"`
}
