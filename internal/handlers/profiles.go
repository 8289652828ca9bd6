package handlers

import (
	"context"
	"errors"

	"ehr-backend/internal/models"

	"gorm.io/gorm"
)

// ProfileStore backs the policy engine's patient self-scoping lookup.
// First match wins when a user somehow has several profiles, matching the
// read path of /patients/me.
type ProfileStore struct {
	DB *gorm.DB
}

func (s *ProfileStore) ProfileIDByUser(ctx context.Context, userID string) (string, bool, error) {
	var patient models.Patient
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&patient).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return patient.ID, true, nil
}
