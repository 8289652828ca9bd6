package handlers

import (
	"net/http"
	"time"

	"ehr-backend/internal/middleware"
	"ehr-backend/internal/models"
	"ehr-backend/internal/policy"
	"ehr-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PatientHandler serves patient profile endpoints.
type PatientHandler struct {
	DB     *gorm.DB
	Engine *policy.Engine
}

// Create stores a new profile attached to the caller's own user id, so a
// patient can only ever create a profile for themselves.
func (h *PatientHandler) Create(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		utils.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	if d := h.Engine.CanCreatePatient(identity); !d.Allowed {
		utils.Error(c, http.StatusForbidden, d.Reason)
		return
	}

	var input models.CreatePatientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.ValidationError(c, err)
		return
	}

	patient := models.Patient{
		ID:                    uuid.NewString(),
		UserID:                identity.UserID,
		DateOfBirth:           input.DateOfBirth,
		Gender:                input.Gender,
		PhoneNumber:           input.PhoneNumber,
		Address:               input.Address,
		EmergencyContactName:  input.EmergencyContactName,
		EmergencyContactPhone: input.EmergencyContactPhone,
		BloodType:             input.BloodType,
		Allergies:             listOrEmpty(input.Allergies),
		ChronicConditions:     listOrEmpty(input.ChronicConditions),
		CurrentMedications:    listOrEmpty(input.CurrentMedications),
		CreatedAt:             time.Now().UTC(),
	}

	if err := h.DB.WithContext(c.Request.Context()).Create(&patient).Error; err != nil {
		utils.Error(c, http.StatusInternalServerError, "failed to save patient")
		return
	}

	c.JSON(http.StatusOK, patient)
}

// List returns every profile; doctors and admins only.
func (h *PatientHandler) List(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		utils.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	if d := h.Engine.CanListPatients(identity); !d.Allowed {
		utils.Error(c, http.StatusForbidden, d.Reason)
		return
	}

	patients := []models.Patient{}
	if err := h.DB.WithContext(c.Request.Context()).Find(&patients).Error; err != nil {
		utils.Error(c, http.StatusInternalServerError, "failed to load patients")
		return
	}

	c.JSON(http.StatusOK, patients)
}

// Me returns the caller's own profile; patients only.
func (h *PatientHandler) Me(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		utils.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	if d := h.Engine.CanReadOwnProfile(identity); !d.Allowed {
		utils.Error(c, http.StatusForbidden, d.Reason)
		return
	}

	var patient models.Patient
	if err := h.DB.WithContext(c.Request.Context()).Where("user_id = ?", identity.UserID).First(&patient).Error; err != nil {
		utils.Error(c, http.StatusNotFound, "patient profile not found")
		return
	}

	c.JSON(http.StatusOK, patient)
}

// GetByID returns one profile. Doctors and admins may fetch any; a
// patient's query is constrained to their own user id, so other people's
// profiles come back 404, not 403.
func (h *PatientHandler) GetByID(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		utils.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	patientID := c.Param("id")
	query := h.DB.WithContext(c.Request.Context()).Where("id = ?", patientID)
	if h.Engine.PatientReadRestrictedToOwner(identity) {
		query = query.Where("user_id = ?", identity.UserID)
	}

	var patient models.Patient
	if err := query.First(&patient).Error; err != nil {
		utils.Error(c, http.StatusNotFound, "patient not found")
		return
	}

	c.JSON(http.StatusOK, patient)
}

func listOrEmpty(list []string) models.StringList {
	if list == nil {
		return models.StringList{}
	}
	return models.StringList(list)
}
