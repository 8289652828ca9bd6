package handlers

import (
	"errors"
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

// RecordHandler serves medical record endpoints. Records are write-once.
type RecordHandler struct {
	DB     *gorm.DB
	Engine *policy.Engine
}

// Create stores a new record authored by the calling doctor or admin.
// visit_date is server-set; the referenced patient_id is stored as given,
// without a referential check.
func (h *RecordHandler) Create(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		utils.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	if d := h.Engine.CanCreateRecord(identity); !d.Allowed {
		utils.Error(c, http.StatusForbidden, d.Reason)
		return
	}

	var input models.CreateMedicalRecordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.ValidationError(c, err)
		return
	}

	now := time.Now().UTC()
	record := models.MedicalRecord{
		ID:             uuid.NewString(),
		PatientID:      input.PatientID,
		DoctorID:       identity.UserID,
		VisitDate:      now,
		ChiefComplaint: input.ChiefComplaint,
		Diagnosis:      input.Diagnosis,
		TreatmentPlan:  input.TreatmentPlan,
		Prescriptions:  listOrEmpty(input.Prescriptions),
		Notes:          input.Notes,
		FollowUpDate:   input.FollowUpDate,
		CreatedAt:      now,
	}

	if err := h.DB.WithContext(c.Request.Context()).Create(&record).Error; err != nil {
		utils.Error(c, http.StatusInternalServerError, "failed to save record")
		return
	}

	c.JSON(http.StatusOK, record)
}

// List returns records under the policy scope: doctors and admins get the
// optional ?patient_id= filter honored, patients get the filter forced to
// their own profile whatever they asked for, and a patient with no
// profile gets [] rather than an error.
func (h *RecordHandler) List(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		utils.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	scope, err := h.Engine.ScopeRecordList(c.Request.Context(), identity, c.Query("patient_id"))
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "failed to resolve access scope")
		return
	}

	records := []models.MedicalRecord{}
	if scope.Empty {
		c.JSON(http.StatusOK, records)
		return
	}

	query := h.DB.WithContext(c.Request.Context())
	if scope.PatientID != "" {
		query = query.Where("patient_id = ?", scope.PatientID)
	}
	if err := query.Find(&records).Error; err != nil {
		utils.Error(c, http.StatusInternalServerError, "failed to load records")
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetByID returns one record. Unknown ids are 404 for everyone; a record
// that exists but belongs to someone else's profile is 403 for a patient
// caller.
func (h *RecordHandler) GetByID(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		utils.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var record models.MedicalRecord
	err := h.DB.WithContext(c.Request.Context()).Where("id = ?", c.Param("id")).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(c, http.StatusNotFound, "medical record not found")
		return
	}
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "failed to load record")
		return
	}

	decision, err := h.Engine.CanReadRecord(c.Request.Context(), identity, record.PatientID)
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "failed to resolve access scope")
		return
	}
	if !decision.Allowed {
		utils.Error(c, http.StatusForbidden, decision.Reason)
		return
	}

	c.JSON(http.StatusOK, record)
}
