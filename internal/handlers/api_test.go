package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ehr-backend/internal/handlers"
	"ehr-backend/internal/models"
	"ehr-backend/internal/policy"
	"ehr-backend/internal/routes"
	"ehr-backend/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func setupAPI(t *testing.T) (*gin.Engine, *token.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// A uniquely named shared in-memory database per test, so gorm's pool
	// sees one store across connections.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Patient{}, &models.MedicalRecord{}))

	tokens := token.NewService(testSecret, time.Hour)
	engine := policy.NewEngine(&handlers.ProfileStore{DB: db})

	r := gin.New()
	routes.SetupRoutes(r, routes.Handlers{
		Auth:     &handlers.AuthHandler{DB: db, Tokens: tokens},
		Users:    &handlers.UserHandler{DB: db, Engine: engine},
		Patients: &handlers.PatientHandler{DB: db, Engine: engine},
		Records:  &handlers.RecordHandler{DB: db, Engine: engine},
		Tokens:   tokens,
	})
	return r, tokens
}

func do(r http.Handler, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func register(t *testing.T, r http.Handler, email, role string) models.TokenResponse {
	t.Helper()
	w := do(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":     email,
		"password":  "password1",
		"full_name": "Test " + role,
		"role":      role,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.TokenResponse
	decode(t, w, &resp)
	return resp
}

func createProfile(t *testing.T, r http.Handler, bearer string) models.Patient {
	t.Helper()
	w := do(r, http.MethodPost, "/api/patients", bearer, gin.H{
		"date_of_birth":           "1990-04-02",
		"gender":                  "female",
		"phone_number":            "+15550100",
		"address":                 "1 Main St",
		"emergency_contact_name":  "Next Of Kin",
		"emergency_contact_phone": "+15550101",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var p models.Patient
	decode(t, w, &p)
	return p
}

func TestRegisterAndLogin(t *testing.T) {
	r, tokens := setupAPI(t)

	reg := register(t, r, "d@x.com", "doctor")
	assert.Equal(t, "bearer", reg.TokenType)
	assert.Equal(t, "doctor", reg.User.Role)
	assert.NotEmpty(t, reg.User.ID)

	// The token's subject is the registered identity.
	claims, err := tokens.Verify(reg.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)
	assert.Equal(t, "doctor", claims.Role)

	// Same email again is a conflict.
	w := do(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "d@x.com", "password": "password2", "full_name": "Dup", "role": "doctor",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Login with the same credentials succeeds and carries the same subject.
	w = do(r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "d@x.com", "password": "password1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var login models.TokenResponse
	decode(t, w, &login)
	claims, err = tokens.Verify(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)

	// The password hash never serializes.
	assert.NotContains(t, w.Body.String(), "password_hash")
}

func TestLoginFailureDoesNotLeakWhichFieldWasWrong(t *testing.T) {
	r, _ := setupAPI(t)
	register(t, r, "p@x.com", "patient")

	wrongPassword := do(r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "p@x.com", "password": "wrong-password",
	})
	unknownEmail := do(r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "nobody@x.com", "password": "password1",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestRegisterValidation(t *testing.T) {
	r, _ := setupAPI(t)

	// Bad role value.
	w := do(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "a@x.com", "password": "password1", "full_name": "A", "role": "superuser",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "role")

	// Missing email.
	w = do(r, http.MethodPost, "/api/auth/register", "", gin.H{
		"password": "password1", "full_name": "A", "role": "patient",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "email")

	// Body that is not JSON at all.
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString("{nope"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAuthMe(t *testing.T) {
	r, _ := setupAPI(t)
	reg := register(t, r, "p@x.com", "patient")

	first := do(r, http.MethodGet, "/api/auth/me", reg.AccessToken, nil)
	require.Equal(t, http.StatusOK, first.Code)
	var me models.User
	decode(t, first, &me)
	assert.Equal(t, reg.User.ID, me.ID)
	assert.True(t, me.IsActive)

	// Idempotent absent mutation.
	second := do(r, http.MethodGet, "/api/auth/me", reg.AccessToken, nil)
	assert.Equal(t, first.Body.String(), second.Body.String())

	// No token / bad token.
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/auth/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/auth/me", "garbage", nil).Code)
}

func TestExpiredTokenRejectedEverywhere(t *testing.T) {
	r, _ := setupAPI(t)
	reg := register(t, r, "p@x.com", "patient")

	claims := token.Claims{
		UserID: reg.User.ID,
		Role:   "patient",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	for _, path := range []string{"/api/auth/me", "/api/patients", "/api/medical-records", "/api/users"} {
		w := do(r, http.MethodGet, path, expired, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestPatientProfileAccess(t *testing.T) {
	r, _ := setupAPI(t)
	patientA := register(t, r, "a@x.com", "patient")
	patientB := register(t, r, "b@x.com", "patient")
	doctor := register(t, r, "d@x.com", "doctor")

	profile := createProfile(t, r, patientA.AccessToken)
	assert.Equal(t, patientA.User.ID, profile.UserID)
	assert.NotNil(t, profile.Allergies) // defaults to [], not null

	// Listing all profiles is doctor/admin territory.
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/patients", patientA.AccessToken, nil).Code)
	w := do(r, http.MethodGet, "/api/patients", doctor.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.Patient
	decode(t, w, &all)
	assert.Len(t, all, 1)

	// /patients/me: patient-only, 404 without a profile.
	w = do(r, http.MethodGet, "/api/patients/me", patientA.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/patients/me", doctor.AccessToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/patients/me", patientB.AccessToken, nil).Code)

	// Read by id: owner and staff succeed; another patient sees 404, not 403.
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/patients/"+profile.ID, patientA.AccessToken, nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/patients/"+profile.ID, doctor.AccessToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/patients/"+profile.ID, patientB.AccessToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/patients/"+uuid.NewString(), doctor.AccessToken, nil).Code)

	// Unauthenticated writes are rejected before touching storage.
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/patients", "", gin.H{}).Code)
}

func TestMedicalRecordFlow(t *testing.T) {
	r, _ := setupAPI(t)
	patientA := register(t, r, "a@x.com", "patient")
	patientB := register(t, r, "b@x.com", "patient")
	doctor := register(t, r, "d@x.com", "doctor")

	profile := createProfile(t, r, patientA.AccessToken)

	// Only doctors and admins create records.
	w := do(r, http.MethodPost, "/api/medical-records", patientA.AccessToken, gin.H{
		"patient_id": profile.ID, "chief_complaint": "x", "diagnosis": "y", "treatment_plan": "z",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/api/medical-records", doctor.AccessToken, gin.H{
		"patient_id":      profile.ID,
		"chief_complaint": "headache",
		"diagnosis":       "migraine",
		"treatment_plan":  "rest",
		"prescriptions":   []string{"ibuprofen"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var record models.MedicalRecord
	decode(t, w, &record)
	assert.Equal(t, doctor.User.ID, record.DoctorID)
	assert.Equal(t, profile.ID, record.PatientID)
	assert.False(t, record.VisitDate.IsZero())

	// Patient list is forced to their own profile, whatever filter they send.
	for _, path := range []string{"/api/medical-records", "/api/medical-records?patient_id=" + uuid.NewString()} {
		w = do(r, http.MethodGet, path, patientA.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list []models.MedicalRecord
		decode(t, w, &list)
		require.Len(t, list, 1, path)
		assert.Equal(t, record.ID, list[0].ID)
	}

	// A patient with no profile gets an empty list, not an error.
	w = do(r, http.MethodGet, "/api/medical-records", patientB.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	// Doctor filter is honored as given.
	w = do(r, http.MethodGet, "/api/medical-records?patient_id="+profile.ID, doctor.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.MedicalRecord
	decode(t, w, &list)
	assert.Len(t, list, 1)

	w = do(r, http.MethodGet, "/api/medical-records?patient_id="+uuid.NewString(), doctor.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	// Read by id: owner 200, other patient 403, staff 200, unknown id 404.
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/medical-records/"+record.ID, patientA.AccessToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/medical-records/"+record.ID, patientB.AccessToken, nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/medical-records/"+record.ID, doctor.AccessToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/medical-records/"+uuid.NewString(), doctor.AccessToken, nil).Code)
}

func TestUserDirectory(t *testing.T) {
	r, _ := setupAPI(t)
	admin := register(t, r, "root@x.com", "admin")
	doctor := register(t, r, "d@x.com", "doctor")
	patient := register(t, r, "p@x.com", "patient")

	for _, tok := range []string{admin.AccessToken, doctor.AccessToken} {
		w := do(r, http.MethodGet, "/api/users", tok, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var users []models.User
		decode(t, w, &users)
		assert.Len(t, users, 3)
		assert.NotContains(t, w.Body.String(), "password_hash")
	}

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/users", patient.AccessToken, nil).Code)
}

func TestUnknownRoute(t *testing.T) {
	r, _ := setupAPI(t)
	w := do(r, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not found")
}
