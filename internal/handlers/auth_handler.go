package handlers

import (
	"net/http"
	"time"

	"ehr-backend/internal/middleware"
	"ehr-backend/internal/models"
	"ehr-backend/internal/token"
	"ehr-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthHandler serves register, login and the current-user lookup.
type AuthHandler struct {
	DB     *gorm.DB
	Tokens *token.Service
}

// Register creates an account and returns a fresh token.
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterInput

	// 1. Validate input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.ValidationError(c, err)
		return
	}

	// 2. Reject duplicate emails up front
	var existing models.User
	err := h.DB.WithContext(c.Request.Context()).Where("email = ?", input.Email).First(&existing).Error
	if err == nil {
		utils.Error(c, http.StatusBadRequest, "email already registered")
		return
	}

	// 3. Hash the password
	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "failed to process password")
		return
	}

	// 4. Store the user
	user := models.User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		FullName:     input.FullName,
		Role:         input.Role,
		PasswordHash: hashedPassword,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		utils.Error(c, http.StatusBadRequest, "email already registered")
		return
	}

	// 5. Issue the token
	accessToken, err := h.Tokens.Issue(user.ID, user.Role)
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "failed to generate token")
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		User:        user,
	})
}

// Login verifies credentials and returns a fresh token. The response
// never says whether the email or the password was wrong.
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginInput

	// 1. Validate input
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.ValidationError(c, err)
		return
	}

	// 2. Look up the user by email
	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).Where("email = ?", input.Email).First(&user).Error; err != nil {
		utils.Error(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	// 3. Check the password
	if !utils.CheckPassword(input.Password, user.PasswordHash) {
		utils.Error(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	// 4. Issue the token
	accessToken, err := h.Tokens.Issue(user.ID, user.Role)
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "failed to generate token")
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		User:        user,
	})
}

// Me returns the caller's own user row. 404 if the account vanished
// after the token was issued.
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		utils.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).Where("id = ?", identity.UserID).First(&user).Error; err != nil {
		utils.Error(c, http.StatusNotFound, "user not found")
		return
	}

	c.JSON(http.StatusOK, user)
}
