package handlers

import (
	"net/http"

	"ehr-backend/internal/middleware"
	"ehr-backend/internal/models"
	"ehr-backend/internal/policy"
	"ehr-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserHandler serves the user directory for doctors and admins.
type UserHandler struct {
	DB     *gorm.DB
	Engine *policy.Engine
}

// List returns every user. Password hashes never serialize (json:"-").
func (h *UserHandler) List(c *gin.Context) {
	identity, ok := middleware.Identity(c)
	if !ok {
		utils.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	if d := h.Engine.CanListUsers(identity); !d.Allowed {
		utils.Error(c, http.StatusForbidden, d.Reason)
		return
	}

	users := []models.User{}
	if err := h.DB.WithContext(c.Request.Context()).Find(&users).Error; err != nil {
		utils.Error(c, http.StatusInternalServerError, "failed to load users")
		return
	}

	c.JSON(http.StatusOK, users)
}
