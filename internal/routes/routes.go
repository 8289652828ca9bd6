package routes

import (
	"net/http"

	"ehr-backend/internal/handlers"
	"ehr-backend/internal/middleware"
	"ehr-backend/internal/token"
	"ehr-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Users    *handlers.UserHandler
	Patients *handlers.PatientHandler
	Records  *handlers.RecordHandler
	Tokens   *token.Service
}

// SetupRoutes mounts the whole API under /api. Register and login are
// public; everything else sits behind the auth middleware.
func SetupRoutes(r *gin.Engine, h Handlers) {
	r.NoRoute(func(c *gin.Context) {
		utils.Error(c, http.StatusNotFound, "not found")
	})

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(h.Tokens))
		{
			protected.GET("/auth/me", h.Auth.Me)

			protected.POST("/patients", h.Patients.Create)
			protected.GET("/patients", h.Patients.List)
			protected.GET("/patients/me", h.Patients.Me)
			protected.GET("/patients/:id", h.Patients.GetByID)

			protected.POST("/medical-records", h.Records.Create)
			protected.GET("/medical-records", h.Records.List)
			protected.GET("/medical-records/:id", h.Records.GetByID)

			protected.GET("/users", h.Users.List)
		}
	}
}
