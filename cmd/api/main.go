package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ehr-backend/internal/config"
	"ehr-backend/internal/handlers"
	"ehr-backend/internal/middleware"
	"ehr-backend/internal/models"
	"ehr-backend/internal/policy"
	"ehr-backend/internal/routes"
	"ehr-backend/internal/token"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	// 2. Connect DB
	db, err := config.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Patient{}, &models.MedicalRecord{}); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// 3. Wire services and handlers
	tokens := token.NewService(cfg.JWTSecret, token.DefaultTTL)
	engine := policy.NewEngine(&handlers.ProfileStore{DB: db})

	h := routes.Handlers{
		Auth:     &handlers.AuthHandler{DB: db, Tokens: tokens},
		Users:    &handlers.UserHandler{DB: db, Engine: engine},
		Patients: &handlers.PatientHandler{DB: db, Engine: engine},
		Records:  &handlers.RecordHandler{DB: db, Engine: engine},
		Tokens:   tokens,
	}

	// 4. Router + global middleware
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.CORSOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RateLimitMiddleware())
	routes.SetupRoutes(r, h)

	// 5. Serve with graceful shutdown, closing the pool on the way out
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	go func() {
		log.Println("Server listening on port " + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
