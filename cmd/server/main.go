package main

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/skladhub/sklad-backend/internal/api/handlers"
	"github.com/skladhub/sklad-backend/internal/config"
	"github.com/skladhub/sklad-backend/internal/middleware"
	"github.com/skladhub/sklad-backend/internal/realtime"
	"github.com/skladhub/sklad-backend/internal/repository"
)

func main() {

	// LOAD ENV
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed load config: ", err)
	}

	// INIT DB
	repo, err := repository.NewPostgresRepo(cfg.DSN())
	if err != nil {
		log.Fatal("failed connect database: ", err)
	}

	// MIGRATIONS
	if err := repo.RunMigrations(context.Background()); err != nil {
		log.Fatal("migration error: ", err)
	}

	// ADMIN SEED
	hashed, _ := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err := repo.UpsertAdmin(context.Background(), cfg.AdminUsername, string(hashed)); err != nil {
		log.Warn("failed seeding admin: ", err)
	} else {
		log.Info("admin seeded OK")
	}

	// REALTIME HUB
	hub := realtime.NewHub(cfg.WriteTimeout)

	// HANDLERS
	authHandler := handlers.NewAuthHandler(repo, cfg.JWTSecret, cfg.JWTTTL)
	partHandler := handlers.NewPartHandler(repo, hub)
	orderHandler := handlers.NewOrderHandler(repo, hub)
	taskHandler := handlers.NewTaskHandler(repo, hub)
	knifeHandler := handlers.NewKnifeHandler(repo)
	settingsHandler := handlers.NewSettingsHandler(repo)

	// ROUTER
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	// AUTH ROUTES
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	// REALTIME CHANNEL (validates its own credential before the upgrade)
	api.GET("/realtime", realtime.Handler(hub, cfg.JWTSecret, cfg.IdleTimeout))

	// PROTECTED ROUTES
	protected := api.Group("")
	protected.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	parts := protected.Group("/parts")
	{
		parts.GET("", partHandler.List)
		parts.GET("/:id", partHandler.Get)
		parts.POST("", partHandler.Create)
		parts.PATCH("/:id", partHandler.Update)
		parts.DELETE("/:id", partHandler.Delete)
	}

	orders := protected.Group("/orders")
	{
		orders.GET("", orderHandler.List)
		orders.GET("/:id", orderHandler.Get)
		orders.POST("", orderHandler.Create)
		orders.PATCH("/:id", orderHandler.Update)
		orders.DELETE("/:id", orderHandler.Delete)
	}

	tasks := protected.Group("/tasks")
	{
		tasks.GET("", taskHandler.List)
		tasks.GET("/:id", taskHandler.Get)
		tasks.POST("", taskHandler.Create)
		tasks.PATCH("/:id", taskHandler.Update)
		tasks.DELETE("/:id", taskHandler.Delete)
	}

	knives := protected.Group("/knives")
	{
		knives.GET("", knifeHandler.List)
		knives.POST("/:id/sharpen", knifeHandler.Sharpen)
		knives.GET("/:id/sharpen-log", knifeHandler.SharpenLog)
	}

	settings := protected.Group("/settings")
	{
		settings.GET("", settingsHandler.List)
		settings.GET("/:key", settingsHandler.Get)
		settings.PUT("/:key", settingsHandler.Put)
	}

	// START SERVER
	log.Info("Server running on port: ", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("server stopped: ", err)
	}
}
