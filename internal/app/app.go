package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studwork_backend/database"
	"studwork_backend/internal/auth"
	"studwork_backend/internal/config"
	"studwork_backend/internal/email"
	"studwork_backend/internal/handlers"
	"studwork_backend/internal/logger"
	"studwork_backend/internal/middleware"
	"studwork_backend/internal/models"
	"studwork_backend/internal/repositories"
	"studwork_backend/internal/routes"
	"studwork_backend/internal/services"
	"studwork_backend/internal/validator"
	"studwork_backend/internal/workers"
	"studwork_backend/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ginRouter, reconciliationService := SetupRouter(cfg, gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interval := time.Duration(cfg.Reconciliation.IntervalMinutes) * time.Minute
	worker := workers.NewReconciliationWorker(reconciliationService, interval)
	worker.Start(ctx)
	logger.Info("Reconciliation worker started", "interval", interval)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter wires repositories, services and handlers onto a gin engine.
// It is shared by Run and the integration test harness.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, services.ReconciliationService) {
	container := initializeServices(cfg, gormDB)
	appHandlers := initializeHandlers(container)

	wsHandler := ws.NewWebSocketHandler(container.WsManager)

	ginRouter := initializeGinRouter()
	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler, cfg.JWT.Secret)

	return ginRouter, container.ReconciliationService
}

// ServiceContainer holds every service built at startup.
type ServiceContainer struct {
	AuthService           services.AuthService
	VerificationService   services.VerificationService
	NotificationService   services.NotificationService
	ReconciliationService services.ReconciliationService
	EmailProvider         email.Provider
	WsManager             *ws.WebSocketManager
}

func initializeServices(cfg *config.Config, gormDB *gorm.DB) *ServiceContainer {
	var emailProvider email.Provider
	if cfg.Email.SMTPHost != "" && cfg.Server.Env == "production" {
		emailProvider = email.NewSMTPProvider(email.Config{
			SMTPHost:     cfg.Email.SMTPHost,
			SMTPPort:     cfg.Email.SMTPPort,
			SMTPUsername: cfg.Email.SMTPUsername,
			SMTPPassword: cfg.Email.SMTPPassword,
			FromEmail:    cfg.Email.FromEmail,
			FromName:     cfg.Email.FromName,
		})
	} else {
		logger.Warn("SMTP not configured for this environment, using mock email provider")
		emailProvider = &MockEmailProvider{}
	}

	userRepo := repositories.NewUserRepository(gormDB)
	verificationRepo := repositories.NewVerificationRepository(gormDB)
	auditRepo := repositories.NewAuditRepository(gormDB)
	notificationRepo := repositories.NewNotificationRepository(gormDB)

	wsManager := ws.NewWebSocketManager()
	go wsManager.Run()

	tokenTTL := time.Duration(cfg.JWT.TTL) * time.Minute
	authService := services.NewAuthService(userRepo, cfg.JWT.Secret, tokenTTL)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, emailProvider)
	verificationService := services.NewVerificationService(
		gormDB, userRepo, verificationRepo, auditRepo, wsManager, notificationService)
	reconciliationService := services.NewReconciliationService(
		gormDB, userRepo, verificationService, auditRepo,
		cfg.Reconciliation.BatchSize, cfg.Reconciliation.Workers)

	return &ServiceContainer{
		AuthService:           authService,
		VerificationService:   verificationService,
		NotificationService:   notificationService,
		ReconciliationService: reconciliationService,
		EmailProvider:         emailProvider,
		WsManager:             wsManager,
	}
}

func initializeHandlers(container *ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(baseHandler, container.AuthService),
		VerificationHandler: handlers.NewVerificationHandler(baseHandler, container.VerificationService),
		AdminKycHandler:     handlers.NewAdminKycHandler(baseHandler, container.VerificationService, container.ReconciliationService),
		NotificationHandler: handlers.NewNotificationHandler(baseHandler, container.NotificationService),
	}
}

func initializeGinRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	return router
}

// seedFirstAdmin creates the initial admin account when the configured one
// does not exist yet. Without it nobody can review verifications.
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	if cfg.FirstAdminEmail == "" || cfg.FirstAdminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD not set, skipping admin seeding")
		return nil
	}

	var admin models.User
	result := db.Where("email = ?", cfg.FirstAdminEmail).First(&admin)
	if result.Error == nil {
		logger.Info("Admin user already exists, skipping creation", "email", cfg.FirstAdminEmail)
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	hash, err := auth.HashPassword(cfg.FirstAdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	newAdmin := &models.User{
		Email:        cfg.FirstAdminEmail,
		PasswordHash: hash,
		Name:         "Platform Administrator",
		Role:         models.UserRoleAdmin,
		KycStatus:    models.KycStatusNotSubmitted,
	}
	if err := db.Create(newAdmin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("Created first admin user", "email", cfg.FirstAdminEmail)
	return nil
}
