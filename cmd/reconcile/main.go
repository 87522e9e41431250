package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"studwork_backend/database"
	"studwork_backend/internal/config"
	"studwork_backend/internal/logger"
	"studwork_backend/internal/repositories"
	"studwork_backend/internal/services"
)

// One-shot reconciliation pass for operators: connects, repairs drift,
// prints the summary and exits. The same pass runs periodically inside the
// web process.
func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)

	gormDB, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	userRepo := repositories.NewUserRepository(gormDB)
	verificationRepo := repositories.NewVerificationRepository(gormDB)
	auditRepo := repositories.NewAuditRepository(gormDB)

	// No gateway and no notifier: repair is flags-only and must not emit
	// subject-facing notifications.
	verificationService := services.NewVerificationService(
		gormDB, userRepo, verificationRepo, auditRepo, nil, nil)
	reconciliationService := services.NewReconciliationService(
		gormDB, userRepo, verificationService, auditRepo,
		cfg.Reconciliation.BatchSize, cfg.Reconciliation.Workers)

	summary, err := reconciliationService.Run(context.Background())
	if err != nil {
		logger.Error("Reconciliation failed", "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode summary", "error", err)
	}
	fmt.Println(string(out))

	if len(summary.Errors) > 0 {
		os.Exit(1)
	}
}
