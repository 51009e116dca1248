package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"mt5panel/internal/auth"
	"mt5panel/internal/bridge"
	"mt5panel/internal/config"
	"mt5panel/internal/crypto"
	"mt5panel/internal/httpserver"
	"mt5panel/internal/logger"
	"mt5panel/internal/models"
)

func main() {
	_ = godotenv.Load()
	lg := logger.New()
	defer lg.Sync()

	cfg, err := config.Load()
	if err != nil {
		lg.Fatalw("configuration invalid", "error", err)
	}
	cipher, err := crypto.New(cfg.Crypto.Key)
	if err != nil {
		lg.Fatalw("encryption key invalid", "error", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{TranslateError: true})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	// The schema is part of the deployed contract: if migration fails the
	// process stops here instead of degrading per request later.
	if err := db.AutoMigrate(
		&models.User{},
		&models.LinkedAccount{},
		&models.BotConfiguration{},
		&models.Assignment{},
		&models.AuditLog{},
		&models.Session{},
	); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}
	seedDefaultAdmin(db, lg)

	mt5 := bridge.New(cfg.Bridge.URL, cfg.Bridge.Timeout)
	router := httpserver.NewRouter(db, cipher, mt5, cfg.JWT.Secret, lg)
	lg.Infow("listening", "port", cfg.Server.Port)
	if err := http.ListenAndServe(":"+cfg.Server.Port, router); err != nil {
		lg.Fatalw("server stopped", "error", err)
	}
}

func seedDefaultAdmin(db *gorm.DB, lg *zap.SugaredLogger) {
	const email = "admin@mt5panel.local"
	var count int64
	db.Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&count)
	if count > 0 {
		return
	}
	hash, _ := auth.HashPassword("changeme")
	u := models.User{
		Email:        strings.ToLower(email),
		Name:         "Default Admin",
		PasswordHash: hash,
		Role:         models.RoleSuperadmin,
		IsActive:     true,
		IsApproved:   true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(&u).Error; err != nil {
		lg.Warnw("admin seed failed", "error", err)
		return
	}
	lg.Infow("seeded default admin", "email", email)
}
