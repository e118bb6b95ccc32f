package database

import (
	"fmt"
	"time"

	"estoque-backend/internal/config"
	"estoque-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres, sizes the pool and migrates the schema.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	gormLogLevel := logger.Warn
	if cfg.Env != "production" {
		gormLogLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if cfg.UsesDefaultDSN() {
		log.Warn("DATABASE_DSN not set, using the local development database")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("database connected, migrations applied")
	return db, nil
}

// Migrate creates or updates every table. Order matters: facts reference dimproduto.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Product{},
		&models.User{},
		&models.Receipt{},
		&models.Issue{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// quantities are positive; the admission check relies on it
	checks := []string{
		`DO $$ BEGIN
			ALTER TABLE factrecebimento ADD CONSTRAINT chk_factrecebimento_quant CHECK (quant > 0);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
		`DO $$ BEGIN
			ALTER TABLE factsaidas ADD CONSTRAINT chk_factsaidas_quant CHECK (quant > 0);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	}
	for _, stmt := range checks {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("adding check constraint: %w", err)
		}
	}
	return nil
}
