package db

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"parking-service/internal/config"
	"parking-service/internal/model"
)

// New opens the Postgres connection, applies pool settings and runs
// migrations.
func New(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	if cfg.Environment != "production" {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	database, err := gorm.Open(postgres.Open(cfg.DB.DSN), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.DB.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	}
	if cfg.DB.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	}
	if cfg.DB.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	}

	log.Info().Msg("running database migrations")
	if err := Migrate(database); err != nil {
		return nil, err
	}

	return database, nil
}

// Migrate creates the schema and supplementary indexes.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&model.Zone{},
		&model.Detection{},
		&model.VehicleLog{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	for i, stmt := range migrationStatements {
		if err := database.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Postgres-only DDL that AutoMigrate cannot express. Zone names must be
// unique among active rows only; soft-deleted names may be reused.
var migrationStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_parking_zones_active_name
		ON parking_zones (name) WHERE is_active;`,
	`CREATE INDEX IF NOT EXISTS idx_detections_processed_detected_at
		ON detections (processed, detected_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicle_logs_open
		ON vehicle_logs (zone_id) WHERE exit_at IS NULL;`,
}
