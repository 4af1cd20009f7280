package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chargetracker-backend/config"
	"chargetracker-backend/internal/model"
)

// Open connects to the configured database without migrating.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	level := logger.Warn
	if cfg.LogQueries {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	return db, nil
}

// Init opens the database and brings the schema up to date.
func Init(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	log.Info("running database migrations", zap.String("driver", cfg.Driver))
	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("database initialization complete")
	return db, nil
}

// Migrate creates or updates all tables and the constraints AutoMigrate
// cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Station{},
		&model.Dock{},
		&model.Review{},
		&model.CheckInHistory{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return applyDDL(db)
}

func applyDDL(db *gorm.DB) error {
	ddls := []string{
		// One held dock per user per station.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_docks_occupant_per_station ON docks (station_id, occupant_id) " +
			"WHERE status = '" + string(model.DockInUse) + "'",
		"CREATE INDEX IF NOT EXISTS idx_reviews_station_timestamp ON reviews (station_id, \"timestamp\" DESC)",
	}
	if db.Dialector.Name() == "postgres" {
		ddls = append(ddls,
			"DO $$ BEGIN "+
				"ALTER TABLE check_in_histories ADD CONSTRAINT check_in_histories_period_valid CHECK (period_start <= period_end); "+
				"EXCEPTION WHEN duplicate_object THEN NULL; END $$;",
			"DO $$ BEGIN "+
				"ALTER TABLE reviews ADD CONSTRAINT reviews_rating_range CHECK (rating BETWEEN 1 AND 5); "+
				"EXCEPTION WHEN duplicate_object THEN NULL; END $$;",
		)
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
