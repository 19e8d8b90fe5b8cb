// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ledrent/ledrent-backend/internal/config"
	"github.com/ledrent/ledrent-backend/internal/models"
)

// Initialize opens the connection pool. The handle is returned to the caller and
// injected into the store; nothing keeps it in a package variable.
func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         newLogger(cfg.LogLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Database connection established successfully")
	return db, nil
}

func newLogger(level string) logger.Interface {
	logLevel := logger.Warn
	switch level {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "info":
		logLevel = logger.Info
	}

	return logger.New(logrus.StandardLogger(), logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true,
	})
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	// gen_random_uuid() on Postgres < 13
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Variant{},
		&models.InventoryUnit{},
		&models.Rental{},
		&models.RentalItem{},
		&models.RentalUnitAssignment{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createConstraints(db); err != nil {
		return fmt.Errorf("failed to create constraints: %w", err)
	}

	createIndexes(db)

	logrus.Info("Database migrations completed successfully")
	return nil
}

// createConstraints adds the CHECK constraints AutoMigrate cannot express.
func createConstraints(db *gorm.DB) error {
	constraints := map[string]string{
		"chk_rentals_dates":          "ALTER TABLE rentals ADD CONSTRAINT chk_rentals_dates CHECK (start_date <= end_date)",
		"chk_rental_items_quantity":  "ALTER TABLE rental_items ADD CONSTRAINT chk_rental_items_quantity CHECK (quantity > 0)",
		"chk_rental_items_price":     "ALTER TABLE rental_items ADD CONSTRAINT chk_rental_items_price CHECK (unit_rent_price > 0)",
		"chk_cart_items_quantity":    "ALTER TABLE cart_items ADD CONSTRAINT chk_cart_items_quantity CHECK (quantity > 0)",
		"chk_order_items_quantity":   "ALTER TABLE order_items ADD CONSTRAINT chk_order_items_quantity CHECK (quantity > 0)",
		"chk_inventory_units_status": "ALTER TABLE inventory_units ADD CONSTRAINT chk_inventory_units_status CHECK (status IN ('available','rented','maintenance','damaged','retired'))",
		"chk_rentals_status":         "ALTER TABLE rentals ADD CONSTRAINT chk_rentals_status CHECK (status IN ('pending','confirmed','active','completed','cancelled','returned'))",
	}

	for name, ddl := range constraints {
		var exists int64
		if err := db.Raw("SELECT COUNT(*) FROM pg_constraint WHERE conname = ?", name).Scan(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			continue
		}
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func createIndexes(db *gorm.DB) {
	indexes := []string{
		// Availability lookups
		"CREATE INDEX IF NOT EXISTS idx_assignments_unit_rental ON rental_unit_assignments(inventory_unit_id, rental_id)",
		"CREATE INDEX IF NOT EXISTS idx_rentals_status_dates ON rentals(status, start_date, end_date)",
		"CREATE INDEX IF NOT EXISTS idx_units_variant_status ON inventory_units(variant_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_rental_items_variant_rental ON rental_items(variant_id, rental_id)",

		// Listing
		"CREATE INDEX IF NOT EXISTS idx_products_category_status ON products(category, status)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_rentals_user_created ON rentals(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_payments_purpose ON payments(purpose, purpose_id)",

		// Audit
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",

		// Full-text search
		"CREATE INDEX IF NOT EXISTS idx_products_search ON products USING GIN(to_tsvector('english', name || ' ' || coalesce(description, '')))",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			// Continue with other indexes instead of failing completely
			logrus.WithError(err).WithField("ddl", index).Warn("Failed to create index")
		}
	}
}
