package infra

import (
	"fmt"

	"playzone/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and brings the
// schema up to date (see Migrate).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs AutoMigrate for every table and then the idempotent patches
// GORM cannot express. Integration tests call it on a fresh container.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Device{},
		&model.Session{},
		&model.Product{},
		&model.Sale{},
		&model.Expense{},
		&model.Debt{},
		&model.DailySummary{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// constraintPatch adds a CHECK constraint unless one with that name exists.
func constraintPatch(table, name, check string) string {
	return fmt.Sprintf(`DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
    ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
  END IF;
END $$`, name, table, name, check)
}

// applySchemaPatches runs idempotent DDL: the partial unique index that backs
// the one-active-session-per-device rule and the enumerated-domain checks.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"one active session per device",
			`CREATE UNIQUE INDEX IF NOT EXISTS uq_sessions_active_device
			     ON sessions (device_id) WHERE status = 'active'`},
		{"active sessions lookup",
			`CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions (status) WHERE status = 'active'`},

		{"devices.type", constraintPatch("devices", "chk_devices_type", "type IN ('external','internal','vip')")},
		{"devices.status", constraintPatch("devices", "chk_devices_status", "status IN ('available','occupied','maintenance')")},
		{"devices.rates", constraintPatch("devices", "chk_devices_rates", "hourly_rate >= 0 AND extra_controller_rate >= 0")},

		{"sessions.status", constraintPatch("sessions", "chk_sessions_status", "status IN ('active','completed')")},
		{"sessions.billing_mode", constraintPatch("sessions", "chk_sessions_billing_mode",
			"(billing_mode = 'open' AND scheduled_end IS NULL) OR (billing_mode = 'timed' AND scheduled_end IS NOT NULL)")},
		{"sessions.extra_controllers", constraintPatch("sessions", "chk_sessions_extra_controllers", "extra_controllers >= 0")},
		{"sessions.discount", constraintPatch("sessions", "chk_sessions_discount",
			"discount_percent BETWEEN 0 AND 100 AND final_amount <= total_cost")},
		{"sessions.completed_has_end", constraintPatch("sessions", "chk_sessions_completed_end",
			"status <> 'completed' OR end_time IS NOT NULL")},

		{"products.price_stock", constraintPatch("products", "chk_products_price_stock", "price >= 0 AND stock >= 0")},
		{"products.category", constraintPatch("products", "chk_products_category", "category IN ('market','coffee')")},

		{"sales.quantity", constraintPatch("sales", "chk_sales_quantity", "quantity > 0 AND final_amount <= total_price")},

		{"expenses.amount", constraintPatch("expenses", "chk_expenses_amount", "amount >= 0")},
		{"expenses.category", constraintPatch("expenses", "chk_expenses_category",
			"category IN ('rent','electricity','water','other')")},

		{"debts.status", constraintPatch("debts", "chk_debts_status", "status IN ('pending','paid')")},

		{"users.role", constraintPatch("users", "chk_users_role", "role IN ('admin','staff')")},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
