package infra

import (
	"fmt"

	"github.com/RatanSinghYadav/scheme-app-api/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection to Postgres, runs AutoMigrate for
// every model, then applies the idempotent SQL patches GORM cannot express.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
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

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates / updates all tables and applies schema patches.
// Safe to call repeatedly; integration tests call it on a fresh container.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Distributor{},
		&model.Scheme{},
		&model.SchemeProduct{},
		&model.SchemeHistory{},
		&model.FilterPreset{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL statements that AutoMigrate cannot
// express. Each statement is guarded so re-running is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"history append-only trigger", `
CREATE OR REPLACE FUNCTION scheme_histories_append_only() RETURNS trigger AS $$
BEGIN
  IF TG_OP = 'UPDATE' THEN
    RAISE EXCEPTION 'scheme_histories is append-only';
  END IF;
  RETURN NEW;
END $$ LANGUAGE plpgsql`},
		{"attach history trigger", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_scheme_histories_append_only') THEN
    CREATE TRIGGER trg_scheme_histories_append_only
      BEFORE UPDATE ON scheme_histories
      FOR EACH ROW EXECUTE FUNCTION scheme_histories_append_only();
  END IF;
END $$`},
		{"scheme distributors gin index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_schemes_distributors') THEN
    CREATE INDEX idx_schemes_distributors ON schemes USING GIN (distributors);
  END IF;
END $$`},
		{"scheme date range check", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_schemes_date_range') THEN
    ALTER TABLE schemes ADD CONSTRAINT chk_schemes_date_range CHECK (end_date >= start_date);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
