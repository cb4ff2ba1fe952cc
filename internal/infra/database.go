package infra

import (
	"fmt"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx with a bounded
// connection pool. Schema migration is the caller's job (RunMigrations).
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

	return db, nil
}

// RunMigrations creates/updates the schema. Also used by the repository
// integration tests against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.CashSession{},
		&model.Transaction{},
		&model.FinancialSettings{},
		&model.Sale{},
		&model.Installment{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot produce.
// The partial unique index closes the race between two concurrent "open
// session" requests for the same user — the application-level check alone
// is not sufficient under concurrency.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_cash_sessions_open') THEN
		    CREATE UNIQUE INDEX idx_cash_sessions_open
		        ON cash_sessions (clinic_id, user_id)
		        WHERE status = 'open';
		  END IF;
		END $$`,
		// Ledger entries are immutable and frequently summed per session.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_transactions_session_method') THEN
		    CREATE INDEX idx_transactions_session_method
		        ON transactions (session_id, payment_method)
		        WHERE session_id IS NOT NULL;
		  END IF;
		END $$`,
		// Receivables due-date scan for the collections view.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_installments_due_pending') THEN
		    CREATE INDEX idx_installments_due_pending
		        ON installments (clinic_id, due_date)
		        WHERE status = 'pending';
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
