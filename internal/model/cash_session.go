package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session status values. Closed and audit_pending are terminal — further
// activity requires opening a new session.
const (
	SessionOpen         = "open"
	SessionClosed       = "closed"
	SessionAuditPending = "audit_pending"
)

// CashSession represents one register-opening-to-closing working period for
// one user in one clinic. At most one "open" row may exist per
// (clinic_id, user_id); the partial unique index idx_cash_sessions_open
// backs the application-level check.
type CashSession struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClinicID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// CalculatedBalance is derived: opening balance plus cash-equivalent
	// income minus cash-equivalent expense. Card/Pix entries never touch it.
	CalculatedBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status            string          `gorm:"type:varchar(20);not null;default:'open'"`
	OpenedAt          time.Time
	ClosedAt          *time.Time

	// Closing data — written once, by the terminal close.
	DeclaredBalance  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	DeclaredCardPix  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	DifferenceAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	DifferenceReason *string

	Transactions []Transaction `gorm:"foreignKey:SessionID"`
}

// IsTerminal reports whether the session can no longer accept movements.
func (s *CashSession) IsTerminal() bool {
	return s.Status != SessionOpen
}
