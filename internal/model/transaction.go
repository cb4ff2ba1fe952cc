package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is a closed enumeration. Reconciliation sums by method, so
// free-text methods are rejected at the boundary — a typo would silently
// exclude rows from the drawer count.
type PaymentMethod string

const (
	MethodDinheiro      PaymentMethod = "Dinheiro"
	MethodPix           PaymentMethod = "Pix"
	MethodCartaoCredito PaymentMethod = "Cartão de Crédito"
	MethodCartaoDebito  PaymentMethod = "Cartão de Débito"
	MethodBoleto        PaymentMethod = "Boleto"
	MethodTransferencia PaymentMethod = "Transferência"
)

// IsValid reports whether m is one of the enumerated methods.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodDinheiro, MethodPix, MethodCartaoCredito, MethodCartaoDebito,
		MethodBoleto, MethodTransferencia:
		return true
	}
	return false
}

// AffectsDrawer reports whether the method moves physical cash. Only
// Dinheiro changes the drawer balance; card and Pix receipts are reconciled
// separately at closing.
func (m PaymentMethod) AffectsDrawer() bool {
	return m == MethodDinheiro
}

// IsCardOrPix groups the methods conferred in closing step one.
func (m PaymentMethod) IsCardOrPix() bool {
	return m == MethodPix || m == MethodCartaoCredito || m == MethodCartaoDebito
}

// Transaction direction.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Reserved categories for manual cash movements.
const (
	CategorySangria    = "Sangria"
	CategorySuprimento = "Suprimento"
)

// Transaction status values.
const (
	TxPaid    = "paid"
	TxPending = "pending"
)

// Transaction is an append-only ledger entry. Amount is always positive;
// direction lives in Type. Rows are never updated after creation except for
// status transitions, and never deleted.
type Transaction struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClinicID uuid.UUID `gorm:"type:uuid;not null;index"`
	// SessionID is nil for entries outside the register (e.g. boleto
	// receivables settled at the bank).
	SessionID     *uuid.UUID      `gorm:"type:uuid;index"`
	Description   string          `gorm:"not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Type          string          `gorm:"type:varchar(10);not null"`
	Category      string          `gorm:"type:varchar(40);not null"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(30);not null"`
	Date          time.Time       `gorm:"not null"`
	Status        string          `gorm:"type:varchar(20);not null;default:'paid'"`
	// ReferenceID links back to the originating sale or installment.
	ReferenceID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time
}

// SignedAmount returns the amount with the direction applied.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}
