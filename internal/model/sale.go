package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment rails offered at checkout.
const (
	RailSmart  = "smart"  // card / Pix, no markup
	RailBoleto = "boleto" // installment plan (crediário), tier markup applies
)

// Remainder disposition policies for partial payments at the point of sale.
const (
	RemainderReschedule = "reschedule"
	RemainderDiscount   = "discount"
)

// Sale status values.
const (
	SaleConfirmed = "confirmed"
	SaleCancelled = "cancelled"
)

// Sale records a confirmed checkout. The plan fields (total, down payment,
// installments) are the frozen result of the tier/rail simulation the
// operator accepted.
type Sale struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClinicID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	SessionID   *uuid.UUID `gorm:"type:uuid;index"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null"`
	PatientName string     `gorm:"not null"`

	BaseValue        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreditTier       string          `gorm:"type:varchar(1);not null"`
	Rail             string          `gorm:"type:varchar(10);not null"`
	TotalValue       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DownPayment      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	InstallmentCount int             `gorm:"not null"`
	InstallmentValue decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// AmountPaid is what was actually collected at confirmation; when it is
	// below the amount due, RemainderPolicy records how the rest was
	// disposed of.
	AmountPaid      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	RemainderPolicy *string         `gorm:"type:varchar(12)"`

	Status    string `gorm:"type:varchar(12);not null;default:'confirmed'"`
	CreatedAt time.Time

	Installments []Installment `gorm:"foreignKey:SaleID"`
}

// Installment status values.
const (
	InstallmentPending  = "pending"
	InstallmentPaid     = "paid"
	InstallmentForgiven = "forgiven"
)

// Installment is a future-dated receivable created by a boleto plan or by a
// rescheduled partial-payment remainder.
type Installment struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClinicID uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Number   int             `gorm:"not null"`
	DueDate  time.Time       `gorm:"not null"`
	Amount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status   string          `gorm:"type:varchar(12);not null;default:'pending'"`
	CreatedAt time.Time
}
