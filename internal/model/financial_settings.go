package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinancialSettings is the per-clinic financial policy singleton. Loaded
// once per request path (Redis-cached) and treated as read-mostly
// configuration.
type FinancialSettings struct {
	ClinicID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ForceCashOpening     bool      `gorm:"not null;default:true"`
	ForceDailyClosing    bool      `gorm:"not null;default:true"`
	AllowNegativeBalance bool      `gorm:"not null;default:false"`
	// BlindClosing hides system-expected totals from the operator until the
	// declared count is captured.
	BlindClosing     bool            `gorm:"not null;default:false"`
	DefaultChangeFund decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// MaxDifferenceWithoutApproval is the closing discrepancy tolerance;
	// beyond it the session lands in audit_pending.
	MaxDifferenceWithoutApproval decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	UpdatedAt                    time.Time
}

// DefaultFinancialSettings returns the policy applied to clinics that have
// never saved one.
func DefaultFinancialSettings(clinicID uuid.UUID) *FinancialSettings {
	return &FinancialSettings{
		ClinicID:                     clinicID,
		ForceCashOpening:             true,
		ForceDailyClosing:            true,
		AllowNegativeBalance:         false,
		BlindClosing:                 false,
		DefaultChangeFund:            decimal.NewFromInt(100),
		MaxDifferenceWithoutApproval: decimal.NewFromInt(50),
	}
}
