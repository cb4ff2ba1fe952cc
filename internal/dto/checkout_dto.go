package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// SimulatePlanRequest drives the tier/rail simulator. InstallmentCount and
// DownPayment are operator adjustments; the service clamps them to the
// tier's bounds on every call, not only on tier change.
type SimulatePlanRequest struct {
	BaseValue        decimal.Decimal  `json:"base_value"        validate:"required,gt=0"`
	CreditTier       string           `json:"credit_tier"       validate:"required,oneof=A B C D"`
	Rail             string           `json:"rail"              validate:"required,oneof=smart boleto"`
	InstallmentCount int              `json:"installment_count" validate:"omitempty,min=1"`
	DownPayment      *decimal.Decimal `json:"down_payment"      validate:"omitempty"`
}

type ConfirmSaleRequest struct {
	PatientName string `json:"patient_name" validate:"required,min=2"`

	BaseValue        decimal.Decimal  `json:"base_value"        validate:"required,gt=0"`
	CreditTier       string           `json:"credit_tier"       validate:"required,oneof=A B C D"`
	Rail             string           `json:"rail"              validate:"required,oneof=smart boleto"`
	InstallmentCount int              `json:"installment_count" validate:"omitempty,min=1"`
	DownPayment      *decimal.Decimal `json:"down_payment"      validate:"omitempty"`

	// AmountPaid is what the operator actually collected now.
	AmountPaid    decimal.Decimal `json:"amount_paid"    validate:"min=0"`
	PaymentMethod string          `json:"payment_method" validate:"required"`

	// Mandatory when AmountPaid is below the amount due now.
	RemainderPolicy *string `json:"remainder_policy" validate:"omitempty,oneof=reschedule discount"`
	RescheduleDate  *string `json:"reschedule_date"  validate:"omitempty,datetime=2006-01-02"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PlanResponse struct {
	CreditTier        string          `json:"credit_tier"`
	Rail              string          `json:"rail"`
	TotalValue        decimal.Decimal `json:"total_value"`
	DownPayment       decimal.Decimal `json:"down_payment"`
	InstallmentCount  int             `json:"installment_count"`
	InstallmentValue  decimal.Decimal `json:"installment_value"`
	LastInstallment   decimal.Decimal `json:"last_installment"`
	MaxInstallments   int             `json:"max_installments"`
	MinDownPayment    decimal.Decimal `json:"min_down_payment"`
	GuarantorRequired bool            `json:"guarantor_required"`
}

type InstallmentResponse struct {
	ID      string          `json:"id"`
	Number  int             `json:"number"`
	DueDate string          `json:"due_date"`
	Amount  decimal.Decimal `json:"amount"`
	Status  string          `json:"status"`
}

type SaleResponse struct {
	ID              string                `json:"id"`
	PatientName     string                `json:"patient_name"`
	Plan            PlanResponse          `json:"plan"`
	AmountPaid      decimal.Decimal       `json:"amount_paid"`
	RemainderPolicy *string               `json:"remainder_policy,omitempty"`
	Status          string                `json:"status"`
	Installments    []InstallmentResponse `json:"installments"`
}
