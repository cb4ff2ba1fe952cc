package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	// OpeningBalance may be negative only when the clinic policy allows it;
	// the range check lives in the service, not here.
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

type MovementRequest struct {
	Type        string          `json:"type"        validate:"required,oneof=sangria suprimento"`
	Amount      decimal.Decimal `json:"amount"      validate:"required,gt=0"`
	Description string          `json:"description" validate:"required,min=3"`
}

type ExpenseRequest struct {
	Description   string          `json:"description"    validate:"required,min=3"`
	Amount        decimal.Decimal `json:"amount"         validate:"required,gt=0"`
	Category      string          `json:"category"       validate:"required,min=2"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
	Date          string          `json:"date"           validate:"omitempty,datetime=2006-01-02"`
}

type CloseSessionRequest struct {
	SessionID        string          `json:"session_id"        validate:"required,uuid"`
	DeclaredCash     decimal.Decimal `json:"declared_cash"     validate:"min=0"`
	DeclaredCardPix  decimal.Decimal `json:"declared_card_pix" validate:"min=0"`
	DifferenceReason *string         `json:"difference_reason"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SessionResponse struct {
	ID                string           `json:"id"`
	Status            string           `json:"status"`
	OpeningBalance    decimal.Decimal  `json:"opening_balance"`
	CalculatedBalance decimal.Decimal  `json:"calculated_balance"`
	OpenedAt          string           `json:"opened_at"`
	ClosedAt          *string          `json:"closed_at,omitempty"`
	DeclaredBalance   *decimal.Decimal `json:"declared_balance,omitempty"`
	DeclaredCardPix   *decimal.Decimal `json:"declared_card_pix,omitempty"`
	DifferenceAmount  *decimal.Decimal `json:"difference_amount,omitempty"`
	DifferenceReason  *string          `json:"difference_reason,omitempty"`
}

// ConferenceResponse feeds the closing wizard. Under blind closing the
// expected totals are withheld — only Blind=true is returned.
type ConferenceResponse struct {
	SessionID       string           `json:"session_id"`
	Blind           bool             `json:"blind"`
	ExpectedCash    *decimal.Decimal `json:"expected_cash,omitempty"`
	ExpectedCardPix *decimal.Decimal `json:"expected_card_pix,omitempty"`
}

// CloseSessionResponse reports the terminal outcome. The discrepancy
// breakdown is withheld from operators under blind closing; gerente and
// administrador always receive it.
type CloseSessionResponse struct {
	SessionID        string           `json:"session_id"`
	Status           string           `json:"status"`
	DifferenceAmount *decimal.Decimal `json:"difference_amount,omitempty"`
	ExpectedCash     *decimal.Decimal `json:"expected_cash,omitempty"`
	ExpectedCardPix  *decimal.Decimal `json:"expected_card_pix,omitempty"`
}

type TransactionResponse struct {
	ID            string          `json:"id"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	Category      string          `json:"category"`
	PaymentMethod string          `json:"payment_method"`
	Date          string          `json:"date"`
	Status        string          `json:"status"`
}

type SessionReportResponse struct {
	Session      SessionResponse       `json:"session"`
	Transactions []TransactionResponse `json:"transactions"`
	ExpectedCash decimal.Decimal       `json:"expected_cash"`
	CardPixTotal decimal.Decimal       `json:"card_pix_total"`
}
