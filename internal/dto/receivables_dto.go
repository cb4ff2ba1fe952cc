package dto

import "github.com/shopspring/decimal"

// SettleInstallmentRequest records how a receivable was collected.
type SettleInstallmentRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
}

type ReceivableResponse struct {
	ID      string          `json:"id"`
	SaleID  string          `json:"sale_id"`
	Number  int             `json:"number"`
	DueDate string          `json:"due_date"`
	Amount  decimal.Decimal `json:"amount"`
	Status  string          `json:"status"`
}
