package dto

import "github.com/shopspring/decimal"

type FinancialSettingsRequest struct {
	ForceCashOpening             bool            `json:"force_cash_opening"`
	ForceDailyClosing            bool            `json:"force_daily_closing"`
	AllowNegativeBalance         bool            `json:"allow_negative_balance"`
	BlindClosing                 bool            `json:"blind_closing"`
	DefaultChangeFund            decimal.Decimal `json:"default_change_fund"             validate:"min=0"`
	MaxDifferenceWithoutApproval decimal.Decimal `json:"max_difference_without_approval" validate:"min=0"`
}

type FinancialSettingsResponse struct {
	ClinicID                     string          `json:"clinic_id"`
	ForceCashOpening             bool            `json:"force_cash_opening"`
	ForceDailyClosing            bool            `json:"force_daily_closing"`
	AllowNegativeBalance         bool            `json:"allow_negative_balance"`
	BlindClosing                 bool            `json:"blind_closing"`
	DefaultChangeFund            decimal.Decimal `json:"default_change_fund"`
	MaxDifferenceWithoutApproval decimal.Decimal `json:"max_difference_without_approval"`
}
