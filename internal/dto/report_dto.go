package dto

import "github.com/shopspring/decimal"

// DREResponse is the management income statement for a period:
// revenue − variable costs = contribution margin − fixed costs = net result.
// Sangria/Suprimento entries are internal drawer transfers and excluded.
type DREResponse struct {
	From               string                     `json:"from"`
	To                 string                     `json:"to"`
	Revenue            decimal.Decimal            `json:"revenue"`
	VariableCosts      decimal.Decimal            `json:"variable_costs"`
	ContributionMargin decimal.Decimal            `json:"contribution_margin"`
	FixedCosts         decimal.Decimal            `json:"fixed_costs"`
	NetResult          decimal.Decimal            `json:"net_result"`
	ExpenseByCategory  map[string]decimal.Decimal `json:"expense_by_category"`
}
