package service

import (
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/model"

	"github.com/shopspring/decimal"
)

// Policy is the single evaluation point for the clinic's financial flags.
// Handlers and services ask the policy, never the raw settings row, so the
// branching stays in one place.
type Policy struct {
	settings *model.FinancialSettings
}

func NewPolicy(settings *model.FinancialSettings) *Policy {
	return &Policy{settings: settings}
}

// AllowsOpeningBalance rejects negative opening balances unless the clinic
// explicitly allows them.
func (p *Policy) AllowsOpeningBalance(balance decimal.Decimal) bool {
	if balance.IsNegative() {
		return p.settings.AllowNegativeBalance
	}
	return true
}

// RequiresOpenSession reports whether cash-writing operations must be
// refused when no session is open. This is a hard precondition, not a
// warning.
func (p *Policy) RequiresOpenSession() bool {
	return p.settings.ForceCashOpening
}

// BlindClosing reports whether expected totals are withheld from the
// operator during the closing conference.
func (p *Policy) BlindClosing() bool {
	return p.settings.BlindClosing
}

// ShowsDiscrepancy reports whether the given role may see the closing
// discrepancy breakdown. Under blind closing only gerente/administrador see
// it, post-closing.
func (p *Policy) ShowsDiscrepancy(role string) bool {
	if !p.settings.BlindClosing {
		return true
	}
	return role == model.RoleGerente || role == model.RoleAdministrador
}

// WithinTolerance classifies a closing difference against the clinic
// threshold. The boundary is inclusive: |diff| equal to the threshold still
// closes cleanly.
func (p *Policy) WithinTolerance(difference decimal.Decimal) bool {
	return difference.Abs().LessThanOrEqual(p.settings.MaxDifferenceWithoutApproval)
}

// DefaultChangeFund is the suggested opening balance.
func (p *Policy) DefaultChangeFund() decimal.Decimal {
	return p.settings.DefaultChangeFund
}
