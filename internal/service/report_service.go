package service

import (
	"context"
	"time"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/dto"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/model"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Categories treated as fixed costs in the DRE; everything else on the
// expense side counts as variable.
var fixedCostCategories = map[string]bool{
	"Aluguel":            true,
	"Folha de Pagamento": true,
	"Despesa Fixa":       true,
}

type ReportService interface {
	DRE(ctx context.Context, clinicID uuid.UUID, from, to time.Time) (*dto.DREResponse, error)
}

type reportService struct {
	ledger repository.TransactionRepository
}

func NewReportService(ledger repository.TransactionRepository) ReportService {
	return &reportService{ledger: ledger}
}

// DRE aggregates the period's ledger into the management income statement.
// Sangria and Suprimento are drawer transfers, not P&L, and are skipped.
func (s *reportService) DRE(ctx context.Context, clinicID uuid.UUID, from, to time.Time) (*dto.DREResponse, error) {
	txs, err := s.ledger.ListByPeriod(ctx, clinicID, from, to)
	if err != nil {
		return nil, err
	}

	revenue := decimal.Zero
	variable := decimal.Zero
	fixed := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)

	for _, t := range txs {
		if t.Category == model.CategorySangria || t.Category == model.CategorySuprimento {
			continue
		}
		if t.Status != model.TxPaid {
			continue
		}
		switch t.Type {
		case model.TypeIncome:
			revenue = revenue.Add(t.Amount)
		case model.TypeExpense:
			byCategory[t.Category] = byCategory[t.Category].Add(t.Amount)
			if fixedCostCategories[t.Category] {
				fixed = fixed.Add(t.Amount)
			} else {
				variable = variable.Add(t.Amount)
			}
		}
	}

	margin := revenue.Sub(variable)
	return &dto.DREResponse{
		From:               from.Format("2006-01-02"),
		To:                 to.Format("2006-01-02"),
		Revenue:            revenue,
		VariableCosts:      variable,
		ContributionMargin: margin,
		FixedCosts:         fixed,
		NetResult:          margin.Sub(fixed),
		ExpenseByCategory:  byCategory,
	}, nil
}
