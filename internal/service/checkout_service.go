package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/apierror"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/dto"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/model"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// tierProfile holds the credit-policy knobs per risk tier. The boleto rail
// carries the markup; smart (card/Pix) never does.
type tierProfile struct {
	BoletoMarkupPct   decimal.Decimal
	BoletoMaxInstall  int
	MinDownPct        decimal.Decimal
	GuarantorRequired bool
	BoletoAvailable   bool
}

const smartMaxInstallments = 12

var tierProfiles = map[string]tierProfile{
	"A": {BoletoMarkupPct: decimal.Zero, BoletoMaxInstall: 12, MinDownPct: decimal.Zero, GuarantorRequired: false, BoletoAvailable: true},
	"B": {BoletoMarkupPct: decimal.NewFromInt(5), BoletoMaxInstall: 10, MinDownPct: decimal.NewFromInt(10), GuarantorRequired: false, BoletoAvailable: true},
	"C": {BoletoMarkupPct: decimal.NewFromInt(10), BoletoMaxInstall: 6, MinDownPct: decimal.NewFromInt(20), GuarantorRequired: true, BoletoAvailable: true},
	"D": {BoletoAvailable: false},
}

type CheckoutService interface {
	Simulate(req dto.SimulatePlanRequest) (*dto.PlanResponse, error)
	Confirm(ctx context.Context, clinicID, userID uuid.UUID, req dto.ConfirmSaleRequest) (*dto.SaleResponse, error)
}

type checkoutService struct {
	sales repository.SaleRepository
	caixa CaixaService
}

func NewCheckoutService(sales repository.SaleRepository, caixa CaixaService) CheckoutService {
	return &checkoutService{sales: sales, caixa: caixa}
}

// ── Simulate ─────────────────────────────────────────────────────────────────
// Pure plan arithmetic. Installment count and down payment are clamped to
// the tier bounds on EVERY call — stale UI state can never produce an
// out-of-policy plan.

func (s *checkoutService) Simulate(req dto.SimulatePlanRequest) (*dto.PlanResponse, error) {
	profile, ok := tierProfiles[req.CreditTier]
	if !ok {
		return nil, apierror.Invalid("perfil de crédito desconhecido: " + req.CreditTier)
	}
	if req.Rail == model.RailBoleto && !profile.BoletoAvailable {
		return nil, apierror.Invalid("crediário indisponível para o perfil D — apenas cartão/Pix")
	}

	var total decimal.Decimal
	var maxInstall int
	var minDownPct decimal.Decimal
	guarantor := false

	switch req.Rail {
	case model.RailSmart:
		total = req.BaseValue
		maxInstall = smartMaxInstallments
		minDownPct = decimal.Zero
	case model.RailBoleto:
		hundred := decimal.NewFromInt(100)
		total = req.BaseValue.
			Mul(hundred.Add(profile.BoletoMarkupPct)).
			Div(hundred).
			Round(2)
		maxInstall = profile.BoletoMaxInstall
		minDownPct = profile.MinDownPct
		guarantor = profile.GuarantorRequired
	default:
		return nil, apierror.Invalid("modalidade de pagamento desconhecida: " + req.Rail)
	}

	count := clampInt(req.InstallmentCount, 1, maxInstall)
	minDown := total.Mul(minDownPct).Div(decimal.NewFromInt(100)).Round(2)

	down := minDown
	if req.DownPayment != nil {
		down = *req.DownPayment
	}
	down = clampDecimal(down, minDown, total)

	// Split (total − down) across count installments; the last one absorbs
	// the rounding remainder so the plan reconstructs the total exactly.
	financed := total.Sub(down)
	per := financed.Div(decimal.NewFromInt(int64(count))).RoundDown(2)
	last := financed.Sub(per.Mul(decimal.NewFromInt(int64(count - 1))))

	return &dto.PlanResponse{
		CreditTier:        req.CreditTier,
		Rail:              req.Rail,
		TotalValue:        total,
		DownPayment:       down,
		InstallmentCount:  count,
		InstallmentValue:  per,
		LastInstallment:   last,
		MaxInstallments:   maxInstall,
		MinDownPayment:    minDown,
		GuarantorRequired: guarantor,
	}, nil
}

// ── Confirm ──────────────────────────────────────────────────────────────────
// Sale + ledger entry + installments in ONE transaction. A sale can never be
// confirmed while a positive remainder is left undisposed.

func (s *checkoutService) Confirm(ctx context.Context, clinicID, userID uuid.UUID, req dto.ConfirmSaleRequest) (*dto.SaleResponse, error) {
	method := model.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		return nil, apierror.Invalid("forma de pagamento desconhecida: " + req.PaymentMethod)
	}
	if req.AmountPaid.IsNegative() {
		return nil, apierror.Invalid("o valor recebido não pode ser negativo")
	}

	plan, err := s.Simulate(dto.SimulatePlanRequest{
		BaseValue:        req.BaseValue,
		CreditTier:       req.CreditTier,
		Rail:             req.Rail,
		InstallmentCount: req.InstallmentCount,
		DownPayment:      req.DownPayment,
	})
	if err != nil {
		return nil, err
	}

	// Amount due at the point of sale: the down payment on a boleto plan,
	// the full value on smart (the card operator finances installments).
	dueNow := plan.TotalValue
	if req.Rail == model.RailBoleto {
		dueNow = plan.DownPayment
	}
	if req.AmountPaid.GreaterThan(dueNow) {
		return nil, apierror.Invalid("valor recebido maior que o devido no ato")
	}

	remainder := dueNow.Sub(req.AmountPaid)
	var rescheduleDate time.Time
	if remainder.IsPositive() {
		if req.RemainderPolicy == nil {
			return nil, apierror.Invalid("há saldo remanescente — escolha reagendar ou conceder desconto")
		}
		if *req.RemainderPolicy == model.RemainderReschedule {
			if req.RescheduleDate == nil {
				return nil, apierror.Invalid("o reagendamento exige uma data futura")
			}
			rescheduleDate, err = time.Parse("2006-01-02", *req.RescheduleDate)
			if err != nil {
				return nil, apierror.Invalid("data de reagendamento inválida, use AAAA-MM-DD")
			}
			if !rescheduleDate.After(time.Now()) {
				return nil, apierror.Invalid("a data de reagendamento deve ser futura")
			}
		}
	}

	// Precondition: payment capture is a cash-writing operation — the
	// force_cash_opening policy applies uniformly here.
	var session *model.CashSession
	if req.AmountPaid.IsPositive() {
		session, err = s.caixa.RequireOpenSession(ctx, clinicID, userID)
		if err != nil {
			return nil, err
		}
	}

	sale := &model.Sale{
		ClinicID:         clinicID,
		UserID:           userID,
		PatientName:      req.PatientName,
		BaseValue:        req.BaseValue,
		CreditTier:       req.CreditTier,
		Rail:             req.Rail,
		TotalValue:       plan.TotalValue,
		DownPayment:      plan.DownPayment,
		InstallmentCount: plan.InstallmentCount,
		InstallmentValue: plan.InstallmentValue,
		AmountPaid:       req.AmountPaid,
		RemainderPolicy:  req.RemainderPolicy,
		Status:           model.SaleConfirmed,
	}
	if session != nil {
		sessionID := session.ID
		sale.SessionID = &sessionID
	}

	// Boleto plans become monthly receivables starting next month.
	if req.Rail == model.RailBoleto {
		firstDue := time.Now().AddDate(0, 1, 0)
		for i := 1; i <= plan.InstallmentCount; i++ {
			amount := plan.InstallmentValue
			if i == plan.InstallmentCount {
				amount = plan.LastInstallment
			}
			sale.Installments = append(sale.Installments, model.Installment{
				ClinicID: clinicID,
				Number:   i,
				DueDate:  firstDue.AddDate(0, i-1, 0),
				Amount:   amount,
				Status:   model.InstallmentPending,
			})
		}
	}
	if remainder.IsPositive() && req.RemainderPolicy != nil && *req.RemainderPolicy == model.RemainderReschedule {
		sale.Installments = append(sale.Installments, model.Installment{
			ClinicID: clinicID,
			Number:   len(sale.Installments) + 1,
			DueDate:  rescheduleDate,
			Amount:   remainder,
			Status:   model.InstallmentPending,
		})
	}

	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		if err := s.sales.CreateTx(tx, sale); err != nil {
			return err
		}
		if !req.AmountPaid.IsPositive() {
			return nil
		}
		saleRef := sale.ID
		sessionIDPtr := sale.SessionID
		entry := &model.Transaction{
			ClinicID:      clinicID,
			SessionID:     sessionIDPtr,
			Description:   fmt.Sprintf("Recebimento — %s", req.PatientName),
			Amount:        req.AmountPaid,
			Type:          model.TypeIncome,
			Category:      "Recebimento",
			PaymentMethod: method,
			Date:          time.Now(),
			Status:        model.TxPaid,
			ReferenceID:   &saleRef,
		}
		return s.caixa.ApplyLedgerEntryTx(tx, session, entry)
	})
	if txErr != nil {
		return nil, txErr
	}

	return saleToResponse(sale, plan), nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampDecimal(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

func saleToResponse(sale *model.Sale, plan *dto.PlanResponse) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:              sale.ID.String(),
		PatientName:     sale.PatientName,
		Plan:            *plan,
		AmountPaid:      sale.AmountPaid,
		RemainderPolicy: sale.RemainderPolicy,
		Status:          sale.Status,
	}
	for _, ins := range sale.Installments {
		resp.Installments = append(resp.Installments, dto.InstallmentResponse{
			ID:      ins.ID.String(),
			Number:  ins.Number,
			DueDate: ins.DueDate.Format("2006-01-02"),
			Amount:  ins.Amount,
			Status:  ins.Status,
		})
	}
	return resp
}
