package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/apierror"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/dto"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/model"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReceivablesService is the collections view over the installments created
// at checkout: list what is due, settle a payment into the ledger, or
// forgive the installment.
type ReceivablesService interface {
	ListDue(ctx context.Context, clinicID uuid.UUID, until time.Time) ([]dto.ReceivableResponse, error)
	Settle(ctx context.Context, clinicID, userID, installmentID uuid.UUID, req dto.SettleInstallmentRequest) error
	Forgive(ctx context.Context, clinicID, installmentID uuid.UUID) error
}

type receivablesService struct {
	sales repository.SaleRepository
	caixa CaixaService
}

func NewReceivablesService(sales repository.SaleRepository, caixa CaixaService) ReceivablesService {
	return &receivablesService{sales: sales, caixa: caixa}
}

func (s *receivablesService) ListDue(ctx context.Context, clinicID uuid.UUID, until time.Time) ([]dto.ReceivableResponse, error) {
	installments, err := s.sales.ListInstallmentsDue(ctx, clinicID, until)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReceivableResponse, 0, len(installments))
	for _, ins := range installments {
		out = append(out, dto.ReceivableResponse{
			ID:      ins.ID.String(),
			SaleID:  ins.SaleID.String(),
			Number:  ins.Number,
			DueDate: ins.DueDate.Format("2006-01-02"),
			Amount:  ins.Amount,
			Status:  ins.Status,
		})
	}
	return out, nil
}

// Settle flips the installment to paid and writes the income ledger entry in
// ONE transaction — a receivable can never be marked paid without the money
// showing up in the ledger, nor the other way around.
func (s *receivablesService) Settle(ctx context.Context, clinicID, userID, installmentID uuid.UUID, req dto.SettleInstallmentRequest) error {
	method := model.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		return apierror.Invalid("forma de pagamento desconhecida: " + req.PaymentMethod)
	}

	ins, err := s.findPending(ctx, clinicID, installmentID)
	if err != nil {
		return err
	}

	sale, err := s.sales.FindByID(ctx, ins.SaleID)
	if err != nil {
		return err
	}

	var session *model.CashSession
	if method.AffectsDrawer() {
		session, err = s.caixa.RequireOpenSession(ctx, clinicID, userID)
		if err != nil {
			return err
		}
	}

	insID := ins.ID
	entry := &model.Transaction{
		ClinicID:      clinicID,
		Description:   fmt.Sprintf("Recebimento de parcela %d — %s", ins.Number, sale.PatientName),
		Amount:        ins.Amount,
		Type:          model.TypeIncome,
		Category:      "Recebimento",
		PaymentMethod: method,
		Date:          time.Now(),
		Status:        model.TxPaid,
		ReferenceID:   &insID,
	}
	if session != nil {
		sessionID := session.ID
		entry.SessionID = &sessionID
	}

	return runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		if err := s.sales.UpdateInstallmentStatusTx(tx, ins.ID, model.InstallmentPaid); err != nil {
			return err
		}
		return s.caixa.ApplyLedgerEntryTx(tx, session, entry)
	})
}

// Forgive writes off the receivable. No ledger entry: forgiven installments
// never count as revenue.
func (s *receivablesService) Forgive(ctx context.Context, clinicID, installmentID uuid.UUID) error {
	ins, err := s.findPending(ctx, clinicID, installmentID)
	if err != nil {
		return err
	}
	return runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		return s.sales.UpdateInstallmentStatusTx(tx, ins.ID, model.InstallmentForgiven)
	})
}

func (s *receivablesService) findPending(ctx context.Context, clinicID, installmentID uuid.UUID) (*model.Installment, error) {
	ins, err := s.sales.FindInstallmentByID(ctx, clinicID, installmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.Missing("parcela não encontrada")
		}
		return nil, err
	}
	if ins.Status != model.InstallmentPending {
		return nil, apierror.Blocked("a parcela já foi baixada")
	}
	return ins, nil
}
