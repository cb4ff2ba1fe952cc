package service_test

import (
	"context"
	"time"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/model"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory SessionRepository ──────────────────────────────────────────────

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*model.CashSession

	// createErr, when set, is returned by Create — simulates the partial
	// unique index rejecting a concurrent duplicate open.
	createErr error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*model.CashSession)}
}

func (r *fakeSessionRepo) DB() *gorm.DB { return nil }

func (r *fakeSessionRepo) Create(_ context.Context, s *model.CashSession) error {
	if r.createErr != nil {
		return r.createErr
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *fakeSessionRepo) FindOpenByUser(_ context.Context, clinicID, userID uuid.UUID) (*model.CashSession, error) {
	for _, s := range r.sessions {
		if s.ClinicID == clinicID && s.UserID == userID && s.Status == model.SessionOpen {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) SetCalculatedBalanceTx(_ *gorm.DB, id uuid.UUID, balance decimal.Decimal) error {
	s, ok := r.sessions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.CalculatedBalance = balance
	return nil
}

func (r *fakeSessionRepo) Close(_ context.Context, id uuid.UUID, data repository.SessionCloseData) error {
	s, ok := r.sessions[id]
	if !ok || s.Status != model.SessionOpen {
		return gorm.ErrRecordNotFound
	}
	closedAt := data.ClosedAt
	s.Status = data.Status
	s.ClosedAt = &closedAt
	s.DeclaredBalance = &data.DeclaredBalance
	s.DeclaredCardPix = &data.DeclaredCardPix
	s.DifferenceAmount = &data.DifferenceAmount
	s.DifferenceReason = data.DifferenceReason
	return nil
}

func (r *fakeSessionRepo) ListTerminal(_ context.Context, clinicID uuid.UUID, page, limit int) ([]model.CashSession, int64, error) {
	var all []model.CashSession
	for _, s := range r.sessions {
		if s.ClinicID == clinicID && s.Status != model.SessionOpen {
			all = append(all, *s)
		}
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

var _ repository.SessionRepository = (*fakeSessionRepo)(nil)

// ── In-memory TransactionRepository ──────────────────────────────────────────

type fakeLedgerRepo struct {
	entries []model.Transaction
}

func (r *fakeLedgerRepo) Create(_ context.Context, t *model.Transaction) error {
	return r.CreateTx(nil, t)
}

func (r *fakeLedgerRepo) CreateTx(_ *gorm.DB, t *model.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	r.entries = append(r.entries, *t)
	return nil
}

func (r *fakeLedgerRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, t := range r.entries {
		if t.SessionID != nil && *t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) SumBySessionMethod(_ context.Context, sessionID uuid.UUID) (map[model.PaymentMethod]decimal.Decimal, error) {
	return r.SumBySessionMethodTx(nil, sessionID)
}

func (r *fakeLedgerRepo) SumBySessionMethodTx(_ *gorm.DB, sessionID uuid.UUID) (map[model.PaymentMethod]decimal.Decimal, error) {
	sums := make(map[model.PaymentMethod]decimal.Decimal)
	for i := range r.entries {
		t := &r.entries[i]
		if t.SessionID == nil || *t.SessionID != sessionID {
			continue
		}
		sums[t.PaymentMethod] = sums[t.PaymentMethod].Add(t.SignedAmount())
	}
	return sums, nil
}

func (r *fakeLedgerRepo) ListByPeriod(_ context.Context, clinicID uuid.UUID, from, to time.Time) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, t := range r.entries {
		if t.ClinicID == clinicID && !t.Date.Before(from) && t.Date.Before(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) FindByID(_ context.Context, clinicID, id uuid.UUID) (*model.Transaction, error) {
	for i := range r.entries {
		if r.entries[i].ID == id && r.entries[i].ClinicID == clinicID {
			t := r.entries[i]
			return &t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeLedgerRepo) UpdateStatus(_ context.Context, clinicID, id uuid.UUID, status string) error {
	for i := range r.entries {
		if r.entries[i].ID == id && r.entries[i].ClinicID == clinicID {
			r.entries[i].Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

var _ repository.TransactionRepository = (*fakeLedgerRepo)(nil)

// ── In-memory SettingsRepository ─────────────────────────────────────────────

type fakeSettingsRepo struct {
	byClinic map[uuid.UUID]*model.FinancialSettings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{byClinic: make(map[uuid.UUID]*model.FinancialSettings)}
}

func (r *fakeSettingsRepo) Get(_ context.Context, clinicID uuid.UUID) (*model.FinancialSettings, error) {
	if s, ok := r.byClinic[clinicID]; ok {
		return s, nil
	}
	return model.DefaultFinancialSettings(clinicID), nil
}

func (r *fakeSettingsRepo) Upsert(_ context.Context, s *model.FinancialSettings) error {
	r.byClinic[s.ClinicID] = s
	return nil
}

var _ repository.SettingsRepository = (*fakeSettingsRepo)(nil)

// ── In-memory SaleRepository ─────────────────────────────────────────────────

type fakeSaleRepo struct {
	sales map[uuid.UUID]*model.Sale
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *fakeSaleRepo) DB() *gorm.DB { return nil }

func (r *fakeSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for i := range s.Installments {
		if s.Installments[i].ID == uuid.Nil {
			s.Installments[i].ID = uuid.New()
		}
		s.Installments[i].SaleID = s.ID
	}
	r.sales[s.ID] = s
	return nil
}

func (r *fakeSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *fakeSaleRepo) FindInstallmentByID(_ context.Context, clinicID, id uuid.UUID) (*model.Installment, error) {
	for _, s := range r.sales {
		if s.ClinicID != clinicID {
			continue
		}
		for i := range s.Installments {
			if s.Installments[i].ID == id {
				ins := s.Installments[i]
				return &ins, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSaleRepo) ListInstallmentsDue(_ context.Context, clinicID uuid.UUID, until time.Time) ([]model.Installment, error) {
	var out []model.Installment
	for _, s := range r.sales {
		if s.ClinicID != clinicID {
			continue
		}
		for _, ins := range s.Installments {
			if ins.Status == model.InstallmentPending && !ins.DueDate.After(until) {
				out = append(out, ins)
			}
		}
	}
	return out, nil
}

func (r *fakeSaleRepo) UpdateInstallmentStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	for _, s := range r.sales {
		for i := range s.Installments {
			if s.Installments[i].ID == id {
				s.Installments[i].Status = status
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

var _ repository.SaleRepository = (*fakeSaleRepo)(nil)
