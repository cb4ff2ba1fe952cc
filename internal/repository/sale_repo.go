package repository

import (
	"context"
	"time"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	DB() *gorm.DB
	CreateTx(tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindInstallmentByID(ctx context.Context, clinicID, id uuid.UUID) (*model.Installment, error)
	ListInstallmentsDue(ctx context.Context, clinicID uuid.UUID, until time.Time) ([]model.Installment, error)
	UpdateInstallmentStatusTx(tx *gorm.DB, id uuid.UUID, status string) error
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

// CreateTx persists the sale together with its installment rows; gorm
// cascades the association inside the caller's transaction.
func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Installments").First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindInstallmentByID is clinic-scoped: an installment from another clinic
// is indistinguishable from a missing one.
func (r *saleRepo) FindInstallmentByID(ctx context.Context, clinicID, id uuid.UUID) (*model.Installment, error) {
	var ins model.Installment
	err := r.db.WithContext(ctx).
		First(&ins, "id = ? AND clinic_id = ?", id, clinicID).Error
	if err != nil {
		return nil, err
	}
	return &ins, nil
}

func (r *saleRepo) ListInstallmentsDue(ctx context.Context, clinicID uuid.UUID, until time.Time) ([]model.Installment, error) {
	var ins []model.Installment
	err := r.db.WithContext(ctx).
		Where("clinic_id = ? AND status = ? AND due_date <= ?", clinicID, model.InstallmentPending, until).
		Order("due_date ASC").
		Find(&ins).Error
	return ins, err
}

func (r *saleRepo) UpdateInstallmentStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return tx.Model(&model.Installment{}).
		Where("id = ?", id).
		Update("status", status).Error
}
