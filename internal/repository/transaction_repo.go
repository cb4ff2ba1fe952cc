package repository

import (
	"context"
	"time"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(ctx context.Context, t *model.Transaction) error
	CreateTx(tx *gorm.DB, t *model.Transaction) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Transaction, error)
	// SumBySessionMethod returns net movement (income − expense) per payment
	// method for one session. Methods with no entries are absent.
	SumBySessionMethod(ctx context.Context, sessionID uuid.UUID) (map[model.PaymentMethod]decimal.Decimal, error)
	SumBySessionMethodTx(tx *gorm.DB, sessionID uuid.UUID) (map[model.PaymentMethod]decimal.Decimal, error)
	ListByPeriod(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]model.Transaction, error)
	FindByID(ctx context.Context, clinicID, id uuid.UUID) (*model.Transaction, error)
	UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, status string) error
}

type transactionRepo struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) Create(ctx context.Context, t *model.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *transactionRepo) CreateTx(tx *gorm.DB, t *model.Transaction) error {
	return tx.Create(t).Error
}

func (r *transactionRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&txs).Error
	return txs, err
}

type methodSum struct {
	PaymentMethod model.PaymentMethod
	Net           decimal.Decimal
}

func (r *transactionRepo) SumBySessionMethod(ctx context.Context, sessionID uuid.UUID) (map[model.PaymentMethod]decimal.Decimal, error) {
	return sumBySessionMethod(r.db.WithContext(ctx), sessionID)
}

func (r *transactionRepo) SumBySessionMethodTx(tx *gorm.DB, sessionID uuid.UUID) (map[model.PaymentMethod]decimal.Decimal, error) {
	return sumBySessionMethod(tx, sessionID)
}

func sumBySessionMethod(db *gorm.DB, sessionID uuid.UUID) (map[model.PaymentMethod]decimal.Decimal, error) {
	var rows []methodSum
	err := db.Model(&model.Transaction{}).
		Select(`payment_method, SUM(CASE WHEN type = 'expense' THEN -amount ELSE amount END) AS net`).
		Where("session_id = ?", sessionID).
		Group("payment_method").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	sums := make(map[model.PaymentMethod]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.PaymentMethod] = row.Net
	}
	return sums, nil
}

func (r *transactionRepo) ListByPeriod(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := r.db.WithContext(ctx).
		Where("clinic_id = ? AND date >= ? AND date < ?", clinicID, from, to).
		Order("date ASC").
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepo) FindByID(ctx context.Context, clinicID, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	err := r.db.WithContext(ctx).
		First(&t, "id = ? AND clinic_id = ?", id, clinicID).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateStatus is the only mutation allowed on a ledger row (audit
// requirement: no updates to amounts, no deletes).
func (r *transactionRepo) UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, status string) error {
	res := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ? AND clinic_id = ?", id, clinicID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
