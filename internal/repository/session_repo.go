package repository

import (
	"context"
	"time"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SessionCloseData is the terminal write applied by the reconciliation step.
// All fields land in one UPDATE so a failed close never leaves a partially
// closed session.
type SessionCloseData struct {
	Status           string
	ClosedAt         time.Time
	DeclaredBalance  decimal.Decimal
	DeclaredCardPix  decimal.Decimal
	DifferenceAmount decimal.Decimal
	DifferenceReason *string
}

type SessionRepository interface {
	DB() *gorm.DB
	Create(ctx context.Context, s *model.CashSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	FindOpenByUser(ctx context.Context, clinicID, userID uuid.UUID) (*model.CashSession, error)
	SetCalculatedBalanceTx(tx *gorm.DB, id uuid.UUID, balance decimal.Decimal) error
	Close(ctx context.Context, id uuid.UUID, data SessionCloseData) error
	ListTerminal(ctx context.Context, clinicID uuid.UUID, page, limit int) ([]model.CashSession, int64, error)
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) DB() *gorm.DB { return r.db }

func (r *sessionRepo) Create(ctx context.Context, s *model.CashSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindOpenByUser(ctx context.Context, clinicID, userID uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Where("clinic_id = ? AND user_id = ? AND status = ?", clinicID, userID, model.SessionOpen).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) SetCalculatedBalanceTx(tx *gorm.DB, id uuid.UUID, balance decimal.Decimal) error {
	return tx.Model(&model.CashSession{}).
		Where("id = ?", id).
		Update("calculated_balance", balance).Error
}

// Close performs the single terminal write. The status guard makes the call
// idempotent-safe: a second close of the same session updates zero rows.
func (r *sessionRepo) Close(ctx context.Context, id uuid.UUID, data SessionCloseData) error {
	res := r.db.WithContext(ctx).Model(&model.CashSession{}).
		Where("id = ? AND status = ?", id, model.SessionOpen).
		Updates(map[string]interface{}{
			"status":            data.Status,
			"closed_at":         data.ClosedAt,
			"declared_balance":  data.DeclaredBalance,
			"declared_card_pix": data.DeclaredCardPix,
			"difference_amount": data.DifferenceAmount,
			"difference_reason": data.DifferenceReason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sessionRepo) ListTerminal(ctx context.Context, clinicID uuid.UUID, page, limit int) ([]model.CashSession, int64, error) {
	var sessions []model.CashSession
	var total int64

	q := r.db.WithContext(ctx).Model(&model.CashSession{}).
		Where("clinic_id = ? AND status <> ?", clinicID, model.SessionOpen)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("closed_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sessions).Error
	return sessions, total, err
}
