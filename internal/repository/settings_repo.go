package repository

import (
	"context"
	"errors"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository interface {
	// Get returns the clinic's financial policy, falling back to defaults
	// when the clinic never saved one.
	Get(ctx context.Context, clinicID uuid.UUID) (*model.FinancialSettings, error)
	Upsert(ctx context.Context, s *model.FinancialSettings) error
}

type settingsRepo struct{ db *gorm.DB }

func NewSettingsRepository(db *gorm.DB) SettingsRepository { return &settingsRepo{db: db} }

func (r *settingsRepo) Get(ctx context.Context, clinicID uuid.UUID) (*model.FinancialSettings, error) {
	var s model.FinancialSettings
	err := r.db.WithContext(ctx).First(&s, "clinic_id = ?", clinicID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DefaultFinancialSettings(clinicID), nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepo) Upsert(ctx context.Context, s *model.FinancialSettings) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "clinic_id"}},
			UpdateAll: true,
		}).
		Create(s).Error
}
