package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/dto"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/model"
	"github.com/Tchelovb/clinicpro-manager-sub008/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	settingsCacheKey = "settings:financial:"
	settingsCacheTTL = 5 * time.Minute
)

// SettingsService is the single source of financial policy. Every entry
// point that branches on policy goes through Policy(), never through ad-hoc
// flag reads.
type SettingsService interface {
	Policy(ctx context.Context, clinicID uuid.UUID) (*Policy, error)
	Get(ctx context.Context, clinicID uuid.UUID) (*dto.FinancialSettingsResponse, error)
	Update(ctx context.Context, clinicID uuid.UUID, req dto.FinancialSettingsRequest) (*dto.FinancialSettingsResponse, error)
}

type settingsService struct {
	repo repository.SettingsRepository
	rdb  *redis.Client
}

func NewSettingsService(repo repository.SettingsRepository, rdb *redis.Client) SettingsService {
	return &settingsService{repo: repo, rdb: rdb}
}

// Policy loads the clinic's settings, Redis-cached. Cache failures fall
// through to the database — policy reads must not depend on Redis being up.
func (s *settingsService) Policy(ctx context.Context, clinicID uuid.UUID) (*Policy, error) {
	key := settingsCacheKey + clinicID.String()

	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var settings model.FinancialSettings
			if err := json.Unmarshal([]byte(raw), &settings); err == nil {
				return NewPolicy(&settings), nil
			}
		}
	}

	settings, err := s.repo.Get(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if data, err := json.Marshal(settings); err == nil {
			if err := s.rdb.Set(ctx, key, data, settingsCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Str("clinic_id", clinicID.String()).Msg("settings cache write failed")
			}
		}
	}
	return NewPolicy(settings), nil
}

func (s *settingsService) Get(ctx context.Context, clinicID uuid.UUID) (*dto.FinancialSettingsResponse, error) {
	settings, err := s.repo.Get(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	return settingsToResponse(settings), nil
}

func (s *settingsService) Update(ctx context.Context, clinicID uuid.UUID, req dto.FinancialSettingsRequest) (*dto.FinancialSettingsResponse, error) {
	settings := &model.FinancialSettings{
		ClinicID:                     clinicID,
		ForceCashOpening:             req.ForceCashOpening,
		ForceDailyClosing:            req.ForceDailyClosing,
		AllowNegativeBalance:         req.AllowNegativeBalance,
		BlindClosing:                 req.BlindClosing,
		DefaultChangeFund:            req.DefaultChangeFund,
		MaxDifferenceWithoutApproval: req.MaxDifferenceWithoutApproval,
	}
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, err
	}

	// Invalidate so the next Policy() read sees the new flags.
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, settingsCacheKey+clinicID.String()).Err(); err != nil {
			log.Warn().Err(err).Msg("settings cache invalidation failed")
		}
	}
	return settingsToResponse(settings), nil
}

func settingsToResponse(s *model.FinancialSettings) *dto.FinancialSettingsResponse {
	return &dto.FinancialSettingsResponse{
		ClinicID:                     s.ClinicID.String(),
		ForceCashOpening:             s.ForceCashOpening,
		ForceDailyClosing:            s.ForceDailyClosing,
		AllowNegativeBalance:         s.AllowNegativeBalance,
		BlindClosing:                 s.BlindClosing,
		DefaultChangeFund:            s.DefaultChangeFund,
		MaxDifferenceWithoutApproval: s.MaxDifferenceWithoutApproval,
	}
}
