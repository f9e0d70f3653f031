package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"parking-service/internal/model"
	"parking-service/internal/repository"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 200
)

// VehicleLogService serves the session ledger: one row per admitted
// vehicle, open until the exit is recorded.
type VehicleLogService struct {
	db    *gorm.DB
	logs  *repository.VehicleLogRepository
	zones *ZoneService
	now   func() time.Time
	log   zerolog.Logger
}

func NewVehicleLogService(db *gorm.DB, logs *repository.VehicleLogRepository, zones *ZoneService, log zerolog.Logger) *VehicleLogService {
	return &VehicleLogService{
		db:    db,
		logs:  logs,
		zones: zones,
		now:   time.Now,
		log:   log,
	}
}

func (s *VehicleLogService) List(ctx context.Context, filter repository.VehicleLogFilter) ([]repository.VehicleLogWithZone, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLogLimit
	}
	if filter.Limit > maxLogLimit {
		filter.Limit = maxLogLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.logs.List(ctx, filter)
}

func (s *VehicleLogService) Recent(ctx context.Context, limit int) ([]repository.VehicleLogWithZone, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}
	return s.logs.Recent(ctx, limit)
}

func (s *VehicleLogService) Get(ctx context.Context, id uuid.UUID) (*model.VehicleLog, error) {
	entry, err := s.logs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

type ExitResult struct {
	Log  *model.VehicleLog `json:"log"`
	Zone *ZoneView         `json:"zone,omitempty"`
}

// RecordExit closes an open session and releases its slot. Recording an
// exit twice is a conflict; the slot was already given back.
func (s *VehicleLogService) RecordExit(ctx context.Context, id uuid.UUID) (*ExitResult, error) {
	entry, err := s.logs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if entry.ExitAt != nil {
		return nil, ErrConflict
	}

	exitAt := s.now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		logs := repository.NewVehicleLogRepository(tx)
		zones := repository.NewZoneRepository(tx)

		closed, err := logs.SetExit(ctx, id, exitAt)
		if err != nil {
			return err
		}
		if !closed {
			return ErrConflict
		}
		released, err := zones.Decrement(ctx, entry.ZoneID)
		if err != nil {
			return err
		}
		if !released {
			// Zone counter was already at zero; keep the floor and note it.
			s.log.Warn().Str("zone_id", entry.ZoneID.String()).
				Msg("exit decrement clamped at zero")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	entry.ExitAt = &exitAt

	result := &ExitResult{Log: entry}
	zone, err := s.zones.Get(ctx, entry.ZoneID)
	if err == nil {
		result.Zone = zone
	} else {
		s.log.Warn().Err(err).Str("zone_id", entry.ZoneID.String()).
			Msg("failed to load zone after exit")
	}
	return result, nil
}
