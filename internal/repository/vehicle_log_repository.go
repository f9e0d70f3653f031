package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"parking-service/internal/model"
)

type VehicleLogRepository struct {
	db *gorm.DB
}

func NewVehicleLogRepository(db *gorm.DB) *VehicleLogRepository {
	return &VehicleLogRepository{db: db}
}

func (r *VehicleLogRepository) Create(ctx context.Context, log *model.VehicleLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *VehicleLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.VehicleLog, error) {
	var log model.VehicleLog
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &log, nil
}

// VehicleLogWithZone joins a session with the name of its zone.
type VehicleLogWithZone struct {
	model.VehicleLog `gorm:"embedded"`
	ZoneName         *string `json:"zone_name"`
}

type VehicleLogFilter struct {
	Search    string
	FuelType  string
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

func (r *VehicleLogRepository) List(ctx context.Context, filter VehicleLogFilter) ([]VehicleLogWithZone, error) {
	query := r.db.WithContext(ctx).
		Table("vehicle_logs").
		Select("vehicle_logs.*, parking_zones.name AS zone_name").
		Joins("LEFT JOIN parking_zones ON parking_zones.id = vehicle_logs.zone_id")

	if filter.Search != "" {
		query = query.Where("vehicle_logs.number_plate LIKE ?", "%"+filter.Search+"%")
	}
	if filter.FuelType != "" {
		query = query.Where("vehicle_logs.fuel_type = ?", filter.FuelType)
	}
	if filter.Category != "" {
		query = query.Where("vehicle_logs.category = ?", filter.Category)
	}
	if filter.StartDate != nil {
		query = query.Where("vehicle_logs.entry_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("vehicle_logs.entry_at <= ?", *filter.EndDate)
	}

	var rows []VehicleLogWithZone
	err := query.
		Order("vehicle_logs.entry_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *VehicleLogRepository) Recent(ctx context.Context, limit int) ([]VehicleLogWithZone, error) {
	var rows []VehicleLogWithZone
	err := r.db.WithContext(ctx).
		Table("vehicle_logs").
		Select("vehicle_logs.*, parking_zones.name AS zone_name").
		Joins("LEFT JOIN parking_zones ON parking_zones.id = vehicle_logs.zone_id").
		Order("vehicle_logs.entry_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SetExit stamps the exit time on an open session. The IS NULL guard makes
// the write single-shot; the boolean reports whether this call closed the
// session.
func (r *VehicleLogRepository) SetExit(ctx context.Context, id uuid.UUID, exitAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.VehicleLog{}).
		Where("id = ? AND exit_at IS NULL", id).
		Update("exit_at", exitAt)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FuelDistributionRow is a grouped count of sessions by fuel type.
type FuelDistributionRow struct {
	FuelType string `json:"fuel_type"`
	Count    int64  `json:"count"`
}

func (r *VehicleLogRepository) FuelDistribution(ctx context.Context) ([]FuelDistributionRow, error) {
	var rows []FuelDistributionRow
	err := r.db.WithContext(ctx).Model(&model.VehicleLog{}).
		Select("fuel_type, COUNT(*) AS count").
		Group("fuel_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
