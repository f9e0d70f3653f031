package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"parking-service/internal/model"
)

type ZoneRepository struct {
	db *gorm.DB
}

func NewZoneRepository(db *gorm.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

func (r *ZoneRepository) Create(ctx context.Context, zone *model.Zone) error {
	return r.db.WithContext(ctx).Create(zone).Error
}

func (r *ZoneRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Zone, error) {
	var zone model.Zone
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&zone).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &zone, nil
}

func (r *ZoneRepository) ListActive(ctx context.Context) ([]model.Zone, error) {
	var zones []model.Zone
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&zones).Error
	if err != nil {
		return nil, err
	}
	return zones, nil
}

func (r *ZoneRepository) Update(ctx context.Context, zone *model.Zone) error {
	return r.db.WithContext(ctx).Save(zone).Error
}

func (r *ZoneRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Zone{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ActiveNameExists reports whether an active zone other than exclude already
// uses the given name.
func (r *ZoneRepository) ActiveNameExists(ctx context.Context, name string, exclude uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.Zone{}).
		Where("name = ? AND is_active = ?", name, true)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AggregateRow holds facility-wide capacity sums across active zones.
type AggregateRow struct {
	TotalSlots    sql.NullInt64
	OccupiedSlots sql.NullInt64
	AvgThreshold  sql.NullFloat64
}

func (r *ZoneRepository) Aggregate(ctx context.Context) (AggregateRow, error) {
	var row AggregateRow
	err := r.db.WithContext(ctx).Model(&model.Zone{}).
		Select("SUM(total_slots) AS total_slots, SUM(occupied_slots) AS occupied_slots, AVG(threshold_percentage) AS avg_threshold").
		Where("is_active = ?", true).
		Scan(&row).Error
	return row, err
}

// FindAvailable picks the active zone with the fewest occupied slots whose
// own occupancy is still strictly below its threshold. Returns
// gorm.ErrRecordNotFound when every zone is at or above threshold.
func (r *ZoneRepository) FindAvailable(ctx context.Context) (*model.Zone, error) {
	var zone model.Zone
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND total_slots > 0", true).
		Where("ROUND(occupied_slots * 100.0 / total_slots) < threshold_percentage").
		Order("occupied_slots ASC, name ASC").
		First(&zone).Error
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

// Increment claims one slot. The guard against total_slots makes the update
// a no-op at capacity; the boolean reports whether a slot was actually
// claimed so callers can detect a lost race.
func (r *ZoneRepository) Increment(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Zone{}).
		Where("id = ? AND occupied_slots < total_slots", id).
		UpdateColumn("occupied_slots", gorm.Expr("occupied_slots + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Decrement releases one slot, never dropping below zero. The boolean
// reports whether the counter actually moved.
func (r *ZoneRepository) Decrement(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Zone{}).
		Where("id = ? AND occupied_slots > 0", id).
		UpdateColumn("occupied_slots", gorm.Expr("occupied_slots - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
