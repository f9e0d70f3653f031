package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"parking-service/internal/model"
)

type DetectionRepository struct {
	db *gorm.DB
}

func NewDetectionRepository(db *gorm.DB) *DetectionRepository {
	return &DetectionRepository{db: db}
}

func (r *DetectionRepository) Create(ctx context.Context, detection *model.Detection) error {
	return r.db.WithContext(ctx).Create(detection).Error
}

func (r *DetectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Detection, error) {
	var detection model.Detection
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&detection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &detection, nil
}

// MarkProcessed flips the processed flag. The guard on the current value
// makes the transition single-shot; the boolean reports whether this call
// performed it.
func (r *DetectionRepository) MarkProcessed(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Detection{}).
		Where("id = ? AND processed = ?", id, false).
		Update("processed", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetVehicleLog records the back-reference to the session spawned by an
// Allow detection.
func (r *DetectionRepository) SetVehicleLog(ctx context.Context, id, logID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Detection{}).
		Where("id = ?", id).
		Update("vehicle_log_id", logID).Error
}

// SetDecision rewrites decision and assigned zone. Only the admission
// engine calls this, inside the ingest transaction, when a capacity race
// downgrades a tentative Allow before it ever becomes visible.
func (r *DetectionRepository) SetDecision(ctx context.Context, id uuid.UUID, decision model.Decision, zoneID *uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Detection{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"decision": decision, "zone_id": zoneID}).Error
}

// DetectionWithZone joins a detection with the name of its assigned zone.
type DetectionWithZone struct {
	model.Detection `gorm:"embedded"`
	ZoneName        *string `json:"zone_name"`
}

func (r *DetectionRepository) ListUnprocessed(ctx context.Context, limit int) ([]DetectionWithZone, error) {
	var rows []DetectionWithZone
	err := r.db.WithContext(ctx).
		Table("detections").
		Select("detections.*, parking_zones.name AS zone_name").
		Joins("LEFT JOIN parking_zones ON parking_zones.id = detections.zone_id").
		Where("detections.processed = ?", false).
		Order("detections.detected_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type DetectionHistoryFilter struct {
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// History returns one page of detections, newest first, plus the total row
// count for pagination metadata.
func (r *DetectionRepository) History(ctx context.Context, filter DetectionHistoryFilter) ([]DetectionWithZone, int64, error) {
	base := r.db.WithContext(ctx).Table("detections")
	if filter.Search != "" {
		base = base.Where("detections.number_plate LIKE ?", "%"+filter.Search+"%")
	}
	if filter.StartDate != nil {
		base = base.Where("detections.detected_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		base = base.Where("detections.detected_at <= ?", *filter.EndDate)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var rows []DetectionWithZone
	err := base.
		Select("detections.*, parking_zones.name AS zone_name").
		Joins("LEFT JOIN parking_zones ON parking_zones.id = detections.zone_id").
		Order("detections.detected_at DESC").
		Limit(filter.Limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// DetectionStats aggregates the trailing window for the dashboard cards.
type DetectionStats struct {
	Total        int64   `json:"total"`
	Processed    int64   `json:"processed"`
	Unprocessed  int64   `json:"unprocessed"`
	Allowed      int64   `json:"allowed"`
	Warned       int64   `json:"warned"`
	Ignored      int64   `json:"ignored"`
	AvgPollution float64 `json:"avg_pollution"`
}

func (r *DetectionRepository) Stats(ctx context.Context, since time.Time) (DetectionStats, error) {
	var stats DetectionStats
	err := r.db.WithContext(ctx).Model(&model.Detection{}).
		Select(`COUNT(*) AS total,
			SUM(CASE WHEN processed THEN 1 ELSE 0 END) AS processed,
			SUM(CASE WHEN processed THEN 0 ELSE 1 END) AS unprocessed,
			SUM(CASE WHEN decision = ? THEN 1 ELSE 0 END) AS allowed,
			SUM(CASE WHEN decision = ? THEN 1 ELSE 0 END) AS warned,
			SUM(CASE WHEN decision = ? THEN 1 ELSE 0 END) AS ignored,
			COALESCE(AVG(pollution_score), 0) AS avg_pollution`,
			model.DecisionAllow, model.DecisionWarn, model.DecisionIgnore).
		Where("detected_at >= ?", since).
		Scan(&stats).Error
	return stats, err
}

// FuelCounts aggregates ICE/EV detections for the pollution index. Warn
// decisions are excluded: warned vehicles were turned away and never entered
// the facility.
type FuelCounts struct {
	IceCount int64
	EvCount  int64
	Total    int64
}

func (r *DetectionRepository) FuelCounts(ctx context.Context, since time.Time) (FuelCounts, error) {
	var counts FuelCounts
	err := r.db.WithContext(ctx).Model(&model.Detection{}).
		Select(`SUM(CASE WHEN fuel_type = ? THEN 1 ELSE 0 END) AS ice_count,
			SUM(CASE WHEN fuel_type = ? THEN 1 ELSE 0 END) AS ev_count,
			COUNT(*) AS total`, model.FuelICE, model.FuelEV).
		Where("decision <> ? AND fuel_type IN ? AND detected_at >= ?",
			model.DecisionWarn, []string{model.FuelICE, model.FuelEV}, since).
		Scan(&counts).Error
	return counts, err
}

// DailySample is one detection's contribution to the daily rollup.
type DailySample struct {
	DetectedAt     time.Time
	PollutionScore int
}

// Samples returns the raw rows of the trailing window. Day grouping happens
// in the service layer to stay portable across SQL dialects.
func (r *DetectionRepository) Samples(ctx context.Context, since time.Time) ([]DailySample, error) {
	var samples []DailySample
	err := r.db.WithContext(ctx).Model(&model.Detection{}).
		Select("detected_at, pollution_score").
		Where("detected_at >= ?", since).
		Order("detected_at ASC").
		Scan(&samples).Error
	if err != nil {
		return nil, err
	}
	return samples, nil
}

// PurgeProcessedBefore removes processed rows older than the cutoff.
// Unprocessed rows are never touched regardless of age.
func (r *DetectionRepository) PurgeProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("processed = ? AND detected_at < ?", true, cutoff).
		Delete(&model.Detection{})
	return res.RowsAffected, res.Error
}
