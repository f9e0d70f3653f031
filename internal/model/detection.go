package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Decision is the outcome of admission logic for a detection.
type Decision string

const (
	DecisionAllow  Decision = "Allow"
	DecisionWarn   Decision = "Warn"
	DecisionIgnore Decision = "Ignore"
)

type VehicleCategory string

const (
	CategoryPrivate    VehicleCategory = "Private"
	CategoryCommercial VehicleCategory = "Commercial"
)

func (c VehicleCategory) Valid() bool {
	switch c {
	case CategoryPrivate, CategoryCommercial:
		return true
	}
	return false
}

// Fuel types significant to scoring. Other values are stored as-is and
// treated as zero-emission for the pollution score.
const (
	FuelEV  = "EV"
	FuelICE = "ICE"
)

// Detection is one ANPR sighting of a vehicle at the facility entrance.
// The decision is computed before the row is inserted and never changes
// afterwards; processed flips from false to true exactly once when the
// decision's consequences (log row, occupancy increment) are committed.
type Detection struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	NumberPlate    string          `gorm:"type:varchar(32);not null;index" json:"number_plate"`
	Category       VehicleCategory `gorm:"type:varchar(16);not null" json:"vehicle_category"`
	FuelType       string          `gorm:"type:varchar(16);not null" json:"fuel_type"`
	Confidence     float64         `gorm:"not null" json:"confidence"`
	DetectedAt     time.Time       `gorm:"not null;index" json:"detected_time"`
	Decision       Decision        `gorm:"type:varchar(8);not null" json:"decision"`
	ZoneID         *uuid.UUID      `gorm:"type:uuid;index" json:"parking_zone_id"`
	PollutionScore int             `gorm:"not null;default:0" json:"pollution_score"`
	Processed      bool            `gorm:"not null;default:false;index" json:"processed"`
	VehicleLogID   *uuid.UUID      `gorm:"type:uuid" json:"vehicle_log_id"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Detection) TableName() string {
	return "detections"
}

func (d *Detection) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
