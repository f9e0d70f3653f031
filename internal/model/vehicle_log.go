package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VehicleLog is a parking session created only for admitted vehicles.
// A nil ExitAt means the vehicle still occupies its zone slot; once set,
// ExitAt never changes.
type VehicleLog struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	NumberPlate    string          `gorm:"type:varchar(32);not null;index" json:"number_plate"`
	Category       VehicleCategory `gorm:"type:varchar(16);not null" json:"vehicle_category"`
	FuelType       string          `gorm:"type:varchar(16);not null" json:"fuel_type"`
	Confidence     float64         `gorm:"not null" json:"confidence"`
	EntryAt        time.Time       `gorm:"not null;index" json:"entry_time"`
	ExitAt         *time.Time      `json:"exit_time"`
	ZoneID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"parking_zone_id"`
	PollutionScore int             `gorm:"not null;default:0" json:"pollution_score"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (VehicleLog) TableName() string {
	return "vehicle_logs"
}

func (v *VehicleLog) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
