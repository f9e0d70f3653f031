package model

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Zone struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name                string    `gorm:"type:varchar(255);not null;index" json:"name"`
	TotalSlots          int       `gorm:"not null" json:"total_slots"`
	OccupiedSlots       int       `gorm:"not null;default:0" json:"occupied_slots"`
	Location            string    `gorm:"type:varchar(255)" json:"location"`
	ThresholdPercentage int       `gorm:"not null;default:90" json:"threshold_percentage"`
	IsActive            bool      `gorm:"not null;default:true;index" json:"is_active"`
	Latitude            *float64  `json:"latitude"`
	Longitude           *float64  `json:"longitude"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Zone) TableName() string {
	return "parking_zones"
}

func (z *Zone) BeforeCreate(tx *gorm.DB) error {
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	return nil
}

// AvailableSlots reports the remaining capacity of the zone.
func (z *Zone) AvailableSlots() int {
	return z.TotalSlots - z.OccupiedSlots
}

// OccupancyPercentage reports occupancy as a rounded percentage of capacity.
// A zone with zero total slots is reported as full.
func (z *Zone) OccupancyPercentage() int {
	if z.TotalSlots <= 0 {
		return 100
	}
	return int(math.Round(float64(z.OccupiedSlots) / float64(z.TotalSlots) * 100))
}
