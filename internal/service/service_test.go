package service

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"parking-service/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&model.Zone{}, &model.Detection{}, &model.VehicleLog{}))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	Event   string
	Payload any
}

func (p *capturePublisher) Publish(event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{Event: event, Payload: payload})
}

func (p *capturePublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event)
	}
	return out
}

// fixedScorer removes randomness from admission tests.
type fixedScorer struct {
	ice int
}

func (s fixedScorer) Score(fuelType string) int {
	if fuelType == model.FuelICE {
		return s.ice
	}
	return 0
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func seedZone(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	zone := &model.Zone{
		Name:                "Seed",
		TotalSlots:          10,
		ThresholdPercentage: 90,
		IsActive:            true,
	}
	require.NoError(t, db.Create(zone).Error)
	return zone.ID
}
