package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"parking-service/internal/model"
	"parking-service/internal/notification"
	"parking-service/internal/repository"
)

type admissionFixture struct {
	db        *gorm.DB
	svc       *AdmissionService
	zones     *ZoneService
	zoneRepo  *repository.ZoneRepository
	publisher *capturePublisher
}

func newAdmissionFixture(t *testing.T) *admissionFixture {
	db := newTestDB(t)
	zoneRepo := repository.NewZoneRepository(db)
	zones := NewZoneService(zoneRepo)
	detections := repository.NewDetectionRepository(db)
	publisher := &capturePublisher{}

	svc := NewAdmissionService(db, zones, detections, publisher, fixedScorer{ice: 45}, testLogger())
	return &admissionFixture{
		db:        db,
		svc:       svc,
		zones:     zones,
		zoneRepo:  zoneRepo,
		publisher: publisher,
	}
}

func floatPtr(v float64) *float64 { return &v }

func privateICE(plate string) IngestInput {
	return IngestInput{
		NumberPlate: plate,
		Category:    string(model.CategoryPrivate),
		FuelType:    model.FuelICE,
		Confidence:  floatPtr(0.97),
	}
}

func TestIngestValidation(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input IngestInput
	}{
		{"missing plate", IngestInput{Category: "Private", FuelType: "ICE", Confidence: floatPtr(0.9)}},
		{"missing category", IngestInput{NumberPlate: "KZ123", FuelType: "ICE", Confidence: floatPtr(0.9)}},
		{"unknown category", IngestInput{NumberPlate: "KZ123", Category: "Bus", FuelType: "ICE", Confidence: floatPtr(0.9)}},
		{"missing fuel", IngestInput{NumberPlate: "KZ123", Category: "Private", Confidence: floatPtr(0.9)}},
		{"missing confidence", IngestInput{NumberPlate: "KZ123", Category: "Private", FuelType: "ICE"}},
		{"negative confidence", IngestInput{NumberPlate: "KZ123", Category: "Private", FuelType: "ICE", Confidence: floatPtr(-1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Ingest(ctx, tc.input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	// Rejected input leaves no trace in the ledger.
	var count int64
	require.NoError(t, f.db.Model(&model.Detection{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestIngestCommercialIgnored(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()

	zone, err := f.zones.Create(ctx, CreateZoneInput{Name: "A", TotalSlots: 10})
	require.NoError(t, err)

	result, err := f.svc.Ingest(ctx, IngestInput{
		NumberPlate: "KZ 555 AB",
		Category:    string(model.CategoryCommercial),
		FuelType:    model.FuelICE,
		Confidence:  floatPtr(0.88),
	})
	require.NoError(t, err)

	assert.Equal(t, model.DecisionIgnore, result.Decision)
	assert.Nil(t, result.ZoneID)
	assert.Nil(t, result.VehicleLogID)
	assert.Equal(t, "Commercial vehicle - Decision: Ignore", result.Message)
	assert.True(t, result.Detection.Processed)
	assert.Equal(t, 45, result.Detection.PollutionScore)
	assert.Equal(t, "KZ555AB", result.Detection.NumberPlate)

	// No session, no slot consumed.
	var logCount int64
	require.NoError(t, f.db.Model(&model.VehicleLog{}).Count(&logCount).Error)
	assert.Zero(t, logCount)

	got, err := f.zones.Get(ctx, zone.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.OccupiedSlots)

	assert.Equal(t, []string{notification.EventNewIncomingVehicle}, f.publisher.names())
}

func TestIngestAllow(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()

	zone, err := f.zones.Create(ctx, CreateZoneInput{Name: "North", TotalSlots: 10})
	require.NoError(t, err)

	result, err := f.svc.Ingest(ctx, privateICE("A 100 BC"))
	require.NoError(t, err)

	assert.Equal(t, model.DecisionAllow, result.Decision)
	require.NotNil(t, result.ZoneID)
	assert.Equal(t, zone.ID, *result.ZoneID)
	assert.Equal(t, "North", result.ZoneName)
	assert.Equal(t, "Private vehicle - Decision: Allow (Assigned to North)", result.Message)
	require.NotNil(t, result.VehicleLogID)
	assert.Equal(t, result.VehicleLogID, result.Detection.VehicleLogID)

	var entry model.VehicleLog
	require.NoError(t, f.db.First(&entry, "id = ?", *result.VehicleLogID).Error)
	assert.Equal(t, "A100BC", entry.NumberPlate)
	assert.Equal(t, zone.ID, entry.ZoneID)
	assert.Nil(t, entry.ExitAt)
	assert.True(t, entry.EntryAt.Equal(result.Detection.DetectedAt))
	assert.Equal(t, 45, entry.PollutionScore)

	got, err := f.zones.Get(ctx, zone.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.OccupiedSlots)

	assert.Equal(t, []string{notification.EventNewIncomingVehicle, notification.EventZoneUpdated}, f.publisher.names())
}

func TestIngestWarnWhenNoZones(t *testing.T) {
	f := newAdmissionFixture(t)

	result, err := f.svc.Ingest(context.Background(), privateICE("B 200 CD"))
	require.NoError(t, err)

	assert.Equal(t, model.DecisionWarn, result.Decision)
	assert.Nil(t, result.ZoneID)
	assert.Nil(t, result.VehicleLogID)
	assert.Equal(t, "Private vehicle - Decision: Warn (All zones full)", result.Message)
	assert.True(t, result.Detection.Processed)
}

func TestIngestWarnWhenFull(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()

	zone, err := f.zones.Create(ctx, CreateZoneInput{Name: "A", TotalSlots: 2, ThresholdPercentage: 100})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		claimed, err := f.zoneRepo.Increment(ctx, zone.ID)
		require.NoError(t, err)
		require.True(t, claimed)
	}

	result, err := f.svc.Ingest(ctx, privateICE("C 300 DE"))
	require.NoError(t, err)
	assert.Equal(t, model.DecisionWarn, result.Decision)

	got, err := f.zones.Get(ctx, zone.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.OccupiedSlots)
}

func TestIngestAssignsLeastOccupiedZone(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()

	a, err := f.zones.Create(ctx, CreateZoneInput{Name: "A", TotalSlots: 10})
	require.NoError(t, err)
	b, err := f.zones.Create(ctx, CreateZoneInput{Name: "B", TotalSlots: 10})
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err := f.zoneRepo.Increment(ctx, a.ID)
		require.NoError(t, err)
	}

	result, err := f.svc.Ingest(ctx, privateICE("D 400 EF"))
	require.NoError(t, err)
	require.NotNil(t, result.ZoneID)
	assert.Equal(t, b.ID, *result.ZoneID)
}

func TestIngestEVScoresZero(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()

	_, err := f.zones.Create(ctx, CreateZoneInput{Name: "A", TotalSlots: 10})
	require.NoError(t, err)

	result, err := f.svc.Ingest(ctx, IngestInput{
		NumberPlate: "E 500 FG",
		Category:    string(model.CategoryPrivate),
		FuelType:    model.FuelEV,
		Confidence:  floatPtr(0.91),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Detection.PollutionScore)
}

func TestReprocessNotFound(t *testing.T) {
	f := newAdmissionFixture(t)

	_, err := f.svc.Reprocess(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReprocessAlreadyProcessed(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()

	_, err := f.zones.Create(ctx, CreateZoneInput{Name: "A", TotalSlots: 10})
	require.NoError(t, err)
	ingested, err := f.svc.Ingest(ctx, privateICE("F 600 GH"))
	require.NoError(t, err)

	result, err := f.svc.Reprocess(ctx, ingested.Detection.ID)
	require.NoError(t, err)
	assert.True(t, result.NoAction)
	assert.Equal(t, ingested.VehicleLogID, result.VehicleLogID)

	// Idempotent: no double increment.
	got, err := f.zones.Get(ctx, *ingested.ZoneID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.OccupiedSlots)
}

func TestReprocessUnprocessedAllow(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()

	zone, err := f.zones.Create(ctx, CreateZoneInput{Name: "A", TotalSlots: 10})
	require.NoError(t, err)

	zoneID := zone.ID
	detection := &model.Detection{
		NumberPlate:    "G700HI",
		Category:       model.CategoryPrivate,
		FuelType:       model.FuelICE,
		Confidence:     0.9,
		DetectedAt:     time.Now().UTC(),
		Decision:       model.DecisionAllow,
		ZoneID:         &zoneID,
		PollutionScore: 42,
		Processed:      false,
	}
	require.NoError(t, f.db.Create(detection).Error)

	result, err := f.svc.Reprocess(ctx, detection.ID)
	require.NoError(t, err)
	assert.False(t, result.NoAction)
	require.NotNil(t, result.VehicleLogID)

	var entry model.VehicleLog
	require.NoError(t, f.db.First(&entry, "id = ?", *result.VehicleLogID).Error)
	assert.Equal(t, zone.ID, entry.ZoneID)

	var reloaded model.Detection
	require.NoError(t, f.db.First(&reloaded, "id = ?", detection.ID).Error)
	assert.True(t, reloaded.Processed)
	require.NotNil(t, reloaded.VehicleLogID)
	assert.Equal(t, *result.VehicleLogID, *reloaded.VehicleLogID)

	got, err := f.zones.Get(ctx, zone.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.OccupiedSlots)

	assert.Contains(t, f.publisher.names(), notification.EventVehicleProcessed)
}

func TestReprocessWarnCreatesNoSession(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()

	detection := &model.Detection{
		NumberPlate: "H800IJ",
		Category:    model.CategoryPrivate,
		FuelType:    model.FuelICE,
		Confidence:  0.8,
		DetectedAt:  time.Now().UTC(),
		Decision:    model.DecisionWarn,
		Processed:   false,
	}
	require.NoError(t, f.db.Create(detection).Error)

	result, err := f.svc.Reprocess(ctx, detection.ID)
	require.NoError(t, err)
	assert.Nil(t, result.VehicleLogID)

	var logCount int64
	require.NoError(t, f.db.Model(&model.VehicleLog{}).Count(&logCount).Error)
	assert.Zero(t, logCount)
}

func TestReprocessClampsAtCapacity(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()

	zone, err := f.zones.Create(ctx, CreateZoneInput{Name: "A", TotalSlots: 1})
	require.NoError(t, err)
	claimed, err := f.zoneRepo.Increment(ctx, zone.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	zoneID := zone.ID
	detection := &model.Detection{
		NumberPlate: "J900KL",
		Category:    model.CategoryPrivate,
		FuelType:    model.FuelICE,
		Confidence:  0.9,
		DetectedAt:  time.Now().UTC(),
		Decision:    model.DecisionAllow,
		ZoneID:      &zoneID,
		Processed:   false,
	}
	require.NoError(t, f.db.Create(detection).Error)

	result, err := f.svc.Reprocess(ctx, detection.ID)
	require.NoError(t, err)
	require.NotNil(t, result.VehicleLogID)

	// The counter never exceeds capacity even when the session is created.
	got, err := f.zones.Get(ctx, zone.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.OccupiedSlots)
}
