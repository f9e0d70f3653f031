package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-service/internal/model"
	"parking-service/internal/repository"
)

func newZoneService(t *testing.T) (*ZoneService, *repository.ZoneRepository) {
	db := newTestDB(t)
	repo := repository.NewZoneRepository(db)
	return NewZoneService(repo), repo
}

func TestZoneCreateDefaults(t *testing.T) {
	svc, _ := newZoneService(t)
	ctx := context.Background()

	zone, err := svc.Create(ctx, CreateZoneInput{Name: "  North Lot  ", TotalSlots: 20})
	require.NoError(t, err)

	assert.Equal(t, "North Lot", zone.Name)
	assert.Equal(t, 20, zone.TotalSlots)
	assert.Equal(t, 0, zone.OccupiedSlots)
	assert.Equal(t, 90, zone.ThresholdPercentage)
	assert.True(t, zone.IsActive)
	assert.Equal(t, 20, zone.AvailableSlots)
	assert.Equal(t, 0, zone.OccupancyPercentage)
}

func TestZoneCreateValidation(t *testing.T) {
	svc, _ := newZoneService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateZoneInput{Name: "   ", TotalSlots: 5})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, CreateZoneInput{Name: "A", TotalSlots: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, CreateZoneInput{Name: "A", TotalSlots: 5, ThresholdPercentage: 101})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestZoneCreateDuplicateName(t *testing.T) {
	svc, _ := newZoneService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateZoneInput{Name: "East", TotalSlots: 10})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateZoneInput{Name: "East", TotalSlots: 5})
	assert.ErrorIs(t, err, ErrDuplicateName)

	// A deactivated zone releases its name.
	require.NoError(t, svc.SoftDelete(ctx, first.ID))
	_, err = svc.Create(ctx, CreateZoneInput{Name: "East", TotalSlots: 5})
	assert.NoError(t, err)
}

func TestZoneUpdate(t *testing.T) {
	svc, _ := newZoneService(t)
	ctx := context.Background()

	zone, err := svc.Create(ctx, CreateZoneInput{Name: "West", TotalSlots: 10})
	require.NoError(t, err)

	newName := "West Garage"
	slots := 15
	threshold := 75
	updated, err := svc.Update(ctx, zone.ID, UpdateZoneInput{
		Name:                &newName,
		TotalSlots:          &slots,
		ThresholdPercentage: &threshold,
	})
	require.NoError(t, err)
	assert.Equal(t, "West Garage", updated.Name)
	assert.Equal(t, 15, updated.TotalSlots)
	assert.Equal(t, 75, updated.ThresholdPercentage)

	bad := 120
	_, err = svc.Update(ctx, zone.ID, UpdateZoneInput{ThresholdPercentage: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Update(ctx, uuid.New(), UpdateZoneInput{Name: &newName})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestZoneSoftDelete(t *testing.T) {
	svc, _ := newZoneService(t)
	ctx := context.Background()

	zone, err := svc.Create(ctx, CreateZoneInput{Name: "South", TotalSlots: 8})
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, zone.ID))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, svc.SoftDelete(ctx, uuid.New()), ErrNotFound)
}

func TestAggregateNoZones(t *testing.T) {
	svc, _ := newZoneService(t)

	agg, err := svc.Aggregate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.DecisionWarn, agg.Decision)
	assert.Equal(t, 100, agg.OccupancyPercentage)
	assert.Equal(t, 0, agg.AvailableSlots)
	assert.Equal(t, float64(90), agg.Threshold)
}

func TestAggregateOccupancyMath(t *testing.T) {
	svc, repo := newZoneService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateZoneInput{Name: "A", TotalSlots: 10})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CreateZoneInput{Name: "B", TotalSlots: 10})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		claimed, err := repo.Increment(ctx, b.ID)
		require.NoError(t, err)
		require.True(t, claimed)
	}

	agg, err := svc.Aggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, agg.TotalSlots)
	assert.Equal(t, 5, agg.OccupiedSlots)
	assert.Equal(t, 15, agg.AvailableSlots)
	assert.Equal(t, 25, agg.OccupancyPercentage)
	assert.Equal(t, model.DecisionAllow, agg.Decision)
}

func TestAggregateWarnAtThreshold(t *testing.T) {
	svc, repo := newZoneService(t)
	ctx := context.Background()

	zone, err := svc.Create(ctx, CreateZoneInput{Name: "A", TotalSlots: 10, ThresholdPercentage: 90})
	require.NoError(t, err)

	for i := 0; i < 9; i++ {
		claimed, err := repo.Increment(ctx, zone.ID)
		require.NoError(t, err)
		require.True(t, claimed)
	}

	agg, err := svc.Aggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 90, agg.OccupancyPercentage)
	assert.Equal(t, model.DecisionWarn, agg.Decision)
}

func TestFindAvailablePrefersLeastOccupied(t *testing.T) {
	svc, repo := newZoneService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateZoneInput{Name: "A", TotalSlots: 10})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CreateZoneInput{Name: "B", TotalSlots: 10})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := repo.Increment(ctx, a.ID)
		require.NoError(t, err)
	}
	_, err = repo.Increment(ctx, b.ID)
	require.NoError(t, err)

	zone, err := svc.FindAvailable(ctx)
	require.NoError(t, err)
	require.NotNil(t, zone)
	assert.Equal(t, b.ID, zone.ID)
}

func TestFindAvailableRespectsThreshold(t *testing.T) {
	svc, repo := newZoneService(t)
	ctx := context.Background()

	zone, err := svc.Create(ctx, CreateZoneInput{Name: "A", TotalSlots: 10, ThresholdPercentage: 50})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := repo.Increment(ctx, zone.ID)
		require.NoError(t, err)
	}

	// 50% occupied is not below the 50% threshold.
	found, err := svc.FindAvailable(ctx)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindAvailableRoundsOccupancy(t *testing.T) {
	svc, repo := newZoneService(t)
	ctx := context.Background()

	zone, err := svc.Create(ctx, CreateZoneInput{Name: "A", TotalSlots: 200, ThresholdPercentage: 90})
	require.NoError(t, err)

	// 179/200 is 89.5%, which rounds to the 90% threshold.
	stored, err := repo.GetByID(ctx, zone.ID)
	require.NoError(t, err)
	stored.OccupiedSlots = 179
	require.NoError(t, repo.Update(ctx, stored))

	found, err := svc.FindAvailable(ctx)
	require.NoError(t, err)
	assert.Nil(t, found)

	// 178/200 is 89%, still below threshold.
	stored.OccupiedSlots = 178
	require.NoError(t, repo.Update(ctx, stored))

	found, err = svc.FindAvailable(ctx)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, zone.ID, found.ID)
}

func TestIncrementStopsAtCapacity(t *testing.T) {
	svc, repo := newZoneService(t)
	ctx := context.Background()

	zone, err := svc.Create(ctx, CreateZoneInput{Name: "A", TotalSlots: 2})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		claimed, err := repo.Increment(ctx, zone.ID)
		require.NoError(t, err)
		assert.True(t, claimed)
	}
	claimed, err := repo.Increment(ctx, zone.ID)
	require.NoError(t, err)
	assert.False(t, claimed)

	got, err := svc.Get(ctx, zone.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.OccupiedSlots)
}

func TestDecrementStopsAtZero(t *testing.T) {
	svc, repo := newZoneService(t)
	ctx := context.Background()

	zone, err := svc.Create(ctx, CreateZoneInput{Name: "A", TotalSlots: 2})
	require.NoError(t, err)

	released, err := repo.Decrement(ctx, zone.ID)
	require.NoError(t, err)
	assert.False(t, released)

	_, err = repo.Increment(ctx, zone.ID)
	require.NoError(t, err)
	released, err = repo.Decrement(ctx, zone.ID)
	require.NoError(t, err)
	assert.True(t, released)

	got, err := svc.Get(ctx, zone.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.OccupiedSlots)
}
