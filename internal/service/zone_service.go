package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"parking-service/internal/model"
	"parking-service/internal/repository"
)

const defaultThresholdPercentage = 90

// ZoneView is a zone together with its computed availability fields, the
// shape the dashboard renders.
type ZoneView struct {
	model.Zone
	AvailableSlots      int `json:"available_slots"`
	OccupancyPercentage int `json:"occupancy_percentage"`
}

// AggregateOccupancy is the facility-wide capacity picture across active
// zones. Decision is Warn once aggregate occupancy reaches the average
// threshold, or when there is no capacity data at all.
type AggregateOccupancy struct {
	TotalSlots          int     `json:"total_slots"`
	OccupiedSlots       int     `json:"occupied_slots"`
	AvailableSlots      int     `json:"available_slots"`
	OccupancyPercentage int     `json:"occupancy_percentage"`
	Threshold           float64 `json:"threshold"`
	Decision            model.Decision `json:"decision"`
}

// ZoneService is the zone registry: it owns zone lifecycle and is the only
// path through which occupied counts change.
type ZoneService struct {
	zones *repository.ZoneRepository
}

func NewZoneService(zones *repository.ZoneRepository) *ZoneService {
	return &ZoneService{zones: zones}
}

type CreateZoneInput struct {
	Name                string
	TotalSlots          int
	Location            string
	ThresholdPercentage int
	Latitude            *float64
	Longitude           *float64
}

func (s *ZoneService) Create(ctx context.Context, input CreateZoneInput) (*ZoneView, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.TotalSlots <= 0 {
		return nil, fmt.Errorf("%w: total_slots must be positive", ErrInvalidInput)
	}

	exists, err := s.zones.ActiveNameExists(ctx, name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: zone %q", ErrDuplicateName, name)
	}

	threshold := input.ThresholdPercentage
	if threshold <= 0 {
		threshold = defaultThresholdPercentage
	}
	if threshold > 100 {
		return nil, fmt.Errorf("%w: threshold_percentage must be in (0, 100]", ErrInvalidInput)
	}

	zone := &model.Zone{
		Name:                name,
		TotalSlots:          input.TotalSlots,
		OccupiedSlots:       0,
		Location:            input.Location,
		ThresholdPercentage: threshold,
		IsActive:            true,
		Latitude:            input.Latitude,
		Longitude:           input.Longitude,
	}
	if err := s.zones.Create(ctx, zone); err != nil {
		return nil, err
	}
	return view(zone), nil
}

func (s *ZoneService) List(ctx context.Context) ([]ZoneView, error) {
	zones, err := s.zones.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]ZoneView, 0, len(zones))
	for i := range zones {
		views = append(views, *view(&zones[i]))
	}
	return views, nil
}

func (s *ZoneService) Get(ctx context.Context, id uuid.UUID) (*ZoneView, error) {
	zone, err := s.zones.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return view(zone), nil
}

type UpdateZoneInput struct {
	Name                *string
	TotalSlots          *int
	Location            *string
	ThresholdPercentage *int
	Latitude            *float64
	Longitude           *float64
}

func (s *ZoneService) Update(ctx context.Context, id uuid.UUID, input UpdateZoneInput) (*ZoneView, error) {
	zone, err := s.zones.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		if name != zone.Name {
			exists, err := s.zones.ActiveNameExists(ctx, name, id)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, fmt.Errorf("%w: zone %q", ErrDuplicateName, name)
			}
		}
		zone.Name = name
	}
	if input.TotalSlots != nil {
		if *input.TotalSlots <= 0 {
			return nil, fmt.Errorf("%w: total_slots must be positive", ErrInvalidInput)
		}
		zone.TotalSlots = *input.TotalSlots
	}
	if input.Location != nil {
		zone.Location = *input.Location
	}
	if input.ThresholdPercentage != nil {
		if *input.ThresholdPercentage <= 0 || *input.ThresholdPercentage > 100 {
			return nil, fmt.Errorf("%w: threshold_percentage must be in (0, 100]", ErrInvalidInput)
		}
		zone.ThresholdPercentage = *input.ThresholdPercentage
	}
	if input.Latitude != nil {
		zone.Latitude = input.Latitude
	}
	if input.Longitude != nil {
		zone.Longitude = input.Longitude
	}

	if err := s.zones.Update(ctx, zone); err != nil {
		return nil, err
	}
	return view(zone), nil
}

// SoftDelete clears the active flag. Detections and logs referencing the
// zone keep their references.
func (s *ZoneService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if err := s.zones.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Aggregate computes the facility-wide occupancy. No active zones, or zero
// total capacity, reads as a full facility: Warn, 100%, nothing available.
func (s *ZoneService) Aggregate(ctx context.Context) (AggregateOccupancy, error) {
	row, err := s.zones.Aggregate(ctx)
	if err != nil {
		return AggregateOccupancy{}, err
	}

	if !row.TotalSlots.Valid || row.TotalSlots.Int64 == 0 {
		return AggregateOccupancy{
			Decision:            model.DecisionWarn,
			OccupancyPercentage: 100,
			AvailableSlots:      0,
			Threshold:           defaultThresholdPercentage,
		}, nil
	}

	total := int(row.TotalSlots.Int64)
	occupied := int(row.OccupiedSlots.Int64)
	threshold := row.AvgThreshold.Float64
	if !row.AvgThreshold.Valid || threshold == 0 {
		threshold = defaultThresholdPercentage
	}

	pct := int(math.Round(float64(occupied) / float64(total) * 100))
	decision := model.DecisionAllow
	if float64(pct) >= threshold {
		decision = model.DecisionWarn
	}

	return AggregateOccupancy{
		TotalSlots:          total,
		OccupiedSlots:       occupied,
		AvailableSlots:      total - occupied,
		OccupancyPercentage: pct,
		Threshold:           threshold,
		Decision:            decision,
	}, nil
}

// FindAvailable returns the active zone with the fewest occupied slots that
// is still below its own threshold, or nil when no zone qualifies.
func (s *ZoneService) FindAvailable(ctx context.Context) (*model.Zone, error) {
	zone, err := s.zones.FindAvailable(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return zone, nil
}

// Increment claims one slot in the zone; false means the zone was already
// at capacity.
func (s *ZoneService) Increment(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.zones.Increment(ctx, id)
}

// Decrement releases one slot, clamped at zero.
func (s *ZoneService) Decrement(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.zones.Decrement(ctx, id)
}

func view(zone *model.Zone) *ZoneView {
	return &ZoneView{
		Zone:                *zone,
		AvailableSlots:      zone.AvailableSlots(),
		OccupancyPercentage: zone.OccupancyPercentage(),
	}
}
