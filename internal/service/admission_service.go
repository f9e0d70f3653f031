package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"parking-service/internal/model"
	"parking-service/internal/notification"
	"parking-service/internal/repository"
	"parking-service/internal/utils"
)

// AdmissionService decides, for every incoming detection, whether the
// vehicle is admitted, and commits the decision's consequences: the
// detection row, the vehicle log session and the zone occupancy increment
// all land in one transaction.
type AdmissionService struct {
	db         *gorm.DB
	zones      *ZoneService
	detections *repository.DetectionRepository
	publisher  notification.Publisher
	scorer     PollutionScorer
	now        func() time.Time
	log        zerolog.Logger
}

func NewAdmissionService(
	db *gorm.DB,
	zones *ZoneService,
	detections *repository.DetectionRepository,
	publisher notification.Publisher,
	scorer PollutionScorer,
	log zerolog.Logger,
) *AdmissionService {
	return &AdmissionService{
		db:         db,
		zones:      zones,
		detections: detections,
		publisher:  publisher,
		scorer:     scorer,
		now:        time.Now,
		log:        log,
	}
}

type IngestInput struct {
	NumberPlate string
	Category    string
	FuelType    string
	Confidence  *float64
}

type IngestResult struct {
	Detection    *model.Detection `json:"detection"`
	Decision     model.Decision   `json:"decision"`
	ZoneID       *uuid.UUID       `json:"assigned_zone_id,omitempty"`
	ZoneName     string           `json:"assigned_zone_name,omitempty"`
	VehicleLogID *uuid.UUID       `json:"vehicle_log_id,omitempty"`
	Message      string           `json:"message"`
}

// detectionEvent is the real-time payload for newIncomingVehicle.
type detectionEvent struct {
	ID             uuid.UUID      `json:"id"`
	NumberPlate    string         `json:"number_plate"`
	Category       string         `json:"vehicle_category"`
	FuelType       string         `json:"fuel_type"`
	Confidence     float64        `json:"confidence"`
	DetectedAt     time.Time      `json:"detected_time"`
	Decision       model.Decision `json:"decision"`
	ZoneName       *string        `json:"zone_name"`
	PollutionScore int            `json:"pollution_score"`
}

// Ingest runs the two-tier decision procedure and the commit protocol for
// one detection.
//
// Tier one: commercial vehicles are ignored outright; they are logged for
// audit but never consume parking capacity. Tier two, private vehicles
// only: the facility-wide aggregate decides Warn, otherwise a zone with
// spare capacity under its own threshold is assigned; if none exists the
// decision falls back to Warn.
func (s *AdmissionService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	if err := validateIngest(input); err != nil {
		return nil, err
	}

	plate := utils.NormalizePlate(input.NumberPlate)
	category := model.VehicleCategory(input.Category)
	score := s.scorer.Score(input.FuelType)

	decision := model.DecisionWarn
	var target *model.Zone

	if category == model.CategoryCommercial {
		decision = model.DecisionIgnore
	} else {
		agg, err := s.zones.Aggregate(ctx)
		if err != nil {
			return nil, err
		}
		if agg.Decision == model.DecisionAllow {
			target, err = s.zones.FindAvailable(ctx)
			if err != nil {
				return nil, err
			}
			if target != nil {
				decision = model.DecisionAllow
			}
		}
	}

	detection := &model.Detection{
		NumberPlate:    plate,
		Category:       category,
		FuelType:       input.FuelType,
		Confidence:     *input.Confidence,
		DetectedAt:     s.now().UTC(),
		Decision:       decision,
		PollutionScore: score,
		Processed:      false,
	}
	if target != nil {
		zoneID := target.ID
		detection.ZoneID = &zoneID
	}

	var logID *uuid.UUID
	committed := target
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		detections := repository.NewDetectionRepository(tx)
		logs := repository.NewVehicleLogRepository(tx)
		zones := repository.NewZoneRepository(tx)

		if err := detections.Create(ctx, detection); err != nil {
			return err
		}
		if _, err := detections.MarkProcessed(ctx, detection.ID); err != nil {
			return err
		}
		detection.Processed = true

		if detection.Decision != model.DecisionAllow {
			return nil
		}

		zone, err := s.claimSlot(ctx, zones, committed)
		if err != nil {
			if !errors.Is(err, ErrCapacityRace) {
				return err
			}
			// Fail-safe downgrade: the aggregate said Allow but every
			// candidate filled up before we could claim a slot.
			s.log.Warn().Str("plate", plate).Msg("capacity race lost, downgrading to Warn")
			if err := detections.SetDecision(ctx, detection.ID, model.DecisionWarn, nil); err != nil {
				return err
			}
			detection.Decision = model.DecisionWarn
			detection.ZoneID = nil
			committed = nil
			return nil
		}
		if zone.ID != committed.ID {
			zoneID := zone.ID
			if err := detections.SetDecision(ctx, detection.ID, model.DecisionAllow, &zoneID); err != nil {
				return err
			}
			detection.ZoneID = &zoneID
			committed = zone
		}

		entry := &model.VehicleLog{
			NumberPlate:    detection.NumberPlate,
			Category:       detection.Category,
			FuelType:       detection.FuelType,
			Confidence:     detection.Confidence,
			EntryAt:        detection.DetectedAt,
			ZoneID:         zone.ID,
			PollutionScore: detection.PollutionScore,
		}
		if err := logs.Create(ctx, entry); err != nil {
			return err
		}
		if err := detections.SetVehicleLog(ctx, detection.ID, entry.ID); err != nil {
			return err
		}
		entryID := entry.ID
		logID = &entryID
		detection.VehicleLogID = &entryID
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &IngestResult{
		Detection:    detection,
		Decision:     detection.Decision,
		VehicleLogID: logID,
	}
	var zoneName *string
	if detection.Decision == model.DecisionAllow && committed != nil {
		zoneID := committed.ID
		result.ZoneID = &zoneID
		result.ZoneName = committed.Name
		zoneName = &committed.Name
	}
	result.Message = admissionMessage(detection.Category, detection.Decision, result.ZoneName)

	s.publisher.Publish(notification.EventNewIncomingVehicle, detectionEvent{
		ID:             detection.ID,
		NumberPlate:    detection.NumberPlate,
		Category:       string(detection.Category),
		FuelType:       detection.FuelType,
		Confidence:     detection.Confidence,
		DetectedAt:     detection.DetectedAt,
		Decision:       detection.Decision,
		ZoneName:       zoneName,
		PollutionScore: detection.PollutionScore,
	})
	if detection.Decision == model.DecisionAllow && committed != nil {
		s.publishZoneSnapshot(ctx, committed.ID)
	}

	return result, nil
}

// claimSlot increments the chosen zone, re-selecting once if the first
// choice filled up in the meantime. ErrCapacityRace means no zone could be
// claimed at all.
func (s *AdmissionService) claimSlot(ctx context.Context, zones *repository.ZoneRepository, first *model.Zone) (*model.Zone, error) {
	claimed, err := zones.Increment(ctx, first.ID)
	if err != nil {
		return nil, err
	}
	if claimed {
		return first, nil
	}

	second, err := zones.FindAvailable(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCapacityRace
		}
		return nil, err
	}
	claimed, err = zones.Increment(ctx, second.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrCapacityRace
	}
	return second, nil
}

type ReprocessResult struct {
	DetectionID  uuid.UUID  `json:"detection_id"`
	VehicleLogID *uuid.UUID `json:"vehicle_log_id,omitempty"`
	NoAction     bool       `json:"no_action"`
	Message      string     `json:"message"`
}

// Reprocess re-runs the commit steps for a detection persisted with
// processed=false. Reprocessing an already-processed detection is a safe
// no-op reported as success.
func (s *AdmissionService) Reprocess(ctx context.Context, id uuid.UUID) (*ReprocessResult, error) {
	detection, err := s.detections.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if detection.Processed {
		return &ReprocessResult{
			DetectionID:  detection.ID,
			VehicleLogID: detection.VehicleLogID,
			NoAction:     true,
			Message:      "detection already processed - no action taken",
		}, nil
	}

	var logID *uuid.UUID
	incremented := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		detections := repository.NewDetectionRepository(tx)
		logs := repository.NewVehicleLogRepository(tx)
		zones := repository.NewZoneRepository(tx)

		first, err := detections.MarkProcessed(ctx, detection.ID)
		if err != nil {
			return err
		}
		if !first {
			// Lost a race against a concurrent reprocess; that call owns
			// the consequences.
			return nil
		}
		detection.Processed = true

		if detection.Decision != model.DecisionAllow || detection.ZoneID == nil {
			return nil
		}

		entry := &model.VehicleLog{
			NumberPlate:    detection.NumberPlate,
			Category:       detection.Category,
			FuelType:       detection.FuelType,
			Confidence:     detection.Confidence,
			EntryAt:        detection.DetectedAt,
			ZoneID:         *detection.ZoneID,
			PollutionScore: detection.PollutionScore,
		}
		if err := logs.Create(ctx, entry); err != nil {
			return err
		}
		if err := detections.SetVehicleLog(ctx, detection.ID, entry.ID); err != nil {
			return err
		}
		entryID := entry.ID
		logID = &entryID
		detection.VehicleLogID = &entryID

		claimed, err := zones.Increment(ctx, *detection.ZoneID)
		if err != nil {
			return err
		}
		if !claimed {
			// Decision is immutable at this point; the clamp keeps the
			// capacity invariant and we only note the overflow.
			s.log.Warn().Str("zone_id", detection.ZoneID.String()).
				Msg("reprocess increment clamped at capacity")
		}
		incremented = claimed
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &ReprocessResult{
		DetectionID:  detection.ID,
		VehicleLogID: logID,
		Message:      reprocessMessage(detection.Decision),
	}
	if logID == nil && detection.Decision == model.DecisionAllow {
		// Concurrent reprocess won; report its outcome.
		result.NoAction = true
		result.VehicleLogID = detection.VehicleLogID
		result.Message = "detection already processed - no action taken"
		return result, nil
	}

	s.publisher.Publish(notification.EventVehicleProcessed, map[string]any{
		"id":             detection.ID,
		"vehicle_log_id": logID,
	})
	if incremented && detection.ZoneID != nil {
		s.publishZoneSnapshot(ctx, *detection.ZoneID)
	}
	return result, nil
}

func (s *AdmissionService) publishZoneSnapshot(ctx context.Context, zoneID uuid.UUID) {
	snapshot, err := s.zones.Get(ctx, zoneID)
	if err != nil {
		s.log.Warn().Err(err).Str("zone_id", zoneID.String()).
			Msg("failed to load zone snapshot for notification")
		return
	}
	s.publisher.Publish(notification.EventZoneUpdated, snapshot)
}

func validateIngest(input IngestInput) error {
	if input.NumberPlate == "" {
		return fmt.Errorf("%w: missing required field numberPlate", ErrInvalidInput)
	}
	if input.Category == "" {
		return fmt.Errorf("%w: missing required field vehicleCategory", ErrInvalidInput)
	}
	if !model.VehicleCategory(input.Category).Valid() {
		return fmt.Errorf("%w: unknown vehicleCategory %q", ErrInvalidInput, input.Category)
	}
	if input.FuelType == "" {
		return fmt.Errorf("%w: missing required field fuelType", ErrInvalidInput)
	}
	if input.Confidence == nil {
		return fmt.Errorf("%w: missing required field confidence", ErrInvalidInput)
	}
	if *input.Confidence < 0 {
		return fmt.Errorf("%w: confidence must not be negative", ErrInvalidInput)
	}
	return nil
}

func admissionMessage(category model.VehicleCategory, decision model.Decision, zoneName string) string {
	switch decision {
	case model.DecisionIgnore:
		return "Commercial vehicle - Decision: Ignore"
	case model.DecisionAllow:
		return fmt.Sprintf("Private vehicle - Decision: Allow (Assigned to %s)", zoneName)
	default:
		return "Private vehicle - Decision: Warn (All zones full)"
	}
}

func reprocessMessage(decision model.Decision) string {
	switch decision {
	case model.DecisionAllow:
		return "vehicle admitted - session created"
	case model.DecisionWarn:
		return "vehicle warned - no session created"
	default:
		return "vehicle ignored - no session created"
	}
}
