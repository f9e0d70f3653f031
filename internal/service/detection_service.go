package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"parking-service/internal/model"
	"parking-service/internal/repository"
)

const (
	defaultHistoryPage  = 1
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	defaultUnprocessed  = 50
)

// DetectionService serves the raw detection ledger: history, unprocessed
// backlog and retention purges. Decision making lives in AdmissionService.
type DetectionService struct {
	detections *repository.DetectionRepository
}

func NewDetectionService(detections *repository.DetectionRepository) *DetectionService {
	return &DetectionService{detections: detections}
}

func (s *DetectionService) Get(ctx context.Context, id uuid.UUID) (*model.Detection, error) {
	detection, err := s.detections.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return detection, nil
}

type HistoryPage struct {
	Items      []repository.DetectionWithZone `json:"items"`
	Total      int64                          `json:"total"`
	Page       int                            `json:"page"`
	Limit      int                            `json:"limit"`
	TotalPages int                            `json:"total_pages"`
}

func (s *DetectionService) History(ctx context.Context, filter repository.DetectionHistoryFilter) (*HistoryPage, error) {
	if filter.Page <= 0 {
		filter.Page = defaultHistoryPage
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultHistoryLimit
	}
	if filter.Limit > maxHistoryLimit {
		filter.Limit = maxHistoryLimit
	}
	items, total, err := s.detections.History(ctx, filter)
	if err != nil {
		return nil, err
	}
	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &HistoryPage{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *DetectionService) ListUnprocessed(ctx context.Context, limit int) ([]repository.DetectionWithZone, error) {
	if limit <= 0 {
		limit = defaultUnprocessed
	}
	return s.detections.ListUnprocessed(ctx, limit)
}

// Purge deletes processed detections older than the cutoff. Unprocessed
// rows are kept regardless of age so they can still be reprocessed.
func (s *DetectionService) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("%w: retention window must be positive", ErrInvalidInput)
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	return s.detections.PurgeProcessedBefore(ctx, cutoff)
}
