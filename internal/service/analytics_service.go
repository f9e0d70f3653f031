package service

import (
	"context"
	"math"
	"sort"
	"time"

	"parking-service/internal/repository"
)

const (
	pollutionWindow     = 48 * time.Hour
	statsWindow         = 24 * time.Hour
	dailyAnalyticsDays  = 7
	pollutionIndexFloor = 21
	pollutionIndexCeil  = 95
	iceWeight           = 1.0
	evWeight            = 0.2
	volumeSaturation    = 50.0
)

// AnalyticsService derives dashboard aggregates from the detection and
// session ledgers.
type AnalyticsService struct {
	detections *repository.DetectionRepository
	logs       *repository.VehicleLogRepository
	now        func() time.Time
}

func NewAnalyticsService(detections *repository.DetectionRepository, logs *repository.VehicleLogRepository) *AnalyticsService {
	return &AnalyticsService{
		detections: detections,
		logs:       logs,
		now:        time.Now,
	}
}

type PollutionIndex struct {
	Index    int   `json:"pollution_index"`
	IceCount int64 `json:"ice_count"`
	EvCount  int64 `json:"ev_count"`
	Total    int64 `json:"total_vehicles"`
}

// Pollution estimates local air impact from the fuel mix of recent traffic.
// ICE traffic counts at full weight, EV at one fifth; the weighted share is
// scaled by traffic volume, saturating at 50 vehicles, then clamped into the
// 21..95 reporting band. No traffic at all reads as zero.
func (s *AnalyticsService) Pollution(ctx context.Context) (*PollutionIndex, error) {
	since := s.now().UTC().Add(-pollutionWindow)
	counts, err := s.detections.FuelCounts(ctx, since)
	if err != nil {
		return nil, err
	}

	out := &PollutionIndex{
		IceCount: counts.IceCount,
		EvCount:  counts.EvCount,
		Total:    counts.Total,
	}
	if counts.Total == 0 {
		return out, nil
	}

	weighted := (float64(counts.IceCount)*iceWeight + float64(counts.EvCount)*evWeight) / float64(counts.Total)
	norm := math.Min(float64(counts.Total)/volumeSaturation, 1)
	index := int(math.Round(weighted * 100 * norm))
	if index < pollutionIndexFloor {
		index = pollutionIndexFloor
	}
	if index > pollutionIndexCeil {
		index = pollutionIndexCeil
	}
	out.Index = index
	return out, nil
}

func (s *AnalyticsService) Stats(ctx context.Context) (repository.DetectionStats, error) {
	since := s.now().UTC().Add(-statsWindow)
	return s.detections.Stats(ctx, since)
}

func (s *AnalyticsService) FuelDistribution(ctx context.Context) ([]repository.FuelDistributionRow, error) {
	return s.logs.FuelDistribution(ctx)
}

type DailyBucket struct {
	Date         string  `json:"date"`
	Count        int64   `json:"count"`
	AvgPollution float64 `json:"avg_pollution"`
}

// Daily returns per-day detection counts and mean pollution scores for the
// trailing week, oldest day first. Days with no traffic are omitted.
func (s *AnalyticsService) Daily(ctx context.Context) ([]DailyBucket, error) {
	since := s.now().UTC().AddDate(0, 0, -dailyAnalyticsDays)
	samples, err := s.detections.Samples(ctx, since)
	if err != nil {
		return nil, err
	}

	type acc struct {
		count int64
		sum   float64
	}
	byDay := make(map[string]*acc)
	var order []string
	for _, sample := range samples {
		day := sample.DetectedAt.UTC().Format("2006-01-02")
		bucket, ok := byDay[day]
		if !ok {
			bucket = &acc{}
			byDay[day] = bucket
			order = append(order, day)
		}
		bucket.count++
		bucket.sum += float64(sample.PollutionScore)
	}
	sort.Strings(order)

	out := make([]DailyBucket, 0, len(order))
	for _, day := range order {
		bucket := byDay[day]
		out = append(out, DailyBucket{
			Date:         day,
			Count:        bucket.count,
			AvgPollution: math.Round(bucket.sum/float64(bucket.count)*100) / 100,
		})
	}
	return out, nil
}
