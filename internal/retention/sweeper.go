package retention

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"parking-service/internal/service"
)

// Sweeper periodically deletes processed detections past the retention
// window. Unprocessed detections are never touched.
type Sweeper struct {
	detections *service.DetectionService
	interval   time.Duration
	window     time.Duration
	log        zerolog.Logger
}

func NewSweeper(detections *service.DetectionService, interval, window time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		detections: detections,
		interval:   interval,
		window:     window,
		log:        log,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	deleted, err := s.detections.Purge(ctx, s.window)
	if err != nil {
		s.log.Error().Err(err).Msg("retention sweep failed")
		return
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Dur("window", s.window).Msg("purged processed detections")
	}
}
