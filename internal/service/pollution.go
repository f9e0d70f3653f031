package service

import (
	"math/rand/v2"

	"parking-service/internal/model"
)

// PollutionScorer draws the pollution score stored on a detection. The draw
// is isolated here so tests can substitute a deterministic source without
// touching the decision engine.
type PollutionScorer interface {
	Score(fuelType string) int
}

// randomScorer scores combustion vehicles with a random value in [40, 49]
// and everything else as zero-emission.
type randomScorer struct{}

func NewPollutionScorer() PollutionScorer {
	return randomScorer{}
}

func (randomScorer) Score(fuelType string) int {
	if fuelType == model.FuelICE {
		return 40 + rand.IntN(10)
	}
	return 0
}
