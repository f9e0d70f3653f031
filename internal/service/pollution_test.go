package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"parking-service/internal/model"
)

func TestPollutionScorer(t *testing.T) {
	scorer := NewPollutionScorer()

	for i := 0; i < 100; i++ {
		score := scorer.Score(model.FuelICE)
		assert.GreaterOrEqual(t, score, 40)
		assert.LessOrEqual(t, score, 49)
	}

	assert.Equal(t, 0, scorer.Score(model.FuelEV))
	assert.Equal(t, 0, scorer.Score("Hybrid"))
	assert.Equal(t, 0, scorer.Score(""))
}
