package services

import (
	"testing"

	"github.com/leakwatch/leakwatch-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestPriorityFor(t *testing.T) {
	// Amount thresholds with no aging.
	assert.Equal(t, models.LeakPriorityLow, PriorityFor(1000, 0))
	assert.Equal(t, models.LeakPriorityMedium, PriorityFor(5001, 0))
	assert.Equal(t, models.LeakPriorityHigh, PriorityFor(10001, 0))
	assert.Equal(t, models.LeakPriorityCritical, PriorityFor(50001, 0))

	// Aging thresholds with a small amount.
	assert.Equal(t, models.LeakPriorityLow, PriorityFor(100, 30))
	assert.Equal(t, models.LeakPriorityMedium, PriorityFor(100, 31))
	assert.Equal(t, models.LeakPriorityHigh, PriorityFor(100, 61))
	assert.Equal(t, models.LeakPriorityCritical, PriorityFor(100, 91))

	// Either trigger alone is enough for the tier.
	assert.Equal(t, models.LeakPriorityCritical, PriorityFor(60000, 1))
}

func TestConfidenceFor(t *testing.T) {
	assert.Equal(t, 70, ConfidenceFor(0))
	assert.Equal(t, 70, ConfidenceFor(15))
	assert.Equal(t, 80, ConfidenceFor(16))
	assert.Equal(t, 85, ConfidenceFor(31))
	assert.Equal(t, 90, ConfidenceFor(61))
	assert.Equal(t, 95, ConfidenceFor(91))
}

func TestScoring_Monotonicity(t *testing.T) {
	rank := map[string]int{
		models.LeakPriorityLow:      0,
		models.LeakPriorityMedium:   1,
		models.LeakPriorityHigh:     2,
		models.LeakPriorityCritical: 3,
	}

	amounts := []float64{0, 1000, 5001, 10001, 50001, 100000}
	days := []int{0, 10, 31, 61, 91, 200}

	for _, amount := range amounts {
		prev := -1
		for _, d := range days {
			current := rank[PriorityFor(amount, d)]
			assert.GreaterOrEqual(t, current, prev, "priority must not decrease as aging grows (amount=%v)", amount)
			prev = current
		}
	}

	for _, d := range days {
		prev := -1
		for _, amount := range amounts {
			current := rank[PriorityFor(amount, d)]
			assert.GreaterOrEqual(t, current, prev, "priority must not decrease as amount grows (days=%v)", d)
			prev = current
		}
	}

	prevConfidence := -1
	for _, d := range days {
		current := ConfidenceFor(d)
		assert.GreaterOrEqual(t, current, prevConfidence)
		prevConfidence = current
	}
}
