package services

import "github.com/leakwatch/leakwatch-api/internal/models"

// Pure scoring helpers shared by the detectors. Thresholds are evaluated
// from critical down to low; the first matching tier wins.

// PriorityFor classifies a leak by the money at stake and how long it has
// been outstanding.
func PriorityFor(amount float64, daysOverdue int) string {
	switch {
	case amount > 50000 || daysOverdue > 90:
		return models.LeakPriorityCritical
	case amount > 10000 || daysOverdue > 60:
		return models.LeakPriorityHigh
	case amount > 5000 || daysOverdue > 30:
		return models.LeakPriorityMedium
	default:
		return models.LeakPriorityLow
	}
}

// ConfidenceFor returns the heuristic certainty (0-100) that an overdue
// invoice represents real leakage. Certainty grows with age.
func ConfidenceFor(daysOverdue int) int {
	switch {
	case daysOverdue > 90:
		return 95
	case daysOverdue > 60:
		return 90
	case daysOverdue > 30:
		return 85
	case daysOverdue > 15:
		return 80
	default:
		return 70
	}
}
