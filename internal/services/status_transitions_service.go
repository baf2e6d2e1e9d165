package services

import "kalyana/internal/models"

// Допустимые переходы статусов партии излишков.
var SurplusTransitions = map[models.SurplusStatus]map[models.SurplusStatus]bool{
	models.SurplusPending:   {models.SurplusAvailable: true},
	models.SurplusAvailable: {models.SurplusRequested: true},
	models.SurplusRequested: {models.SurplusCompleted: true},
	models.SurplusCompleted: {}, // финалка
}

// "allocated" зарезервирован: ни один переход в него не ведёт.
var AllocationTransitions = map[models.AllocationStatus]map[models.AllocationStatus]bool{
	models.AllocationRequested: {models.AllocationCompleted: true},
	models.AllocationAllocated: {models.AllocationCompleted: true},
	models.AllocationCompleted: {},
}

func canTransition[S comparable](current, to S, table map[S]map[S]bool) bool {
	nexts, ok := table[current]
	if !ok {
		return false
	}
	return nexts[to]
}
