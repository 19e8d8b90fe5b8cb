// internal/services/rental_policy.go
package services

import "github.com/ledrent/ledrent-backend/internal/models"

// TransitionPolicy decides which rental status changes are accepted.
// Membership in the closed status set is checked before the policy runs.
type TransitionPolicy interface {
	Name() string
	Allow(from, to models.RentalStatus) bool
}

// LoosePolicy accepts any status change, so staff can override a rental into any state.
type LoosePolicy struct{}

func (LoosePolicy) Name() string { return "loose" }

func (LoosePolicy) Allow(from, to models.RentalStatus) bool { return true }

// StrictPolicy follows the booking lifecycle graph. Re-applying the current status is always accepted.
type StrictPolicy struct{}

var strictTransitions = map[models.RentalStatus][]models.RentalStatus{
	models.RentalStatusPending:   {models.RentalStatusConfirmed, models.RentalStatusCancelled},
	models.RentalStatusConfirmed: {models.RentalStatusActive, models.RentalStatusCancelled},
	models.RentalStatusActive:    {models.RentalStatusCompleted, models.RentalStatusReturned},
	models.RentalStatusCompleted: {models.RentalStatusReturned},
}

func (StrictPolicy) Name() string { return "strict" }

func (StrictPolicy) Allow(from, to models.RentalStatus) bool {
	if from == to {
		return true
	}
	for _, next := range strictTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PolicyFor returns StrictPolicy when strict is set, LoosePolicy otherwise.
func PolicyFor(strict bool) TransitionPolicy {
	if strict {
		return StrictPolicy{}
	}
	return LoosePolicy{}
}
