package revision

import (
	domain "locatio/pkg/domain"
	dErrors "locatio/pkg/domain-errors"
)

// Result holds the figures of one indexation computation, rounded to cents.
type Result struct {
	NewRent    float64
	Increase   float64
	Percentage float64
}

// Compute applies the IRL indexation formula. The index variation is
// rounded to a percentage first and the new rent is derived from that
// rounded percentage:
//
//	percentage = round2((newIRL - referenceIRL) / referenceIRL * 100)
//	newRent    = round2(oldRent * (1 + percentage/100))
//
// This is the figure the parties see on the revision letter, so the rent
// must follow from it rather than from the raw index ratio. Both index
// values must be strictly positive; the published IRL is never zero or
// negative, so anything else is caller input error.
func Compute(oldRent, referenceIRL, newIRL float64) (Result, error) {
	if referenceIRL <= 0 || newIRL <= 0 {
		return Result{}, dErrors.New(dErrors.CodeInvalidIndex, "IRL index values must be strictly positive")
	}
	if oldRent <= 0 {
		return Result{}, dErrors.New(dErrors.CodeValidation, "rent amount must be strictly positive")
	}

	percentage := domain.Round2((newIRL - referenceIRL) / referenceIRL * 100)
	newRent := domain.Round2(oldRent * (1 + percentage/100))
	increase := domain.Round2(newRent - oldRent)

	return Result{NewRent: newRent, Increase: increase, Percentage: percentage}, nil
}
