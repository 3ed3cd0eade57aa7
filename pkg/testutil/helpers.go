// Package testutil provides common utility functions for testing.
package testutil

import (
	"time"

	"github.com/bankim/loan-engine/pkg/amortization"
)

// FindPayment finds the payment for a YYYY-MM date in a schedule.
// Returns a pointer to the payment if found, nil otherwise.
func FindPayment(schedule []amortization.Payment, date string) *amortization.Payment {
	for i := range schedule {
		if schedule[i].Date == date {
			return &schedule[i]
		}
	}
	return nil
}

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
