package testutil

import (
	"testing"
	"time"

	"github.com/bankim/loan-engine/pkg/amortization"
)

func TestFindPayment(t *testing.T) {
	schedule := []amortization.Payment{
		{Month: 1, Date: "2025-01", Payment: 100},
		{Month: 2, Date: "2025-02", Payment: 200},
	}

	tests := []struct {
		name     string
		date     string
		expected float64
		found    bool
	}{
		{"first month", "2025-01", 100, true},
		{"second month", "2025-02", 200, true},
		{"missing month", "2025-03", 0, false},
		{"empty date", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindPayment(schedule, tt.date)
			if !tt.found {
				if got != nil {
					t.Errorf("FindPayment(%q) = %+v, want nil", tt.date, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("FindPayment(%q) returned nil", tt.date)
			}
			if got.Payment != tt.expected {
				t.Errorf("FindPayment(%q).Payment = %v, want %v", tt.date, got.Payment, tt.expected)
			}
		})
	}

	if FindPayment(nil, "2025-01") != nil {
		t.Error("FindPayment on nil schedule should return nil")
	}
}

func TestFindPaymentReturnsSchedulePointer(t *testing.T) {
	schedule := []amortization.Payment{{Month: 1, Date: "2025-01", Payment: 100}}
	FindPayment(schedule, "2025-01").Payment = 150
	if schedule[0].Payment != 150 {
		t.Error("FindPayment should point into the schedule")
	}
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	clock := FixedClock(at)
	if !clock().Equal(at) || !clock().Equal(at) {
		t.Error("FixedClock should always return the same time")
	}
}
