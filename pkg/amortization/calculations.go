// Package amortization provides the loan and mortgage payment calculations.
//
// The calculators never panic and never return errors. Edge cases are encoded
// in the returned number and callers branch on it:
//
//	1    the inputs are not complete yet (a nil amount)
//	0    the inputs are degenerate (non-positive term, amount or rate)
//	NaN  the result is mathematically impossible
//
// Classify turns a returned number into an Outcome for surfaces that cannot
// carry NaN, such as JSON.
package amortization

import (
	"math"

	"github.com/bankim/loan-engine/pkg/constants"
	"github.com/bankim/loan-engine/pkg/mathutil"
)

// Sentinel results shared by the calculators.
const (
	NotYetComputable = 1.0
	Degenerate       = 0.0
)

// Amount wraps a known value for the optional amount parameters.
func Amount(v float64) *float64 {
	return &v
}

// MonthlyPayment returns the fixed monthly payment for a mortgage of
// totalAmount with downPayment paid upfront, truncated to whole currency units.
func MonthlyPayment(totalAmount, downPayment *float64, termYears, annualRatePercent float64) float64 {
	if totalAmount == nil || downPayment == nil {
		return NotYetComputable
	}
	total, down := *totalAmount, *downPayment
	if termYears <= 0 || total <= 0 || annualRatePercent <= 0 {
		return Degenerate
	}
	if down >= total {
		return Degenerate
	}

	loan := total - down
	r := mathutil.MonthlyRate(annualRatePercent)
	factor := math.Pow(1+r, termYears*constants.MonthsPerYear)
	return mathutil.Truncate(loan * r * factor / (factor - 1))
}

// TermYears returns how many whole years it takes to repay the mortgage with
// the given monthly payment. NaN means the payment never covers the interest.
func TermYears(totalAmount, downPayment *float64, monthlyPayment, annualRatePercent float64) float64 {
	if totalAmount == nil || downPayment == nil {
		return NotYetComputable
	}
	total, down := *totalAmount, *downPayment
	if mathutil.AnyNaN(total, down, monthlyPayment, annualRatePercent) {
		return math.NaN()
	}
	if total <= 0 || monthlyPayment <= 0 || annualRatePercent <= 0 || down >= total {
		return Degenerate
	}

	loan := total - down
	r := mathutil.MonthlyRate(annualRatePercent)
	if monthlyPayment <= loan*r {
		return math.NaN()
	}

	months := math.Log(monthlyPayment/(monthlyPayment-loan*r)) / math.Log(1+r)
	if math.IsNaN(months) || math.IsInf(months, 0) || months <= 0 {
		return math.NaN()
	}
	return mathutil.Truncate(months / constants.MonthsPerYear)
}

// RemainingAmount approximates the total still to be paid on a balance with
// simple, non-compounding interest over the remaining years.
func RemainingAmount(remainingPrincipal *float64, remainingYears, annualRatePercent float64) float64 {
	if remainingPrincipal == nil {
		return Degenerate
	}
	principal := *remainingPrincipal
	if mathutil.AnyNaN(principal, remainingYears, annualRatePercent) {
		return math.NaN()
	}
	if principal <= 0 || remainingYears <= 0 || annualRatePercent <= 0 {
		return Degenerate
	}
	return mathutil.Truncate(principal * (1 + annualRatePercent*remainingYears/constants.PercentageMultiplier))
}

// AnnuityPayment returns the monthly credit payment rounded up to the next
// whole currency unit, so a quote never understates the obligation.
func AnnuityPayment(principal, termYears, annualRatePercent float64) float64 {
	if mathutil.AnyNaN(principal, termYears, annualRatePercent) {
		return math.NaN()
	}
	if principal == 0 || termYears <= 0 {
		return Degenerate
	}

	months := termYears * constants.MonthsPerYear
	if annualRatePercent <= 0 {
		return mathutil.Ceil(principal / months)
	}

	r := mathutil.MonthlyRate(annualRatePercent)
	factor := math.Pow(1+r, months)
	return mathutil.Ceil(principal * (r * factor) / (factor - 1))
}

// InterestPayment calculates the interest portion of a monthly payment.
func InterestPayment(remainingPrincipal, annualRatePercent float64) float64 {
	return remainingPrincipal * mathutil.MonthlyRate(annualRatePercent)
}

// levelPayment is the untruncated amortizing payment used by schedules.
func levelPayment(loan, annualRatePercent float64, termMonths int) float64 {
	if termMonths <= 0 {
		return 0
	}
	if annualRatePercent == 0 {
		return loan / float64(termMonths)
	}
	r := mathutil.MonthlyRate(annualRatePercent)
	power := math.Pow(1+r, float64(termMonths))
	discountFactor := (power - 1) / power
	return loan * r / discountFactor
}
