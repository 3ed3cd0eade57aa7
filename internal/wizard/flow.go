// Package wizard holds the multi-step loan application record and the pure
// functions that evolve it.
package wizard

import (
	"errors"
	"fmt"
	"strings"
)

// Flow identifies which application a wizard instance collects.
type Flow string

const (
	MortgageCalculation Flow = "mortgage-calculation"
	MortgageRefinance   Flow = "mortgage-refinance"
	CreditCalculation   Flow = "credit-calculation"
	CreditRefinance     Flow = "credit-refinance"
)

// Steps is the number of form steps validated before submission.
const Steps = 3

// ErrUnknownFlow is returned when a flow name is not recognized.
var ErrUnknownFlow = errors.New("unknown flow")

// Flows lists every supported flow.
func Flows() []Flow {
	return []Flow{MortgageCalculation, MortgageRefinance, CreditCalculation, CreditRefinance}
}

// ParseFlow accepts the canonical flow names as well as the route names used by
// the web client (calculate-mortgage, refinance-mortgage, ...).
func ParseFlow(raw string) (Flow, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(MortgageCalculation), "calculate-mortgage", "mortgage":
		return MortgageCalculation, nil
	case string(MortgageRefinance), "refinance-mortgage":
		return MortgageRefinance, nil
	case string(CreditCalculation), "calculate-credit", "credit":
		return CreditCalculation, nil
	case string(CreditRefinance), "refinance-credit":
		return CreditRefinance, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFlow, raw)
}

// IsMortgage reports whether the flow finances a property.
func (f Flow) IsMortgage() bool {
	return f == MortgageCalculation || f == MortgageRefinance
}

// IsRefinance reports whether the flow replaces an existing loan.
func (f Flow) IsRefinance() bool {
	return f == MortgageRefinance || f == CreditRefinance
}
