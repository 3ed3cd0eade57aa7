// Package quote derives payment figures from the current application record.
package quote

import (
	"errors"
	"fmt"

	"github.com/bankim/loan-engine/internal/metrics"
	"github.com/bankim/loan-engine/internal/wizard"
	"github.com/bankim/loan-engine/pkg/amortization"
)

// ErrRateUnavailable is returned when no rate is configured for a flow.
var ErrRateUnavailable = errors.New("interest rate unavailable")

// Rates are the annual interest rates in percent offered per flow.
type Rates struct {
	Mortgage          float64 `mapstructure:"mortgage" yaml:"mortgage" json:"mortgage"`
	MortgageRefinance float64 `mapstructure:"mortgageRefinance" yaml:"mortgageRefinance" json:"mortgageRefinance"`
	Credit            float64 `mapstructure:"credit" yaml:"credit" json:"credit"`
	CreditRefinance   float64 `mapstructure:"creditRefinance" yaml:"creditRefinance" json:"creditRefinance"`
}

// For returns the rate for flow.
func (r Rates) For(flow wizard.Flow) (float64, error) {
	var rate float64
	switch flow {
	case wizard.MortgageCalculation:
		rate = r.Mortgage
	case wizard.MortgageRefinance:
		rate = r.MortgageRefinance
	case wizard.CreditCalculation:
		rate = r.Credit
	case wizard.CreditRefinance:
		rate = r.CreditRefinance
	default:
		return 0, fmt.Errorf("%w: %q", wizard.ErrUnknownFlow, flow)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("%w for %s", ErrRateUnavailable, flow)
	}
	return rate, nil
}

// Quote holds the figures derived for one record.
type Quote struct {
	Flow               wizard.Flow          `json:"flow"`
	AnnualRatePercent  float64              `json:"annualRatePercent"`
	MonthlyPayment     *amortization.Result `json:"monthlyPayment,omitempty"`
	TermYears          *amortization.Result `json:"termYears,omitempty"`
	RemainingAmount    *amortization.Result `json:"remainingAmount,omitempty"`
	MinimumDownPayment *float64             `json:"minimumDownPayment,omitempty"`
}

// Derive picks the calculators that apply to flow and runs them on values.
// A missing period leaves the dependent figures pending rather than
// degenerate, since the user has not reached that field yet.
func Derive(flow wizard.Flow, values wizard.Values, rates Rates) (Quote, error) {
	rate, err := rates.For(flow)
	if err != nil {
		return Quote{}, err
	}
	q := Quote{Flow: flow, AnnualRatePercent: rate}
	period, hasPeriod := values.Float(wizard.FieldPeriod)

	switch flow {
	case wizard.MortgageCalculation:
		total := values.FloatPtr(wizard.FieldPriceOfEstate)
		down := values.FloatPtr(wizard.FieldInitialFee)
		q.MonthlyPayment = result("monthly_payment", hasPeriod, func() float64 {
			return amortization.MonthlyPayment(total, down, period, rate)
		})
		if payment, ok := values.Float(wizard.FieldMonthlyPayment); ok {
			q.TermYears = result("term_years", true, func() float64 {
				return amortization.TermYears(total, down, payment, rate)
			})
		}
		if total != nil {
			ownership, _ := amortization.ParsePropertyOwnership(values.String(wizard.FieldPropertyOwnership))
			minimum := amortization.MinimumDownPayment(*total, ownership)
			q.MinimumDownPayment = &minimum
		}

	case wizard.MortgageRefinance:
		balance := values.FloatPtr(wizard.FieldMortgageBalance)
		q.MonthlyPayment = result("monthly_payment", hasPeriod, func() float64 {
			return amortization.MonthlyPayment(balance, amortization.Amount(0), period, rate)
		})
		q.RemainingAmount = result("remaining_amount", hasPeriod, func() float64 {
			return amortization.RemainingAmount(balance, period, rate)
		})

	case wizard.CreditCalculation:
		amount, hasAmount := values.Float(wizard.FieldLoanAmount)
		q.MonthlyPayment = result("annuity_payment", hasPeriod && hasAmount, func() float64 {
			return amortization.AnnuityPayment(amount, period, rate)
		})

	case wizard.CreditRefinance:
		amount := values.FloatPtr(wizard.FieldLoanAmount)
		if payment, ok := values.Float(wizard.FieldMonthlyPayment); ok {
			q.TermYears = result("term_years", true, func() float64 {
				return amortization.TermYears(amount, amortization.Amount(0), payment, rate)
			})
		}
		q.MonthlyPayment = result("annuity_payment", hasPeriod && amount != nil, func() float64 {
			return amortization.AnnuityPayment(*amount, period, rate)
		})
	}
	return q, nil
}

func result(calculator string, ready bool, calc func() float64) *amortization.Result {
	r := amortization.PendingResult()
	if ready {
		r = amortization.NewResult(calc())
	}
	metrics.Calculations.WithLabelValues(calculator, string(r.Outcome)).Inc()
	return &r
}
