package amortization

import (
	"fmt"

	"github.com/bankim/loan-engine/pkg/constants"
	"github.com/bankim/loan-engine/pkg/datetime"
	"github.com/bankim/loan-engine/pkg/mathutil"
	"go.uber.org/zap"
)

// Payment holds the values for a given month of the schedule.
type Payment struct {
	Month              int     `json:"month"`
	Date               string  `json:"date"`
	Payment            float64 `json:"payment"`
	Principal          float64 `json:"principal"`
	Interest           float64 `json:"interest"`
	ExtraPrincipal     float64 `json:"extraPrincipal,omitempty"`
	RemainingPrincipal float64 `json:"remainingPrincipal"`
}

// LoanTerms describes a loan for schedule generation.
type LoanTerms struct {
	Name              string
	StartDate         string // YYYY-MM of the first payment
	Principal         float64
	DownPayment       float64
	TermYears         int
	AnnualRatePercent float64
	// ExtraPayments maps YYYY-MM to an early repayment applied that month.
	ExtraPayments map[string]float64
}

// ScheduleGenerator produces month-by-month amortization schedules.
type ScheduleGenerator struct {
	logger *zap.Logger
}

// NewScheduleGenerator creates a new generator instance
func NewScheduleGenerator(logger *zap.Logger) *ScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleGenerator{logger: logger}
}

// Generate creates the complete schedule for a loan. Early repayments are
// capped to the outstanding balance and shorten the schedule.
func (g *ScheduleGenerator) Generate(loan LoanTerms) ([]Payment, error) {
	if loan.TermYears <= 0 {
		return nil, fmt.Errorf("term must be positive, got %d years", loan.TermYears)
	}
	if loan.AnnualRatePercent < 0 {
		return nil, fmt.Errorf("rate must not be negative, got %.3f", loan.AnnualRatePercent)
	}
	balance := loan.Principal - loan.DownPayment
	if balance <= 0 {
		return nil, fmt.Errorf("nothing to finance: principal %.2f, down payment %.2f", loan.Principal, loan.DownPayment)
	}
	if err := checkExtraPaymentDates(loan); err != nil {
		return nil, err
	}

	termMonths := loan.TermYears * constants.MonthsPerYear
	monthlyPayment := levelPayment(balance, loan.AnnualRatePercent, termMonths)
	schedule := make([]Payment, 0, termMonths)

	currentMonth := loan.StartDate
	for month := 1; month <= termMonths; month++ {
		var current Payment
		current.Month = month
		current.Date = currentMonth

		current.Interest = InterestPayment(balance, loan.AnnualRatePercent)
		current.Principal = monthlyPayment - current.Interest

		extra := g.extraPrincipal(loan, currentMonth, balance-current.Principal)
		current.ExtraPrincipal = extra
		current.Payment = monthlyPayment + extra

		left := balance - current.Principal - extra
		if month == termMonths || left < 0 || mathutil.IsZero(left) {
			// Last payment clears whatever machine error is left.
			current.Principal = balance - extra
			current.Payment = current.Principal + current.Interest + extra
			current.RemainingPrincipal = 0
			schedule = append(schedule, current)
			if month < termMonths {
				g.logger.Debug(fmt.Sprintf("%s: loan %s repaid after %d of %d months", currentMonth, loan.Name, month, termMonths),
					zap.String("op", "amortization.Generate"),
				)
			}
			break
		}

		balance -= current.Principal + extra
		current.RemainingPrincipal = balance
		schedule = append(schedule, current)

		if currentMonth != "" {
			next, err := datetime.OffsetDate(currentMonth, datetime.DateTimeLayout, 1)
			if err != nil {
				return nil, err
			}
			currentMonth = next
		}
	}

	return schedule, nil
}

// checkExtraPaymentDates rejects early repayments dated before the first
// payment month.
func checkExtraPaymentDates(loan LoanTerms) error {
	if loan.StartDate == "" {
		return nil
	}
	for date := range loan.ExtraPayments {
		before, err := datetime.DateBeforeDate(date, loan.StartDate)
		if err != nil {
			return fmt.Errorf("invalid early repayment date %q: %w", date, err)
		}
		if before {
			return fmt.Errorf("early repayment %s precedes the first payment %s", date, loan.StartDate)
		}
	}
	return nil
}

// extraPrincipal returns the early repayment for date, capped to what is left
// after the regular principal.
func (g *ScheduleGenerator) extraPrincipal(loan LoanTerms, date string, remaining float64) float64 {
	amount, ok := loan.ExtraPayments[date]
	if !ok || amount <= 0 || remaining <= 0 {
		return 0
	}
	if amount > remaining {
		g.logger.Debug("Capping extra principal payment to prevent overpayment",
			zap.String("op", "amortization.extraPrincipal"),
			zap.String("date", date),
			zap.String("loan", loan.Name),
			zap.Float64("requested", amount),
			zap.Float64("capped_to_balance", remaining))
		return mathutil.Min(amount, remaining)
	}
	g.logger.Debug(fmt.Sprintf("%s: applying extra principal payment %.2f for loan %s", date, amount, loan.Name),
		zap.String("op", "amortization.extraPrincipal"),
	)
	return amount
}

// TotalInterest sums the interest paid over a schedule.
func TotalInterest(schedule []Payment) float64 {
	total := 0.0
	for _, p := range schedule {
		total += p.Interest
	}
	return mathutil.Round(total)
}

// TotalPaid sums every payment made over a schedule.
func TotalPaid(schedule []Payment) float64 {
	total := 0.0
	for _, p := range schedule {
		total += p.Payment
	}
	return mathutil.Round(total)
}
