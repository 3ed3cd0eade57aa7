package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/bankim/loan-engine/internal/quote"
	"github.com/bankim/loan-engine/pkg/amortization"
	"github.com/bankim/loan-engine/pkg/constants"
	"github.com/bankim/loan-engine/pkg/datetime"
	"github.com/bankim/loan-engine/pkg/format"
	"github.com/bankim/loan-engine/pkg/output"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rateFlag reads --rate, or the configured rate picked by pick when the flag
// is absent.
func rateFlag(cmd *cobra.Command, pick func(quote.Rates) float64) (float64, error) {
	if cmd.Flags().Changed("rate") {
		return cmd.Flags().GetFloat64("rate")
	}
	conf, err := loadConfiguration()
	if err != nil {
		return 0, fmt.Errorf("no --rate given and %w", err)
	}
	return pick(conf.Rates), nil
}

// optionalAmount returns nil when the flag was not given, which the
// calculators treat as a value the user has not entered yet.
func optionalAmount(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		return nil
	}
	return &v
}

func printResult(w io.Writer, label string, result amortization.Result, asJSON bool, render func(float64) string) error {
	if asJSON {
		return json.NewEncoder(w).Encode(map[string]any{label: result})
	}
	if !result.Ok() {
		_, err := fmt.Fprintf(w, "%s: %s\n", label, result.Outcome)
		return err
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", label, render(result.Value))
	return err
}

func years(v float64) string {
	return fmt.Sprintf("%.0f years", v)
}

func paymentCmd() *cobra.Command {
	var termYears float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Monthly mortgage payment for a price, down payment and term",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rate, err := rateFlag(cmd, func(r quote.Rates) float64 { return r.Mortgage })
			if err != nil {
				return err
			}
			v := amortization.MonthlyPayment(optionalAmount(cmd, "total"), optionalAmount(cmd, "down"), termYears, rate)
			return printResult(cmd.OutOrStdout(), "monthly payment", amortization.NewResult(v), asJSON, format.WholeShekels)
		},
	}
	cmd.Flags().Float64("total", 0, "price of the property or loan total")
	cmd.Flags().Float64("down", 0, "down payment")
	cmd.Flags().Float64VarP(&termYears, "years", "y", 0, "term in years")
	cmd.Flags().Float64("rate", 0, "annual interest rate in percent (default from configuration)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func termCmd() *cobra.Command {
	var monthly float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "term",
		Short: "Years needed to repay with a given monthly payment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rate, err := rateFlag(cmd, func(r quote.Rates) float64 { return r.Mortgage })
			if err != nil {
				return err
			}
			v := amortization.TermYears(optionalAmount(cmd, "total"), optionalAmount(cmd, "down"), monthly, rate)
			return printResult(cmd.OutOrStdout(), "term", amortization.NewResult(v), asJSON, years)
		},
	}
	cmd.Flags().Float64("total", 0, "price of the property or loan total")
	cmd.Flags().Float64("down", 0, "down payment")
	cmd.Flags().Float64VarP(&monthly, "monthly", "m", 0, "monthly payment")
	cmd.Flags().Float64("rate", 0, "annual interest rate in percent (default from configuration)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func remainingCmd() *cobra.Command {
	var termYears float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "remaining",
		Short: "Total still owed on a balance with simple interest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rate, err := rateFlag(cmd, func(r quote.Rates) float64 { return r.MortgageRefinance })
			if err != nil {
				return err
			}
			v := amortization.RemainingAmount(optionalAmount(cmd, "balance"), termYears, rate)
			return printResult(cmd.OutOrStdout(), "remaining amount", amortization.NewResult(v), asJSON, format.WholeShekels)
		},
	}
	cmd.Flags().Float64("balance", 0, "remaining principal")
	cmd.Flags().Float64VarP(&termYears, "years", "y", 0, "remaining years")
	cmd.Flags().Float64("rate", 0, "annual interest rate in percent (default from configuration)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func annuityCmd() *cobra.Command {
	var principal, termYears float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "annuity",
		Short: "Monthly credit payment, rounded up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rate, err := rateFlag(cmd, func(r quote.Rates) float64 { return r.Credit })
			if err != nil {
				return err
			}
			v := amortization.AnnuityPayment(principal, termYears, rate)
			return printResult(cmd.OutOrStdout(), "monthly payment", amortization.NewResult(v), asJSON, format.WholeShekels)
		},
	}
	cmd.Flags().Float64VarP(&principal, "principal", "p", 0, "credit amount")
	cmd.Flags().Float64VarP(&termYears, "years", "y", 0, "term in years")
	cmd.Flags().Float64("rate", 0, "annual interest rate in percent (default from configuration)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func scheduleCmd() *cobra.Command {
	var (
		terms        amortization.LoanTerms
		extra        map[string]string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Month-by-month amortization schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := output.ValidateOutputFormat(outputFormat); err != nil {
				return err
			}
			rate, err := rateFlag(cmd, func(r quote.Rates) float64 { return r.Mortgage })
			if err != nil {
				return err
			}
			terms.AnnualRatePercent = rate
			if terms.StartDate == "" {
				terms.StartDate = datetime.CurrentMonth(time.Now())
			}

			terms.ExtraPayments, err = parseExtraPayments(extra)
			if err != nil {
				return err
			}

			logger, err := initializeLogger(loggingDefaults(), logLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() {
				_ = logger.Sync()
			}()

			schedule, err := amortization.NewScheduleGenerator(logger).Generate(terms)
			if err != nil {
				logger.Error("failed to generate schedule",
					zap.String("op", "main.schedule"),
					zap.Error(err),
				)
				return err
			}
			return output.Write(cmd.OutOrStdout(), outputFormat, terms.Name, schedule)
		},
	}
	cmd.Flags().StringVar(&terms.Name, "name", "loan", "name shown in the schedule header")
	cmd.Flags().StringVar(&terms.StartDate, "start", "", "first payment month (YYYY-MM), defaults to the current month")
	cmd.Flags().Float64VarP(&terms.Principal, "principal", "p", 0, "loan principal or property price")
	cmd.Flags().Float64Var(&terms.DownPayment, "down", 0, "down payment subtracted from the principal")
	cmd.Flags().IntVarP(&terms.TermYears, "years", "y", 0, "term in years")
	cmd.Flags().Float64("rate", 0, "annual interest rate in percent (default from configuration)")
	cmd.Flags().StringToStringVar(&extra, "extra", nil, "early repayments as YYYY-MM=amount")
	cmd.Flags().StringVarP(&outputFormat, "output-format", "o", constants.OutputFormatPretty, "output format: pretty, csv")
	_ = cmd.MarkFlagRequired("principal")
	_ = cmd.MarkFlagRequired("years")
	return cmd
}

func parseExtraPayments(raw map[string]string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dates := make([]string, 0, len(raw))
	for date := range raw {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	out := make(map[string]float64, len(raw))
	for _, date := range dates {
		amount, err := cast.ToFloat64E(raw[date])
		if err != nil {
			return nil, fmt.Errorf("invalid early repayment for %s: %w", date, err)
		}
		out[date] = amount
	}
	return out, nil
}
