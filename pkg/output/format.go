// Package output provides utilities for formatting and displaying amortization schedules.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/bankim/loan-engine/pkg/amortization"
	"github.com/bankim/loan-engine/pkg/constants"
	"github.com/bankim/loan-engine/pkg/format"
)

var csvHeader = []string{"month", "date", "payment", "principal", "interest", "extra principal", "remaining principal"}

// ValidateOutputFormat checks that a given output format is one of the supported types.
func ValidateOutputFormat(outputFormat string) error {
	switch outputFormat {
	case constants.OutputFormatPretty, constants.OutputFormatCSV:
		return nil
	}
	return fmt.Errorf("invalid output format %q, must be %s or %s",
		outputFormat, constants.OutputFormatPretty, constants.OutputFormatCSV)
}

// Write renders schedule to w in outputFormat.
func Write(w io.Writer, outputFormat, name string, schedule []amortization.Payment) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return PrettySchedule(w, name, schedule)
	case constants.OutputFormatCSV:
		return CSVSchedule(w, schedule)
	}
	return ValidateOutputFormat(outputFormat)
}

// PrettySchedule writes a human-readable rather than machine-readable table.
func PrettySchedule(w io.Writer, name string, schedule []amortization.Payment) error {
	var b strings.Builder
	fmt.Fprintf(&b, "--- Amortization schedule for %s ---\n", name)
	fmt.Fprintf(&b, "Month | Date    | Payment       | Principal     | Interest      | Remaining\n")
	fmt.Fprintf(&b, "_____ | _______ | _____________ | _____________ | _____________ | _____________\n")
	for _, p := range schedule {
		fmt.Fprintf(&b, "%5d | %s | %13s | %13s | %13s | %13s\n",
			p.Month, p.Date,
			format.Currency(p.Payment),
			format.Currency(p.Principal+p.ExtraPrincipal),
			format.Currency(p.Interest),
			format.Currency(p.RemainingPrincipal),
		)
	}
	fmt.Fprintf(&b, "\nTotal paid: %s\nTotal interest: %s\n",
		format.Currency(amortization.TotalPaid(schedule)),
		format.Currency(amortization.TotalInterest(schedule)),
	)
	_, err := io.WriteString(w, b.String())
	return err
}

// CSVSchedule writes the schedule in comma-separated value format.
func CSVSchedule(w io.Writer, schedule []amortization.Payment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range schedule {
		record := []string{
			fmt.Sprintf("%d", p.Month),
			p.Date,
			fmt.Sprintf("%.2f", p.Payment),
			fmt.Sprintf("%.2f", p.Principal),
			fmt.Sprintf("%.2f", p.Interest),
			fmt.Sprintf("%.2f", p.ExtraPrincipal),
			fmt.Sprintf("%.2f", p.RemainingPrincipal),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVString returns the CSV rendering of schedule.
func CSVString(schedule []amortization.Payment) string {
	var b strings.Builder
	_ = CSVSchedule(&b, schedule)
	return b.String()
}
