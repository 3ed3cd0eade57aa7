// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/bankim/loan-engine/pkg/constants"
)

const (
	// DateTimeLayout is the month layout used for schedule dates.
	DateTimeLayout = constants.DateTimeLayout
)

// inputLayouts lists the date layouts accepted from wizard forms, most
// specific first. Date pickers send ISO days, older screens send dd/mm/yyyy.
var inputLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02.01.2006",
	DateTimeLayout,
}

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// OffsetDate returns the string-formatted date offset by the given number of
// months relative to the given date.
func OffsetDate(date, layout string, months int) (string, error) {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date, err
	}
	return t.AddDate(0, months, 0).Format(layout), nil
}

// DateBeforeDate returns true if firstDate is strictly before secondDate.
func DateBeforeDate(firstDate string, secondDate string) (bool, error) {
	firstDateT, err := time.Parse(DateTimeLayout, firstDate)
	if err != nil {
		return false, err
	}
	secondDateT, err := time.Parse(DateTimeLayout, secondDate)
	if err != nil {
		return false, err
	}
	return firstDateT.Before(secondDateT), nil
}

// ParseFlexible parses a form date in any of the accepted input layouts.
func ParseFlexible(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// CurrentMonth formats the month of t in DateTimeLayout.
func CurrentMonth(t time.Time) string {
	return t.Format(DateTimeLayout)
}
