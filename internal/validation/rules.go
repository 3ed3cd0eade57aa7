package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/bankim/loan-engine/internal/wizard"
	"github.com/bankim/loan-engine/pkg/constants"
	"github.com/bankim/loan-engine/pkg/datetime"
	"github.com/bankim/loan-engine/pkg/mathutil"
	ozzo "github.com/go-ozzo/ozzo-validation/v4"
)

// Rule checks one condition on a record. Rules report the message key and
// the English text; Schema.Evaluate localizes them.
type Rule func(v wizard.Values) []wizard.FieldError

func fieldError(field, key string) wizard.FieldError {
	return wizard.FieldError{Field: field, Key: key, Message: FallbackText(key)}
}

// ozzo treats a zero value as empty and skips threshold rules for it, so zero
// is compared directly.
func atLeast(f, min float64, exclusive bool) bool {
	if f == 0 {
		return min < 0 || (!exclusive && min == 0)
	}
	rule := ozzo.Min(min)
	if exclusive {
		rule = rule.Exclusive()
	}
	return ozzo.Validate(f, rule) == nil
}

func atMost(f, max float64, exclusive bool) bool {
	if f == 0 {
		return max > 0 || (!exclusive && max == 0)
	}
	rule := ozzo.Max(max)
	if exclusive {
		rule = rule.Exclusive()
	}
	return ozzo.Validate(f, rule) == nil
}

// Required reports every field that is absent or blank.
func Required(fields ...string) Rule {
	return func(v wizard.Values) []wizard.FieldError {
		var errs []wizard.FieldError
		for _, field := range fields {
			if err := ozzo.Validate(requiredValue(v, field), ozzo.Required); err != nil {
				errs = append(errs, fieldError(field, KeyFillField))
			}
		}
		return errs
	}
}

// requiredValue prepares a field for ozzo.Required. Numbers and booleans are
// passed as text so that an entered zero counts as filled.
func requiredValue(v wizard.Values, field string) any {
	switch val := v[field].(type) {
	case nil:
		return nil
	case string:
		return strings.TrimSpace(val)
	case []any, []map[string]any, map[string]any:
		return val
	}
	return v.String(field)
}

// RequiredWhen applies Required only when cond holds for the record.
func RequiredWhen(cond func(v wizard.Values) bool, fields ...string) Rule {
	required := Required(fields...)
	return func(v wizard.Values) []wizard.FieldError {
		if !cond(v) {
			return nil
		}
		return required(v)
	}
}

// RequiredUnless requires fields once governing holds a selection that off
// does not classify as "not applicable".
func RequiredUnless(governing string, off func(raw string) bool, fields ...string) Rule {
	return RequiredWhen(func(v wizard.Values) bool {
		raw := v.String(governing)
		return raw != "" && !off(raw)
	}, fields...)
}

// Number reports fields that are present but not numeric.
func Number(fields ...string) Rule {
	return func(v wizard.Values) []wizard.FieldError {
		var errs []wizard.FieldError
		for _, field := range fields {
			if !v.Has(field) {
				continue
			}
			if _, ok := v.Float(field); !ok {
				errs = append(errs, fieldError(field, KeyInvalidNumber))
			}
		}
		return errs
	}
}

// Positive reports numeric fields that are zero or negative. Absent fields are
// left to Required.
func Positive(fields ...string) Rule {
	return func(v wizard.Values) []wizard.FieldError {
		var errs []wizard.FieldError
		for _, field := range fields {
			f, ok := v.Float(field)
			if !ok {
				continue
			}
			if !atLeast(f, 0, true) {
				errs = append(errs, fieldError(field, KeyPositiveNumber))
			}
		}
		return errs
	}
}

// Range reports a numeric field outside [min, max], inclusive on both ends.
func Range(field string, min, max float64, minKey, maxKey string) Rule {
	return func(v wizard.Values) []wizard.FieldError {
		f, ok := v.Float(field)
		if !ok {
			return nil
		}
		if !atLeast(f, min, false) {
			return []wizard.FieldError{fieldError(field, minKey)}
		}
		if !atMost(f, max, false) {
			return []wizard.FieldError{fieldError(field, maxKey)}
		}
		return nil
	}
}

// Whole reports numeric fields with a fractional part.
func Whole(key string, fields ...string) Rule {
	return func(v wizard.Values) []wizard.FieldError {
		var errs []wizard.FieldError
		for _, field := range fields {
			f, ok := v.Float(field)
			if !ok {
				continue
			}
			if mathutil.Truncate(f) != f {
				errs = append(errs, fieldError(field, key))
			}
		}
		return errs
	}
}

// MinRatioOf requires field to be at least ratio(v) times base. The boundary
// itself passes.
func MinRatioOf(field, base string, ratio func(v wizard.Values) float64, key string) Rule {
	return func(v wizard.Values) []wizard.FieldError {
		f, ok := v.Float(field)
		b, baseOK := v.Float(base)
		if !ok || !baseOK {
			return nil
		}
		threshold := mathutil.Round(b * ratio(v))
		if !atLeast(f, threshold, false) {
			return []wizard.FieldError{fieldError(field, key)}
		}
		return nil
	}
}

// LessThan requires field to be strictly below other.
func LessThan(field, other, key string) Rule {
	return func(v wizard.Values) []wizard.FieldError {
		f, ok := v.Float(field)
		o, otherOK := v.Float(other)
		if !ok || !otherOK {
			return nil
		}
		if !atMost(f, o, true) {
			return []wizard.FieldError{fieldError(field, key)}
		}
		return nil
	}
}

// NotLessThan requires field >= other and reports a violation on both fields,
// so whichever one the user edits last shows the error.
func NotLessThan(field, other, key string) Rule {
	return func(v wizard.Values) []wizard.FieldError {
		f, ok := v.Float(field)
		o, otherOK := v.Float(other)
		if !ok || !otherOK {
			return nil
		}
		if !atLeast(f, o, false) {
			return []wizard.FieldError{fieldError(field, key), fieldError(other, key)}
		}
		return nil
	}
}

// SumEquals requires the balances of the rows in rowsField to add up to
// totalField. A mismatch is one error on rowsField, not one per row.
func SumEquals(rowsField, totalField, key string) Rule {
	return func(v wizard.Values) []wizard.FieldError {
		total, ok := v.Float(totalField)
		if !ok {
			return nil
		}
		rows, err := v.ProgramRows()
		if err != nil || len(rows) == 0 {
			return nil
		}
		sum := 0.0
		for _, row := range rows {
			sum += row.Balance
		}
		if !mathutil.WithinTolerance(sum, total, constants.CurrencyTolerance) {
			return []wizard.FieldError{fieldError(rowsField, key)}
		}
		return nil
	}
}

// EachProgramRow checks every mortgageData row for its program, a positive
// balance, an end date and a bid.
func EachProgramRow(rowsField string) Rule {
	return func(v wizard.Values) []wizard.FieldError {
		if !v.Has(rowsField) {
			return nil
		}
		rows, err := v.ProgramRows()
		if err != nil {
			return []wizard.FieldError{fieldError(rowsField, KeyInvalidNumber)}
		}
		var errs []wizard.FieldError
		for i, row := range rows {
			prefix := fmt.Sprintf("%s[%d].", rowsField, i)
			if row.Program == "" {
				errs = append(errs, fieldError(prefix+"program", KeyFillField))
			}
			if row.Balance <= 0 {
				errs = append(errs, fieldError(prefix+"balance", KeyPositiveNumber))
			}
			if row.EndDate == "" {
				errs = append(errs, fieldError(prefix+"endDate", KeyFillField))
			} else if _, err := datetime.ParseFlexible(row.EndDate); err != nil {
				errs = append(errs, fieldError(prefix+"endDate", KeyInvalidDate))
			}
			if row.Bid <= 0 {
				errs = append(errs, fieldError(prefix+"bid", KeyFillField))
			}
		}
		return errs
	}
}

// Date reports fields that are present but not a recognized date.
func Date(fields ...string) Rule {
	return func(v wizard.Values) []wizard.FieldError {
		var errs []wizard.FieldError
		for _, field := range fields {
			if !v.Has(field) {
				continue
			}
			if _, err := datetime.ParseFlexible(v.String(field)); err != nil {
				errs = append(errs, fieldError(field, KeyInvalidDate))
			}
		}
		return errs
	}
}

// MinAge requires the date in field to be at least years before now().
func MinAge(field string, years int, now func() time.Time) Rule {
	return func(v wizard.Values) []wizard.FieldError {
		if !v.Has(field) {
			return nil
		}
		born, err := datetime.ParseFlexible(v.String(field))
		if err != nil {
			return nil
		}
		if born.AddDate(years, 0, 0).After(now()) {
			return []wizard.FieldError{fieldError(field, KeyMinAge)}
		}
		return nil
	}
}
