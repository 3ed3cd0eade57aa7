package wizard

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// Form field names shared by the reducer, validation and quote layers.
const (
	FieldPriceOfEstate     = "priceOfEstate"
	FieldInitialFee        = "initialFee"
	FieldPeriod            = "period"
	FieldMonthlyPayment    = "monthlyPayment"
	FieldPropertyOwnership = "propertyOwnership"
	FieldMortgageBalance   = "mortgageBalance"
	FieldMortgageData      = "mortgageData"
	FieldLoanAmount        = "loanAmount"

	FieldNameSurname = "nameSurname"
	FieldBirthday    = "birthday"
	FieldCitizenship = "citizenship"
	FieldBorrowers   = "borrowers"

	FieldMainSourceOfIncome     = "mainSourceOfIncome"
	FieldMonthlyIncome          = "monthlyIncome"
	FieldStartDate              = "startDate"
	FieldFieldOfActivity        = "fieldOfActivity"
	FieldProfession             = "profession"
	FieldCompanyName            = "companyName"
	FieldAdditionalIncome       = "additionalIncome"
	FieldAdditionalIncomeAmount = "additionalIncomeAmount"
	FieldObligation             = "obligation"
	FieldBank                   = "bank"
	FieldMonthlyPaymentForBank  = "monthlyPaymentForAnotherBank"
	FieldEndDate                = "endDate"
)

// ObligationFields are cleared whenever the obligation selection is governed off.
var ObligationFields = []string{FieldBank, FieldMonthlyPaymentForBank, FieldEndDate}

// AdditionalIncomeFields are cleared whenever additional income is governed off.
var AdditionalIncomeFields = []string{FieldAdditionalIncomeAmount}

// Values is a shallow field record. Form inputs arrive loosely typed (numbers
// as strings with thousands separators, dropdowns as codes), so reads go
// through the typed accessors.
type Values map[string]any

// Clone returns a shallow copy of v.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Has reports whether the field holds a non-empty value.
func (v Values) Has(field string) bool {
	val, ok := v[field]
	if !ok || val == nil {
		return false
	}
	switch typed := val.(type) {
	case string:
		return strings.TrimSpace(typed) != ""
	case []any:
		return len(typed) > 0
	case []map[string]any:
		return len(typed) > 0
	}
	return true
}

// String returns the field as a trimmed string, or "" when absent.
func (v Values) String(field string) string {
	if !v.Has(field) {
		return ""
	}
	return strings.TrimSpace(cast.ToString(v[field]))
}

// Float returns the field as a number. Thousands separators and spaces are
// ignored. The second result is false when the field is absent or not numeric.
func (v Values) Float(field string) (float64, bool) {
	if !v.Has(field) {
		return 0, false
	}
	raw := v[field]
	if s, ok := raw.(string); ok {
		raw = strings.NewReplacer(",", "", " ", "", "₪", "").Replace(s)
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FloatPtr is Float for the calculators' optional amount parameters.
func (v Values) FloatPtr(field string) *float64 {
	f, ok := v.Float(field)
	if !ok {
		return nil
	}
	return &f
}

// ProgramRow is one existing mortgage program in a refinance application.
type ProgramRow struct {
	Program string  `mapstructure:"program" json:"program"`
	Balance float64 `mapstructure:"balance" json:"balance"`
	EndDate string  `mapstructure:"endDate" json:"endDate"`
	Bid     float64 `mapstructure:"bid" json:"bid"`
}

// ProgramRows decodes the mortgageData rows.
func (v Values) ProgramRows() ([]ProgramRow, error) {
	if !v.Has(FieldMortgageData) {
		return nil, nil
	}
	var rows []ProgramRow
	if err := decodeWeak(v[FieldMortgageData], &rows); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", FieldMortgageData, err)
	}
	return rows, nil
}

func decodeWeak(input, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           output,
		DecodeHook:       stripSeparatorsHook,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// stripSeparatorsHook lets "300,000" decode into a float field.
func stripSeparatorsHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Float64 {
		return data, nil
	}
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(cast.ToString(data))
	if cleaned == "" {
		return 0.0, nil
	}
	return cast.ToFloat64E(cleaned)
}
