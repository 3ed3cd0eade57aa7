package validation

// Message keys used by the step schemas. Translations are looked up by key
// and fall back to the English text below.
const (
	KeyFillField             = "error_fill_field"
	KeyInvalidNumber         = "error_invalid_number"
	KeyPositiveNumber        = "error_positive_number"
	KeyMinPeriod             = "error_min_period"
	KeyMaxPeriod             = "error_max_period"
	KeyWholeYears            = "error_whole_years"
	KeyInitialFeeMin         = "error_initial_fee_min"
	KeyInitialFeeMax         = "error_initial_fee_max"
	KeyBalanceMismatch       = "error_balance"
	KeyPropertyBelowBalance  = "error_property_below_balance"
	KeyInvalidDate           = "error_invalid_date"
	KeyMinAge                = "error_min_age"
	KeyCoBorrowerNotComplete = "error_co_borrower_incomplete"
)

var fallbackMessages = map[string]string{
	KeyFillField:             "Please fill this field",
	KeyInvalidNumber:         "Please enter a valid number",
	KeyPositiveNumber:        "Value must be greater than zero",
	KeyMinPeriod:             "Minimum period is 4 years",
	KeyMaxPeriod:             "Maximum period is 30 years",
	KeyWholeYears:            "Period must be a whole number of years",
	KeyInitialFeeMin:         "Initial fee is below the minimum down payment",
	KeyInitialFeeMax:         "Initial fee must be less than the property price",
	KeyBalanceMismatch:       "The program balances must add up to the mortgage balance",
	KeyPropertyBelowBalance:  "Property value cannot be less than the mortgage balance",
	KeyInvalidDate:           "Please enter a valid date",
	KeyMinAge:                "Borrower must be at least 18 years old",
	KeyCoBorrowerNotComplete: "Co-borrower details are incomplete",
}

// Messages resolves a message key into display text.
type Messages interface {
	Message(key, fallback string) string
}

// Fallback returns the built-in English text for every key.
type Fallback struct{}

// Message returns fallback.
func (Fallback) Message(_, fallback string) string {
	return fallback
}

// FallbackText returns the built-in English text for key.
func FallbackText(key string) string {
	if text, ok := fallbackMessages[key]; ok {
		return text
	}
	return key
}
