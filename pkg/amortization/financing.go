package amortization

import (
	"strings"

	"github.com/bankim/loan-engine/pkg/constants"
	"github.com/bankim/loan-engine/pkg/mathutil"
)

// PropertyOwnership is the buyer's current property situation, which caps
// how much of the estate price a bank will finance.
type PropertyOwnership string

const (
	NoProperty      PropertyOwnership = "no_property"
	HasProperty     PropertyOwnership = "has_property"
	SellingProperty PropertyOwnership = "selling_property"
)

// ParsePropertyOwnership recognizes the dropdown tokens, including full
// content keys such as "mortgage_step1_option_has_property".
func ParsePropertyOwnership(raw string) (PropertyOwnership, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case lower == "":
		return "", false
	case strings.Contains(lower, string(SellingProperty)):
		return SellingProperty, true
	case strings.Contains(lower, string(HasProperty)):
		return HasProperty, true
	case strings.Contains(lower, string(NoProperty)):
		return NoProperty, true
	}
	return "", false
}

// MaxFinancingRatio is the largest share of the estate price that may be
// borrowed. Unknown ownership falls back to the first-home ratio.
func MaxFinancingRatio(ownership PropertyOwnership) float64 {
	switch ownership {
	case HasProperty:
		return constants.HasPropertyFinancingRatio
	case SellingProperty:
		return constants.SellingPropertyFinancingRatio
	default:
		return constants.NoPropertyFinancingRatio
	}
}

// MinimumDownPayment is the smallest initial fee accepted for the estate price.
func MinimumDownPayment(priceOfEstate float64, ownership PropertyOwnership) float64 {
	if priceOfEstate <= 0 {
		return 0
	}
	return mathutil.Round(priceOfEstate * (1 - MaxFinancingRatio(ownership)))
}
