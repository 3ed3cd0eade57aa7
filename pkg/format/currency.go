// Package format renders shekel amounts for people.
package format

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ShekelSign is the currency symbol used for every amount.
const ShekelSign = "₪"

// Currency returns a currency string with a shekel sign and thousands separators (e.g., "-₪1,234.56").
func Currency(amount float64) string {
	return CurrencyIn(language.English, amount)
}

// CurrencyIn formats amount with the separators of tag. The sign leads so the
// output reads the same in right-to-left text.
func CurrencyIn(tag language.Tag, amount float64) string {
	formatted := formatPositive(tag, math.Abs(amount), 2)
	if amount < 0 && formatted != formatPositive(tag, 0, 2) {
		return "-" + ShekelSign + formatted
	}
	return ShekelSign + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	formatted := formatPositive(language.English, math.Abs(amount), 2)
	if amount < 0 && formatted != "0.00" {
		return "-" + formatted
	}
	return formatted
}

// WholeShekels formats amount without decimals, the way calculator results
// are shown (e.g., "₪8,485").
func WholeShekels(amount float64) string {
	formatted := formatPositive(language.English, math.Abs(amount), 0)
	if amount < 0 && formatted != "0" {
		return "-" + ShekelSign + formatted
	}
	return ShekelSign + formatted
}

func formatPositive(tag language.Tag, value float64, decimals int) string {
	p := message.NewPrinter(tag)
	var out string
	if decimals == 0 {
		out = p.Sprintf("%.0f", value)
	} else {
		out = p.Sprintf("%.2f", value)
	}
	return strings.TrimSpace(out)
}
