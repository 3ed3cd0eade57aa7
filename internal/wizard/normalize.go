package wizard

import (
	"strings"
)

// Dropdown values come from a content database whose encoding differs across
// locales and releases: numeric codes, option_N keys, legacy English tokens and
// translated labels all occur. Every gating decision goes through the
// functions in this file.

// Obligation is the canonical existing-debt selection.
type Obligation string

const (
	ObligationUnset          Obligation = ""
	ObligationNone           Obligation = "none"
	ObligationBankLoan       Obligation = "bank-loan"
	ObligationConsumerCredit Obligation = "consumer-credit"
	ObligationCreditCard     Obligation = "credit-card"
	ObligationOther          Obligation = "other"
)

// AdditionalIncome is the canonical additional income selection.
type AdditionalIncome string

const (
	AdditionalIncomeUnset AdditionalIncome = ""
	AdditionalIncomeNone  AdditionalIncome = "none"
	AdditionalIncomeHas   AdditionalIncome = "has"
)

// IncomeSource is the canonical main source of income.
type IncomeSource string

const (
	IncomeSourceUnset        IncomeSource = ""
	IncomeSourceEmployee     IncomeSource = "employee"
	IncomeSourceSelfEmployed IncomeSource = "self-employed"
	IncomeSourcePension      IncomeSource = "pension"
	IncomeSourceStudent      IncomeSource = "student"
	IncomeSourceUnpaidLeave  IncomeSource = "unpaid-leave"
	IncomeSourceUnemployed   IncomeSource = "unemployed"
	IncomeSourceOther        IncomeSource = "other"
)

var governedOffExact = map[string]struct{}{
	"1":              {},
	"5":              {},
	"option_1":       {},
	"no_obligations": {},
}

var governedOffPhrases = []string{
	"no_obligation",
	"none",
	"no_additional",
	"no additional",
	"אין התחייבות",
	"אין התחייבויות",
	"ללא חובות",
	"אין הכנסות נוספות",
	"ללא הכנסות נוספות",
	"нет обязательств",
	"нет дополнительного дохода",
}

// IsGovernedOff reports whether a dropdown value means "none / not
// applicable". An empty value is not a selection and reports false.
func IsGovernedOff(raw string) bool {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return false
	}
	if _, ok := governedOffExact[value]; ok {
		return true
	}
	if strings.HasSuffix(value, "_option_1") {
		return true
	}
	for _, phrase := range governedOffPhrases {
		if strings.Contains(value, phrase) {
			return true
		}
	}
	return false
}

// NormalizeObligation maps a raw obligation selection onto Obligation. Unknown
// non-empty values are treated as some other obligation so that the dependent
// fields stay required.
func NormalizeObligation(raw string) Obligation {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case value == "":
		return ObligationUnset
	case IsGovernedOff(value):
		return ObligationNone
	case strings.Contains(value, "bank_loan"), strings.Contains(value, "bank-loan"), value == "2", strings.HasSuffix(value, "option_2"):
		return ObligationBankLoan
	case strings.Contains(value, "consumer_credit"), strings.Contains(value, "consumer-credit"), value == "3", strings.HasSuffix(value, "option_3"):
		return ObligationConsumerCredit
	case strings.Contains(value, "credit_card"), strings.Contains(value, "credit-card"), value == "4", strings.HasSuffix(value, "option_4"):
		return ObligationCreditCard
	}
	return ObligationOther
}

// NormalizeAdditionalIncome maps a raw additional income selection onto
// AdditionalIncome.
func NormalizeAdditionalIncome(raw string) AdditionalIncome {
	switch {
	case strings.TrimSpace(raw) == "":
		return AdditionalIncomeUnset
	case IsGovernedOff(raw):
		return AdditionalIncomeNone
	}
	return AdditionalIncomeHas
}

var incomeSourceCodes = map[string]IncomeSource{
	"1": IncomeSourceEmployee,
	"2": IncomeSourceSelfEmployed,
	"3": IncomeSourceSelfEmployed,
	"4": IncomeSourcePension,
	"5": IncomeSourceStudent,
	"6": IncomeSourceUnemployed,
	"7": IncomeSourceOther,
}

var incomeSourceKeywords = []struct {
	keyword string
	source  IncomeSource
}{
	{"unpaid_leave", IncomeSourceUnpaidLeave},
	{"unpaid-leave", IncomeSourceUnpaidLeave},
	{"selfemployed", IncomeSourceSelfEmployed},
	{"self_employed", IncomeSourceSelfEmployed},
	{"self-employed", IncomeSourceSelfEmployed},
	{"business", IncomeSourceSelfEmployed},
	{"unemployed", IncomeSourceUnemployed},
	{"employee", IncomeSourceEmployee},
	{"pension", IncomeSourcePension},
	{"student", IncomeSourceStudent},
	{"other", IncomeSourceOther},
}

// NormalizeIncomeSource maps a raw main source of income onto IncomeSource.
func NormalizeIncomeSource(raw string) IncomeSource {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return IncomeSourceUnset
	}
	if source, ok := incomeSourceCodes[value]; ok {
		return source
	}
	if idx := strings.LastIndex(value, "option_"); idx >= 0 {
		if source, ok := incomeSourceCodes[value[idx+len("option_"):]]; ok {
			return source
		}
	}
	for _, kw := range incomeSourceKeywords {
		if strings.Contains(value, kw.keyword) {
			return kw.source
		}
	}
	return IncomeSourceOther
}

// RequiresEmployerDetails reports whether the income source carries the
// employer sub-fields (monthly income, start date, activity, profession,
// company name).
func (s IncomeSource) RequiresEmployerDetails() bool {
	switch s {
	case IncomeSourceEmployee, IncomeSourceSelfEmployed, IncomeSourcePension:
		return true
	}
	return false
}
