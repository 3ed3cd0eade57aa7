package validation

import (
	"time"

	"github.com/bankim/loan-engine/internal/wizard"
	"github.com/bankim/loan-engine/pkg/amortization"
	"github.com/bankim/loan-engine/pkg/constants"
)

// MinBorrowerAge is the youngest age accepted for any borrower.
const MinBorrowerAge = 18

// downPaymentRatio is the minimum share of the price paid upfront. Without an
// ownership selection the first-home rule applies, so the floor is 25%.
func downPaymentRatio(v wizard.Values) float64 {
	ownership, _ := amortization.ParsePropertyOwnership(v.String(wizard.FieldPropertyOwnership))
	return 1 - amortization.MaxFinancingRatio(ownership)
}

func periodRules() []Rule {
	return []Rule{
		Required(wizard.FieldPeriod),
		Number(wizard.FieldPeriod),
		Range(wizard.FieldPeriod, constants.MinTermYears, constants.MaxTermYears, KeyMinPeriod, KeyMaxPeriod),
		Whole(KeyWholeYears, wizard.FieldPeriod),
	}
}

func mortgageCalculationStep1() Schema {
	rules := []Rule{
		Required(wizard.FieldPriceOfEstate, wizard.FieldInitialFee),
		Number(wizard.FieldPriceOfEstate, wizard.FieldInitialFee, wizard.FieldMonthlyPayment),
		Positive(wizard.FieldPriceOfEstate, wizard.FieldMonthlyPayment),
		LessThan(wizard.FieldInitialFee, wizard.FieldPriceOfEstate, KeyInitialFeeMax),
		MinRatioOf(wizard.FieldInitialFee, wizard.FieldPriceOfEstate, downPaymentRatio, KeyInitialFeeMin),
	}
	return Schema{Name: "mortgage-calculation/step1", Rules: append(rules, periodRules()...)}
}

func mortgageRefinanceStep1() Schema {
	rules := []Rule{
		Required(wizard.FieldMortgageBalance, wizard.FieldPriceOfEstate, wizard.FieldMortgageData),
		Number(wizard.FieldMortgageBalance, wizard.FieldPriceOfEstate),
		Positive(wizard.FieldMortgageBalance, wizard.FieldPriceOfEstate),
		NotLessThan(wizard.FieldPriceOfEstate, wizard.FieldMortgageBalance, KeyPropertyBelowBalance),
		EachProgramRow(wizard.FieldMortgageData),
		SumEquals(wizard.FieldMortgageData, wizard.FieldMortgageBalance, KeyBalanceMismatch),
	}
	return Schema{Name: "mortgage-refinance/step1", Rules: append(rules, periodRules()...)}
}

func creditCalculationStep1() Schema {
	rules := []Rule{
		Required(wizard.FieldLoanAmount),
		Number(wizard.FieldLoanAmount),
		Positive(wizard.FieldLoanAmount),
	}
	return Schema{Name: "credit-calculation/step1", Rules: append(rules, periodRules()...)}
}

func creditRefinanceStep1() Schema {
	rules := []Rule{
		Required(wizard.FieldLoanAmount, wizard.FieldMonthlyPayment),
		Number(wizard.FieldLoanAmount, wizard.FieldMonthlyPayment),
		Positive(wizard.FieldLoanAmount, wizard.FieldMonthlyPayment),
	}
	return Schema{Name: "credit-refinance/step1", Rules: append(rules, periodRules()...)}
}

func personalSchema(name string, now func() time.Time, withBorrowerCount bool) Schema {
	rules := []Rule{
		Required(wizard.FieldNameSurname, wizard.FieldBirthday, wizard.FieldCitizenship),
		Date(wizard.FieldBirthday),
		MinAge(wizard.FieldBirthday, MinBorrowerAge, now),
	}
	if withBorrowerCount {
		rules = append(rules,
			Required(wizard.FieldBorrowers),
			Number(wizard.FieldBorrowers),
			Positive(wizard.FieldBorrowers),
		)
	}
	return Schema{Name: name, Rules: rules}
}

func requiresEmployerDetails(v wizard.Values) bool {
	return wizard.NormalizeIncomeSource(v.String(wizard.FieldMainSourceOfIncome)).RequiresEmployerDetails()
}

func incomeSchema(name string) Schema {
	return Schema{Name: name, Rules: []Rule{
		Required(wizard.FieldMainSourceOfIncome),
		RequiredWhen(requiresEmployerDetails,
			wizard.FieldMonthlyIncome,
			wizard.FieldStartDate,
			wizard.FieldFieldOfActivity,
			wizard.FieldProfession,
			wizard.FieldCompanyName,
		),
		Number(wizard.FieldMonthlyIncome),
		Positive(wizard.FieldMonthlyIncome),
		Date(wizard.FieldStartDate),

		Required(wizard.FieldAdditionalIncome),
		RequiredUnless(wizard.FieldAdditionalIncome, wizard.IsGovernedOff, wizard.AdditionalIncomeFields...),
		Number(wizard.FieldAdditionalIncomeAmount),
		Positive(wizard.FieldAdditionalIncomeAmount),

		Required(wizard.FieldObligation),
		RequiredUnless(wizard.FieldObligation, wizard.IsGovernedOff, wizard.ObligationFields...),
		Number(wizard.FieldMonthlyPaymentForBank),
		Positive(wizard.FieldMonthlyPaymentForBank),
		Date(wizard.FieldEndDate),
	}}
}

// Schemas returns the step schemas of flow keyed by step number.
func Schemas(flow wizard.Flow, now func() time.Time) map[int]Schema {
	if now == nil {
		now = time.Now
	}
	schemas := map[int]Schema{
		2: personalSchema(string(flow)+"/step2", now, true),
		3: incomeSchema(string(flow) + "/step3"),
	}
	switch flow {
	case wizard.MortgageCalculation:
		schemas[1] = mortgageCalculationStep1()
	case wizard.MortgageRefinance:
		schemas[1] = mortgageRefinanceStep1()
	case wizard.CreditCalculation:
		schemas[1] = creditCalculationStep1()
	case wizard.CreditRefinance:
		schemas[1] = creditRefinanceStep1()
	default:
		return nil
	}
	return schemas
}
