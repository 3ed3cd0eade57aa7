package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateWithObligation() State {
	state := Reset(MortgageCalculation)
	state = ApplyStepUpdate(state, Values{
		FieldObligation:             "bank_loan",
		FieldBank:                   "leumi",
		FieldMonthlyPaymentForBank:  "2,000",
		FieldEndDate:                "2030-01-01",
		FieldAdditionalIncome:       "additional_salary",
		FieldAdditionalIncomeAmount: "4000",
	})
	return Touch(state, FieldBank, FieldMonthlyPaymentForBank, FieldEndDate, FieldAdditionalIncomeAmount)
}

func TestApplyStepUpdateMerges(t *testing.T) {
	state := Reset(CreditCalculation)

	next := ApplyStepUpdate(state, Values{FieldLoanAmount: "100000"})
	next = ApplyStepUpdate(next, Values{FieldPeriod: 5})

	assert.Equal(t, Values{FieldLoanAmount: "100000", FieldPeriod: 5}, next.Values)
	assert.Empty(t, state.Values, "input state must not change")
}

func TestApplyStepUpdateNilClearsField(t *testing.T) {
	state := Touch(ApplyStepUpdate(Reset(CreditCalculation), Values{FieldLoanAmount: "100000"}), FieldLoanAmount)

	next := ApplyStepUpdate(state, Values{FieldLoanAmount: nil})

	assert.NotContains(t, next.Values, FieldLoanAmount)
	assert.NotContains(t, next.Touched, FieldLoanAmount)
}

func TestApplyStepUpdatePrunesObligationFields(t *testing.T) {
	state := stateWithObligation()
	require.Equal(t, "leumi", state.Values.String(FieldBank))
	require.True(t, state.Touched[FieldBank])

	next := ApplyStepUpdate(state, Values{FieldObligation: "no_obligations"})

	for _, field := range ObligationFields {
		assert.NotContains(t, next.Values, field)
		assert.NotContains(t, next.Touched, field)
	}
	assert.Equal(t, "4000", next.Values.String(FieldAdditionalIncomeAmount))
	assert.Equal(t, "leumi", state.Values.String(FieldBank), "input state must not change")
}

func TestApplyStepUpdatePrunesAdditionalIncome(t *testing.T) {
	state := stateWithObligation()

	next := ApplyStepUpdate(state, Values{FieldAdditionalIncome: "option_1"})

	assert.NotContains(t, next.Values, FieldAdditionalIncomeAmount)
	assert.NotContains(t, next.Touched, FieldAdditionalIncomeAmount)
	assert.Equal(t, "leumi", next.Values.String(FieldBank))
}

func TestApplyStepUpdatePrunesAdditionalIncomeLabel(t *testing.T) {
	state := Reset(CreditCalculation)

	next := ApplyStepUpdate(state, Values{
		FieldAdditionalIncome:       "No additional income",
		FieldAdditionalIncomeAmount: "3000",
	})

	assert.NotContains(t, next.Values, FieldAdditionalIncomeAmount)
	assert.Equal(t, AdditionalIncomeNone, NormalizeAdditionalIncome("No additional income"))
}

func TestApplyStepUpdatePrunesOnUnrelatedUpdate(t *testing.T) {
	// A record that already holds stale dependent fields is cleaned by the
	// next update even when the governing field is not part of it.
	state := Reset(MortgageCalculation)
	state.Values = Values{FieldObligation: "אין התחייבות", FieldBank: "hapoalim"}
	state.Touched = map[string]bool{FieldBank: true}

	next := ApplyStepUpdate(state, Values{FieldNameSurname: "Dana Levi"})

	assert.NotContains(t, next.Values, FieldBank)
	assert.NotContains(t, next.Touched, FieldBank)
	assert.Equal(t, "Dana Levi", next.Values.String(FieldNameSurname))
}

func TestApplyStepUpdateIdempotent(t *testing.T) {
	partials := []Values{
		{FieldObligation: "no_obligations", FieldBank: "leumi"},
		{FieldAdditionalIncome: "1", FieldAdditionalIncomeAmount: "3000"},
		{FieldObligation: "bank_loan", FieldBank: "leumi"},
		{},
	}

	for _, partial := range partials {
		once := ApplyStepUpdate(stateWithObligation(), partial)
		twice := ApplyStepUpdate(once, partial)
		assert.Equal(t, once, twice)
	}
}

func TestApplyStepUpdateKeepsGovernedFieldsWhenOn(t *testing.T) {
	next := ApplyStepUpdate(Reset(MortgageCalculation), Values{
		FieldObligation: "bank_loan",
		FieldBank:       "leumi",
	})

	assert.Equal(t, "leumi", next.Values.String(FieldBank))
}

func TestApplyBorrowerUpdate(t *testing.T) {
	state := Reset(MortgageCalculation)

	next := ApplyBorrowerUpdate(state, "b1", Values{FieldNameSurname: "Avi", FieldObligation: "credit_card", FieldBank: "discount"})
	next = ApplyBorrowerUpdate(next, "b2", Values{FieldNameSurname: "Noa"})
	next = ApplyBorrowerUpdate(next, "b1", Values{FieldObligation: "ללא חובות"})

	require.Len(t, next.CoBorrowers, 2)
	b1, ok := next.Borrower("b1")
	require.True(t, ok)
	assert.Equal(t, "Avi", b1.Values.String(FieldNameSurname))
	assert.NotContains(t, b1.Values, FieldBank)
	assert.Empty(t, state.CoBorrowers)

	removed := RemoveBorrower(next, "b1")
	require.Len(t, removed.CoBorrowers, 1)
	assert.Equal(t, "b2", removed.CoBorrowers[0].ID)
	require.Len(t, next.CoBorrowers, 2, "input state must not change")

	unchanged := RemoveBorrower(removed, "missing")
	assert.Equal(t, removed, unchanged)
}

func TestTouchSkipsPrunedFields(t *testing.T) {
	state := ApplyStepUpdate(Reset(MortgageCalculation), Values{FieldObligation: "no_obligations"})

	next := Touch(state, FieldObligation, FieldBank)

	assert.True(t, next.Touched[FieldObligation])
	assert.False(t, next.Touched[FieldBank])
}
