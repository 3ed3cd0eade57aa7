package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requiredFields is a Validator that requires a list of fields per step.
type requiredFields map[int][]string

func (r requiredFields) ValidateStep(_ Flow, step int, state State) []FieldError {
	var errs []FieldError
	for _, field := range r[step] {
		if !state.Values.Has(field) {
			errs = append(errs, FieldError{Field: field, Key: "error_fill_field", Message: "Please fill this field"})
		}
	}
	return errs
}

var testValidator = requiredFields{
	1: {FieldLoanAmount},
	2: {FieldNameSurname},
	3: {FieldMainSourceOfIncome},
}

type recordingSubmitter struct {
	mu   sync.Mutex
	apps []Application
	err  error
}

func (r *recordingSubmitter) Submit(_ context.Context, app Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.apps = append(r.apps, app)
	return nil
}

func completeState() State {
	return ApplyStepUpdate(Reset(CreditCalculation), Values{
		FieldLoanAmount:         "100000",
		FieldNameSurname:        "Dana Levi",
		FieldMainSourceOfIncome: "employee",
	})
}

func TestAdvanceInOrder(t *testing.T) {
	state := completeState()

	for step := 1; step <= Steps; step++ {
		next, errs, err := Advance(state, step, testValidator)
		require.NoError(t, err)
		assert.Empty(t, errs)
		assert.Equal(t, Stage(step), next.Stage)
		state = next
	}
	assert.Equal(t, Step3Valid, state.Stage)
}

func TestAdvanceRejectsSkippedStep(t *testing.T) {
	_, _, err := Advance(completeState(), 2, testValidator)
	assert.ErrorIs(t, err, ErrStepOutOfOrder)

	_, _, err = Advance(completeState(), 0, testValidator)
	assert.ErrorIs(t, err, ErrInvalidStep)

	_, _, err = Advance(completeState(), Steps+1, testValidator)
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestAdvanceReportsFieldErrors(t *testing.T) {
	state := Reset(CreditCalculation)

	next, errs, err := Advance(state, 1, testValidator)

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, Empty, next.Stage)
	require.Len(t, errs, 1)
	assert.Equal(t, FieldLoanAmount, errs[0].Field)
}

func TestAdvanceRevalidatesEarlierSteps(t *testing.T) {
	state := completeState()
	state, _, err := Advance(state, 1, testValidator)
	require.NoError(t, err)
	state, _, err = Advance(state, 2, testValidator)
	require.NoError(t, err)

	// Step 1 data is cleared while the user is on step 3.
	state = ApplyStepUpdate(state, Values{FieldLoanAmount: nil})

	next, errs, err := Advance(state, 3, testValidator)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, Empty, next.Stage)
	require.Len(t, errs, 1)
	assert.Equal(t, FieldLoanAmount, errs[0].Field)
}

func TestReconcileLowersStage(t *testing.T) {
	state := completeState()
	state.Stage = Step3Valid
	state = ApplyStepUpdate(state, Values{FieldNameSurname: ""})

	next := Reconcile(state, testValidator)

	assert.Equal(t, Step1Valid, next.Stage)
	assert.Equal(t, Empty, Reconcile(Reset(CreditCalculation), testValidator).Stage)
}

func TestSubmit(t *testing.T) {
	state := completeState()
	state.ID = "app-1"
	state.Stage = Step3Valid
	submitter := &recordingSubmitter{}

	next, errs, err := Submit(context.Background(), state, testValidator, submitter)

	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, Submitted, next.Stage)
	require.NotNil(t, next.SubmittedAt)
	require.Len(t, submitter.apps, 1)
	assert.Equal(t, "app-1", submitter.apps[0].ID)
	assert.Equal(t, "Dana Levi", submitter.apps[0].Values.String(FieldNameSurname))

	_, _, err = Submit(context.Background(), next, testValidator, submitter)
	assert.ErrorIs(t, err, ErrSubmitted)

	_, _, err = Advance(next, 1, testValidator)
	assert.ErrorIs(t, err, ErrSubmitted)
}

func TestSubmitRequiresAllSteps(t *testing.T) {
	state := completeState()
	state.Stage = Step2Valid

	_, _, err := Submit(context.Background(), state, testValidator, &recordingSubmitter{})
	assert.ErrorIs(t, err, ErrStepOutOfOrder)

	state.Stage = Step3Valid
	state = ApplyStepUpdate(state, Values{FieldMainSourceOfIncome: nil})
	next, errs, err := Submit(context.Background(), state, testValidator, &recordingSubmitter{})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, Step2Valid, next.Stage)
	assert.Len(t, errs, 1)
}

func TestSubmitterFailureKeepsStage(t *testing.T) {
	state := completeState()
	state.Stage = Step3Valid
	failure := errors.New("downstream unavailable")

	next, _, err := Submit(context.Background(), state, testValidator, &recordingSubmitter{err: failure})

	assert.ErrorIs(t, err, failure)
	assert.Equal(t, Step3Valid, next.Stage)
	assert.Nil(t, next.SubmittedAt)
}
