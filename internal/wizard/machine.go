package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Advance validates step together with every step before it against the
// latest record, so an edit on a later screen that breaks an earlier rule is
// caught. On failure the stage falls back to the last step that still
// validates and the failing step's errors are returned with ErrValidation.
func Advance(state State, step int, v Validator) (State, []FieldError, error) {
	if state.Stage == Submitted {
		return state, nil, ErrSubmitted
	}
	if step < 1 || step > Steps {
		return state, nil, fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	if step > int(state.Stage)+1 {
		return state, nil, fmt.Errorf("%w: step %d requested at stage %s", ErrStepOutOfOrder, step, state.Stage)
	}

	upto := max(step, int(state.Stage))
	next, errs := validateThrough(state, upto, v)
	if len(errs) > 0 {
		return next, errs, fmt.Errorf("step %d: %w", int(next.Stage)+1, ErrValidation)
	}
	return next, nil, nil
}

// Reconcile re-validates the steps already completed and lowers the stage to
// the last one that still passes. Submitted records are returned unchanged.
func Reconcile(state State, v Validator) State {
	if state.Stage == Empty || state.Stage == Submitted {
		return state
	}
	next, _ := validateThrough(state, int(state.Stage), v)
	return next
}

// Submit re-validates every step and hands the record to submitter. The
// returned state is Submitted only when the hand-off succeeds.
func Submit(ctx context.Context, state State, v Validator, submitter Submitter) (State, []FieldError, error) {
	if state.Stage == Submitted {
		return state, nil, ErrSubmitted
	}
	if submitter == nil {
		return state, nil, errors.New("no submitter configured")
	}
	if state.Stage < Step3Valid {
		return state, nil, fmt.Errorf("%w: submit requested at stage %s", ErrStepOutOfOrder, state.Stage)
	}

	next, errs := validateThrough(state, Steps, v)
	if len(errs) > 0 {
		return next, errs, fmt.Errorf("step %d: %w", int(next.Stage)+1, ErrValidation)
	}

	at := time.Now().UTC()
	app := Application{
		ID:          next.ID,
		Flow:        next.Flow,
		Values:      next.Values.Clone(),
		CoBorrowers: next.Clone().CoBorrowers,
		SubmittedAt: at,
	}
	if err := submitter.Submit(ctx, app); err != nil {
		return state, nil, fmt.Errorf("submitting application %s: %w", next.ID, err)
	}

	next.Stage = Submitted
	next.SubmittedAt = &at
	return next, nil, nil
}

func validateThrough(state State, upto int, v Validator) (State, []FieldError) {
	next := state.Clone()
	for step := 1; step <= upto; step++ {
		if errs := v.ValidateStep(next.Flow, step, next); len(errs) > 0 {
			next.Stage = Stage(step - 1)
			return next, errs
		}
	}
	next.Stage = Stage(upto)
	return next, nil
}
