package amortization

import (
	"encoding/json"
	"fmt"
	"math"
)

// Outcome classifies a calculator result.
type Outcome string

const (
	// Computable is an ordinary payment, term or amount.
	Computable Outcome = "computable"
	// Pending means an input is still missing.
	Pending Outcome = "not_yet_computable"
	// Invalid means the inputs are degenerate (zero term, zero rate...).
	Invalid Outcome = "degenerate"
	// Impossible means no finite answer exists.
	Impossible Outcome = "impossible"
)

// Classify maps a calculator return value onto its Outcome. A genuine result of
// exactly 1 or 0 is indistinguishable from the sentinels.
func Classify(v float64) Outcome {
	switch {
	case math.IsNaN(v):
		return Impossible
	case v == NotYetComputable:
		return Pending
	case v == Degenerate:
		return Invalid
	default:
		return Computable
	}
}

// Result pairs a calculator value with its Outcome.
type Result struct {
	Value   float64
	Outcome Outcome
}

// NewResult classifies v.
func NewResult(v float64) Result {
	return Result{Value: v, Outcome: Classify(v)}
}

// PendingResult is returned when the inputs for a calculation are missing.
func PendingResult() Result {
	return Result{Value: NotYetComputable, Outcome: Pending}
}

// Ok reports whether the result carries a usable number.
func (r Result) Ok() bool {
	return r.Outcome == Computable
}

// MarshalJSON encodes the value as null unless it is computable.
func (r Result) MarshalJSON() ([]byte, error) {
	payload := struct {
		Value   *float64 `json:"value"`
		Outcome Outcome  `json:"outcome"`
	}{Outcome: r.Outcome}
	if r.Outcome == Computable {
		v := r.Value
		payload.Value = &v
	}
	return json.Marshal(payload)
}

// UnmarshalJSON restores the sentinel value for non-computable outcomes.
func (r *Result) UnmarshalJSON(data []byte) error {
	var payload struct {
		Value   *float64 `json:"value"`
		Outcome Outcome  `json:"outcome"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	r.Outcome = payload.Outcome
	switch payload.Outcome {
	case Pending:
		r.Value = NotYetComputable
	case Invalid:
		r.Value = Degenerate
	case Impossible:
		r.Value = math.NaN()
	default:
		if payload.Value == nil {
			return fmt.Errorf("computable result without a value")
		}
		r.Value = *payload.Value
	}
	return nil
}
