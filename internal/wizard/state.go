package wizard

import (
	"context"
	"errors"
	"time"
)

// Stage is the furthest step of the wizard that currently validates.
type Stage int

const (
	Empty Stage = iota
	Step1Valid
	Step2Valid
	Step3Valid
	Submitted
)

func (s Stage) String() string {
	switch s {
	case Empty:
		return "empty"
	case Step1Valid:
		return "step1-valid"
	case Step2Valid:
		return "step2-valid"
	case Step3Valid:
		return "step3-valid"
	case Submitted:
		return "submitted"
	}
	return "unknown"
}

// MarshalText encodes the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	// ErrSubmitted is returned for any change to a submitted application.
	ErrSubmitted = errors.New("application already submitted")
	// ErrStepOutOfOrder is returned when a step is advanced before its predecessors.
	ErrStepOutOfOrder = errors.New("step out of order")
	// ErrInvalidStep is returned for step numbers outside 1..Steps.
	ErrInvalidStep = errors.New("invalid step")
	// ErrValidation is returned when a step does not validate.
	ErrValidation = errors.New("validation failed")
)

// FieldError is a validation failure scoped to one field, or to a group key
// for aggregate rules.
type FieldError struct {
	Field   string `json:"field"`
	Key     string `json:"key"`
	Message string `json:"message"`
}

// Validator evaluates the schema of a step against the current state.
type Validator interface {
	ValidateStep(flow Flow, step int, state State) []FieldError
}

// Borrower is a co-borrower sub-record with its own fields.
type Borrower struct {
	ID      string          `json:"id"`
	Values  Values          `json:"values"`
	Touched map[string]bool `json:"touched,omitempty"`
}

func (b Borrower) clone() Borrower {
	return Borrower{ID: b.ID, Values: b.Values.Clone(), Touched: cloneTouched(b.Touched)}
}

// State is the single evolving application record.
type State struct {
	ID          string          `json:"id,omitempty"`
	Flow        Flow            `json:"flow"`
	Stage       Stage           `json:"stage"`
	Values      Values          `json:"values"`
	Touched     map[string]bool `json:"touched,omitempty"`
	CoBorrowers []Borrower      `json:"coBorrowers,omitempty"`
	SubmittedAt *time.Time      `json:"submittedAt,omitempty"`
}

// Clone returns a copy that shares nothing mutable with s.
func (s State) Clone() State {
	out := s
	out.Values = s.Values.Clone()
	out.Touched = cloneTouched(s.Touched)
	if s.CoBorrowers != nil {
		out.CoBorrowers = make([]Borrower, len(s.CoBorrowers))
		for i, b := range s.CoBorrowers {
			out.CoBorrowers[i] = b.clone()
		}
	}
	if s.SubmittedAt != nil {
		at := *s.SubmittedAt
		out.SubmittedAt = &at
	}
	return out
}

// Borrower returns the co-borrower with the given id.
func (s State) Borrower(id string) (Borrower, bool) {
	for _, b := range s.CoBorrowers {
		if b.ID == id {
			return b, true
		}
	}
	return Borrower{}, false
}

// Application is the record handed off on submission.
type Application struct {
	ID          string     `json:"id"`
	Flow        Flow       `json:"flow"`
	Values      Values     `json:"values"`
	CoBorrowers []Borrower `json:"coBorrowers,omitempty"`
	SubmittedAt time.Time  `json:"submittedAt"`
}

// Submitter receives completed applications.
type Submitter interface {
	Submit(ctx context.Context, app Application) error
}

func cloneTouched(in map[string]bool) map[string]bool {
	if in == nil {
		return nil
	}
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
