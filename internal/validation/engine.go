package validation

import (
	"fmt"
	"time"

	"github.com/bankim/loan-engine/internal/wizard"
	"go.uber.org/zap"
)

// Engine validates wizard steps. It implements wizard.Validator.
type Engine struct {
	messages Messages
	logger   *zap.Logger
	schemas  map[wizard.Flow]map[int]Schema
	// co-borrowers fill the personal and income screens without the
	// borrower count
	borrowerSchemas map[int]Schema
}

// NewEngine builds the schemas for every flow. now drives age checks and
// defaults to time.Now.
func NewEngine(messages Messages, now func() time.Time, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if messages == nil {
		messages = Fallback{}
	}
	if now == nil {
		now = time.Now
	}

	e := &Engine{
		messages: messages,
		logger:   logger,
		schemas:  make(map[wizard.Flow]map[int]Schema),
		borrowerSchemas: map[int]Schema{
			2: personalSchema("co-borrower/step2", now, false),
			3: incomeSchema("co-borrower/step3"),
		},
	}
	for _, flow := range wizard.Flows() {
		e.schemas[flow] = Schemas(flow, now)
	}
	return e
}

// WithMessages returns a copy of the engine that localizes through messages.
func (e *Engine) WithMessages(messages Messages) *Engine {
	if messages == nil {
		messages = Fallback{}
	}
	clone := *e
	clone.messages = messages
	return &clone
}

// Validate evaluates one step of state, including its co-borrowers.
func (e *Engine) Validate(flow wizard.Flow, step int, state wizard.State) Result {
	schema, ok := e.schemas[flow][step]
	if !ok {
		e.logger.Warn("no schema for step",
			zap.String("op", "validation.Validate"),
			zap.String("flow", string(flow)),
			zap.Int("step", step),
		)
		return Result{Errors: []wizard.FieldError{{
			Field:   "step",
			Key:     "error_unknown_step",
			Message: fmt.Sprintf("no schema for %s step %d", flow, step),
		}}}
	}

	result := schema.Evaluate(state.Values, e.messages)
	if step == borrowerCountStep {
		result.Errors = append(result.Errors, e.checkBorrowerCount(state)...)
	}
	if borrowerSchema, ok := e.borrowerSchemas[step]; ok {
		for _, b := range state.CoBorrowers {
			result.merge(borrowerSchema.Evaluate(b.Values, e.messages), fmt.Sprintf("coBorrowers[%s].", b.ID))
		}
	}

	if !result.Valid() {
		e.logger.Debug("step failed validation",
			zap.String("op", "validation.Validate"),
			zap.String("schema", schema.Name),
			zap.Int("errors", len(result.Errors)),
		)
	}
	return result
}

// borrowerCountStep is the personal details step that declares the number of
// borrowers.
const borrowerCountStep = 2

// checkBorrowerCount requires one co-borrower record for every declared
// borrower after the applicant. Counts the schema already rejects are skipped.
func (e *Engine) checkBorrowerCount(state wizard.State) []wizard.FieldError {
	declared, ok := state.Values.Float(wizard.FieldBorrowers)
	if !ok || declared < 1 {
		return nil
	}
	if int(declared) == len(state.CoBorrowers)+1 {
		return nil
	}
	fe := fieldError(wizard.FieldBorrowers, KeyCoBorrowerNotComplete)
	fe.Message = e.messages.Message(fe.Key, fe.Message)
	return []wizard.FieldError{fe}
}

// ValidateStep implements wizard.Validator.
func (e *Engine) ValidateStep(flow wizard.Flow, step int, state wizard.State) []wizard.FieldError {
	return e.Validate(flow, step, state).Errors
}
