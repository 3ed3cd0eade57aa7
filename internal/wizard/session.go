package wizard

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bankim/loan-engine/internal/metrics"
	"go.uber.org/zap"
)

// ErrSessionClosed is returned for requests to a closed session.
var ErrSessionClosed = errors.New("session closed")

type outcome struct {
	state  State
	errors []FieldError
	err    error
}

type request struct {
	ctx   context.Context
	fn    func(ctx context.Context, state State) outcome
	reply chan outcome
}

// Session owns one application record. All reads and writes are serialized
// through a single goroutine, so each request sees the result of the one
// before it.
type Session struct {
	id         string
	validator  Validator
	submitter  Submitter
	logger     *zap.Logger
	requests   chan request
	quit       chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
	lastActive atomic.Int64
}

// NewSession starts the goroutine that owns state.
func NewSession(state State, validator Validator, submitter Submitter, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = acceptAll{}
	}
	s := &Session{
		id:        state.ID,
		validator: validator,
		submitter: submitter,
		logger:    logger,
		requests:  make(chan request),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	s.touch()
	go s.run(state)
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// LastActive returns the time of the most recent request.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Session) run(state State) {
	defer close(s.done)
	for {
		select {
		case req := <-s.requests:
			res := req.fn(req.ctx, state)
			if res.err == nil || errors.Is(res.err, ErrValidation) {
				state = res.state
			}
			res.state = state.Clone()
			req.reply <- res
		case <-s.quit:
			return
		}
	}
}

func (s *Session) do(ctx context.Context, fn func(ctx context.Context, state State) outcome) outcome {
	s.touch()
	reply := make(chan outcome, 1)
	select {
	case s.requests <- request{ctx: ctx, fn: fn, reply: reply}:
	case <-ctx.Done():
		return outcome{err: ctx.Err()}
	case <-s.quit:
		return outcome{err: ErrSessionClosed}
	}

	select {
	case res := <-reply:
		return res
	case <-ctx.Done():
		return outcome{err: ctx.Err()}
	}
}

// Snapshot returns a copy of the current record.
func (s *Session) Snapshot(ctx context.Context) (State, error) {
	res := s.do(ctx, func(_ context.Context, state State) outcome {
		return outcome{state: state}
	})
	return res.state, res.err
}

// Apply merges partial into the record, prunes dependent fields and lowers the
// stage if an earlier step no longer validates.
func (s *Session) Apply(ctx context.Context, partial Values) (State, error) {
	res := s.do(ctx, func(_ context.Context, state State) outcome {
		if state.Stage == Submitted {
			return outcome{state: state, err: ErrSubmitted}
		}
		next := Reconcile(ApplyStepUpdate(state, partial), s.validator)
		s.logStage("wizard.Session.Apply", state, next)
		metrics.WizardUpdates.WithLabelValues(string(state.Flow)).Inc()
		return outcome{state: next}
	})
	return res.state, res.err
}

// ApplyBorrower merges partial into a co-borrower record.
func (s *Session) ApplyBorrower(ctx context.Context, borrowerID string, partial Values) (State, error) {
	res := s.do(ctx, func(_ context.Context, state State) outcome {
		if state.Stage == Submitted {
			return outcome{state: state, err: ErrSubmitted}
		}
		next := Reconcile(ApplyBorrowerUpdate(state, borrowerID, partial), s.validator)
		s.logStage("wizard.Session.ApplyBorrower", state, next)
		metrics.WizardUpdates.WithLabelValues(string(state.Flow)).Inc()
		return outcome{state: next}
	})
	return res.state, res.err
}

// RemoveBorrower drops a co-borrower record.
func (s *Session) RemoveBorrower(ctx context.Context, borrowerID string) (State, error) {
	res := s.do(ctx, func(_ context.Context, state State) outcome {
		if state.Stage == Submitted {
			return outcome{state: state, err: ErrSubmitted}
		}
		return outcome{state: Reconcile(RemoveBorrower(state, borrowerID), s.validator)}
	})
	return res.state, res.err
}

// Touch marks fields as interacted with.
func (s *Session) Touch(ctx context.Context, fields ...string) (State, error) {
	res := s.do(ctx, func(_ context.Context, state State) outcome {
		if state.Stage == Submitted {
			return outcome{state: state, err: ErrSubmitted}
		}
		return outcome{state: Touch(state, fields...)}
	})
	return res.state, res.err
}

// Advance validates the record through step.
func (s *Session) Advance(ctx context.Context, step int) (State, []FieldError, error) {
	res := s.do(ctx, func(_ context.Context, state State) outcome {
		next, errs, err := Advance(state, step, s.validator)
		if errors.Is(err, ErrValidation) {
			metrics.ValidationFailures.WithLabelValues(string(state.Flow), strconv.Itoa(int(next.Stage)+1)).Inc()
		}
		s.logStage("wizard.Session.Advance", state, next)
		return outcome{state: next, errors: errs, err: err}
	})
	return res.state, res.errors, res.err
}

// Submit validates every step and hands the record to the submitter.
func (s *Session) Submit(ctx context.Context) (State, []FieldError, error) {
	res := s.do(ctx, func(ctx context.Context, state State) outcome {
		next, errs, err := Submit(ctx, state, s.validator, s.submitter)
		result := "ok"
		if err != nil {
			result = "rejected"
		}
		metrics.Submissions.WithLabelValues(string(state.Flow), result).Inc()
		s.logStage("wizard.Session.Submit", state, next)
		return outcome{state: next, errors: errs, err: err}
	})
	return res.state, res.errors, res.err
}

// Close stops the session goroutine. Pending and later requests fail with
// ErrSessionClosed.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.done
}

type acceptAll struct{}

func (acceptAll) ValidateStep(Flow, int, State) []FieldError { return nil }

func (s *Session) logStage(op string, before, after State) {
	if before.Stage == after.Stage {
		return
	}
	s.logger.Debug("wizard stage changed",
		zap.String("op", op),
		zap.String("session", s.id),
		zap.String("flow", string(after.Flow)),
		zap.Stringer("from", before.Stage),
		zap.Stringer("to", after.Stage),
	)
}
