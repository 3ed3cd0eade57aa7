// Package submission receives completed applications from the wizard.
package submission

import (
	"context"
	"sync"

	"github.com/bankim/loan-engine/internal/wizard"
	"go.uber.org/zap"
)

// LogSubmitter records each application in the structured log. It stands in
// for the bank hand-off, which is outside this service.
type LogSubmitter struct {
	logger *zap.Logger
}

// NewLogSubmitter creates a submitter that logs through logger.
func NewLogSubmitter(logger *zap.Logger) *LogSubmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSubmitter{logger: logger}
}

// Submit logs app.
func (s *LogSubmitter) Submit(ctx context.Context, app wizard.Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info("application submitted",
		zap.String("op", "submission.Submit"),
		zap.String("id", app.ID),
		zap.String("flow", string(app.Flow)),
		zap.Int("fields", len(app.Values)),
		zap.Int("co_borrowers", len(app.CoBorrowers)),
		zap.Time("submitted_at", app.SubmittedAt),
	)
	return nil
}

// Recorder keeps submitted applications in memory.
type Recorder struct {
	mu   sync.Mutex
	apps []wizard.Application
}

// Submit stores app.
func (r *Recorder) Submit(ctx context.Context, app wizard.Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps = append(r.apps, app)
	return nil
}

// Applications returns a copy of the stored applications.
func (r *Recorder) Applications() []wizard.Application {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]wizard.Application, len(r.apps))
	copy(out, r.apps)
	return out
}
