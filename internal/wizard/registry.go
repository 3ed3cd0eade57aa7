package wizard

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bankim/loan-engine/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for unknown or reaped session ids.
var ErrSessionNotFound = errors.New("session not found")

// Registry maps session ids to live sessions. The lock guards only the map;
// each session serializes its own record.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	validator Validator
	submitter Submitter
	logger    *zap.Logger
	idleTTL   time.Duration
	stopReap  chan struct{}
	stopOnce  sync.Once
}

// NewRegistry creates an empty registry. Sessions idle for longer than idleTTL
// are removed by Reap; a non-positive idleTTL disables reaping.
func NewRegistry(validator Validator, submitter Submitter, idleTTL time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions:  make(map[string]*Session),
		validator: validator,
		submitter: submitter,
		logger:    logger,
		idleTTL:   idleTTL,
		stopReap:  make(chan struct{}),
	}
}

// Create starts a session for an empty application of flow.
func (r *Registry) Create(flow Flow) (*Session, error) {
	flow, err := ParseFlow(string(flow))
	if err != nil {
		return nil, err
	}
	state := Reset(flow)
	state.ID = uuid.NewString()
	session := NewSession(state, r.validator, r.submitter, r.logger)

	r.mu.Lock()
	r.sessions[state.ID] = session
	count := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveSessions.Inc()
	r.logger.Debug("wizard session created",
		zap.String("op", "wizard.Registry.Create"),
		zap.String("session", state.ID),
		zap.String("flow", string(flow)),
		zap.Int("active", count),
	)
	return session, nil
}

// Get returns the session for id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, nil
}

// Delete closes and removes the session for id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	session, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	session.Close()
	metrics.ActiveSessions.Dec()
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Reap closes sessions idle since before now minus the idle TTL and returns
// how many were removed.
func (r *Registry) Reap(now time.Time) int {
	if r.idleTTL <= 0 {
		return 0
	}

	var expired []*Session
	r.mu.Lock()
	for id, session := range r.sessions {
		if now.Sub(session.LastActive()) > r.idleTTL {
			expired = append(expired, session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, session := range expired {
		session.Close()
		metrics.ActiveSessions.Dec()
	}
	if len(expired) > 0 {
		r.logger.Info("reaped idle wizard sessions",
			zap.String("op", "wizard.Registry.Reap"),
			zap.Int("count", len(expired)),
		)
	}
	return len(expired)
}

// StartReaper calls Reap every interval until Close.
func (r *Registry) StartReaper(interval time.Duration) {
	if interval <= 0 || r.idleTTL <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				r.Reap(now)
			case <-r.stopReap:
				return
			}
		}
	}()
}

// Close stops the reaper and every session.
func (r *Registry) Close() {
	r.stopOnce.Do(func() {
		close(r.stopReap)
	})

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, session := range sessions {
		session.Close()
		metrics.ActiveSessions.Dec()
	}
}
