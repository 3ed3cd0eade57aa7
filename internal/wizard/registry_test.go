package wizard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistryCreateGetDelete(t *testing.T) {
	r := NewRegistry(testValidator, &recordingSubmitter{}, time.Hour, zap.NewNop())
	t.Cleanup(r.Close)

	session, err := r.Create(MortgageRefinance)
	require.NoError(t, err)
	_, err = uuid.Parse(session.ID())
	require.NoError(t, err)

	got, err := r.Get(session.ID())
	require.NoError(t, err)
	assert.Same(t, session, got)
	assert.Equal(t, 1, r.Len())

	state, err := got.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MortgageRefinance, state.Flow)
	assert.Equal(t, session.ID(), state.ID)

	require.NoError(t, r.Delete(session.ID()))
	_, err = r.Get(session.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, r.Delete(session.ID()), ErrSessionNotFound)

	_, err = session.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestRegistryRejectsUnknownFlow(t *testing.T) {
	r := NewRegistry(testValidator, nil, time.Hour, nil)
	t.Cleanup(r.Close)

	_, err := r.Create(Flow("leasing"))
	assert.ErrorIs(t, err, ErrUnknownFlow)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryReap(t *testing.T) {
	r := NewRegistry(testValidator, nil, time.Minute, zap.NewNop())
	t.Cleanup(r.Close)

	for i := 0; i < 3; i++ {
		_, err := r.Create(CreditCalculation)
		require.NoError(t, err)
	}

	assert.Equal(t, 0, r.Reap(time.Now()))
	assert.Equal(t, 3, r.Reap(time.Now().Add(2*time.Minute)))
	assert.Equal(t, 0, r.Len())
}

func TestRegistryReapDisabled(t *testing.T) {
	r := NewRegistry(testValidator, nil, 0, zap.NewNop())
	t.Cleanup(r.Close)

	_, err := r.Create(CreditCalculation)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Reap(time.Now().Add(24*time.Hour)))
}

func TestRegistryReaperLoop(t *testing.T) {
	r := NewRegistry(testValidator, nil, time.Millisecond, zap.NewNop())
	t.Cleanup(r.Close)

	_, err := r.Create(CreditCalculation)
	require.NoError(t, err)
	r.StartReaper(5 * time.Millisecond)

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
}
