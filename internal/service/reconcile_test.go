package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/community-events/internal/domain"
	"github.com/vietanh2810/community-events/internal/metrics"
)

func TestGetEventRepairsDriftedCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.seedEvent(t, ptr(2))
	a, b := newUser(), newUser()

	for _, u := range []domain.User{a, b} {
		_, err := f.regs.Register(ctx, u, event.ID)
		require.NoError(t, err)
	}
	f.store.corruptCache(event.ID, []string{a.ID})

	view, err := f.events.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.RegistrationCount)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, view.RegisteredParticipants)
	require.NotNil(t, view.AvailableSlots)
	assert.Equal(t, 0, *view.AvailableSlots)

	stored := f.store.event(event.ID)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, stored.RegisteredParticipants)
	assert.Equal(t, 2, stored.RegistrationCount)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CacheRepairs.WithLabelValues(metrics.OutcomeRepaired)))

	// the cache is healthy now, nothing left to repair
	_, err = f.events.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CacheRepairs.WithLabelValues(metrics.OutcomeRepaired)))
}

func TestGetEventServesLedgerWhenRepairFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.seedEvent(t, nil)
	u := newUser()

	_, err := f.regs.Register(ctx, u, event.ID)
	require.NoError(t, err)
	f.store.corruptCache(event.ID, []string{})
	f.store.failCacheWrites = true

	view, err := f.events.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.RegistrationCount)
	assert.Equal(t, []string{u.ID}, view.RegisteredParticipants)

	assert.Empty(t, f.store.event(event.ID).RegisteredParticipants)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CacheRepairs.WithLabelValues(metrics.OutcomeFailed)))
}

func TestReconcileSkipsStaleVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.seedEvent(t, nil)
	u := newUser()

	stale := f.store.event(event.ID)
	_, err := f.regs.Register(ctx, u, event.ID)
	require.NoError(t, err)
	writes := f.store.cacheWrites

	fixed, err := f.reconciler.Reconcile(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, []string{u.ID}, fixed.RegisteredParticipants)
	assert.Equal(t, 1, fixed.RegistrationCount)

	assert.Equal(t, writes, f.store.cacheWrites)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CacheRepairs.WithLabelValues(metrics.OutcomeConflict)))
}

func TestReconcileAllKeepsOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var events []domain.Event
	for i := 0; i < 12; i++ {
		e := f.seedEvent(t, nil)
		for j := 0; j < i%3; j++ {
			_, err := f.regs.Register(ctx, newUser(), e.ID)
			require.NoError(t, err)
		}
		f.store.corruptCache(e.ID, nil)
		events = append(events, f.store.event(e.ID))
	}

	fixed, err := f.reconciler.ReconcileAll(ctx, events)
	require.NoError(t, err)
	require.Len(t, fixed, len(events))
	for i, e := range fixed {
		assert.Equal(t, events[i].ID, e.ID)
		assert.Equal(t, i%3, e.RegistrationCount)
		assert.Len(t, e.RegisteredParticipants, i%3)
	}
}

type brokenLedger struct{}

func (brokenLedger) ActiveUserIDs(context.Context, string) ([]string, error) {
	return nil, errors.New("connection reset")
}

func TestReconcileLedgerFailure(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, nil)
	r := NewReconciler(brokenLedger{}, f.store, f.metrics)

	_, err := r.Reconcile(context.Background(), f.store.event(event.ID))
	assert.Error(t, err)
}

// gatedLedger holds every ledger read until release is closed and reports the
// context error each read finished with.
type gatedLedger struct {
	ParticipantLedger
	entered chan struct{}
	release chan struct{}
	seen    chan error
	once    sync.Once
}

func (g *gatedLedger) ActiveUserIDs(ctx context.Context, eventID string) ([]string, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	g.seen <- ctx.Err()
	return g.ParticipantLedger.ActiveUserIDs(ctx, eventID)
}

func TestReconcileSurvivesCancelledCaller(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, nil)
	u := newUser()

	_, err := f.regs.Register(context.Background(), u, event.ID)
	require.NoError(t, err)
	f.store.corruptCache(event.ID, []string{})
	stale := f.store.event(event.ID)

	ledger := &gatedLedger{
		ParticipantLedger: f.store,
		entered:           make(chan struct{}),
		release:           make(chan struct{}),
		seen:              make(chan error, 2),
	}
	r := NewReconciler(ledger, f.store, f.metrics)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := r.Reconcile(ctx, stale)
		first <- err
	}()

	<-ledger.entered
	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	second := make(chan error, 1)
	var fixed domain.Event
	go func() {
		var err error
		fixed, err = r.Reconcile(context.Background(), stale)
		second <- err
	}()
	close(ledger.release)

	require.NoError(t, <-second)
	assert.Equal(t, []string{u.ID}, fixed.RegisteredParticipants)
	assert.Equal(t, 1, fixed.RegistrationCount)
	assert.NoError(t, <-ledger.seen)

	assert.Equal(t, []string{u.ID}, f.store.event(event.ID).RegisteredParticipants)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CacheRepairs.WithLabelValues(metrics.OutcomeRepaired)))
}
