package service

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/vietanh2810/community-events/internal/domain"
	"github.com/vietanh2810/community-events/internal/metrics"
)

const reconcileConcurrency = 8

type ParticipantLedger interface {
	ActiveUserIDs(ctx context.Context, eventID string) ([]string, error)
}

type ParticipantCache interface {
	UpdateParticipantCache(ctx context.Context, id string, version int, participants []string) (bool, error)
}

// Reconciler keeps the participant set cached on an event in line with the
// registration ledger. The ledger always wins. A failed repair is logged and
// retried on the next read.
type Reconciler struct {
	ledger  ParticipantLedger
	cache   ParticipantCache
	metrics *metrics.Metrics
	group   singleflight.Group
}

func NewReconciler(ledger ParticipantLedger, cache ParticipantCache, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		ledger:  ledger,
		cache:   cache,
		metrics: m,
	}
}

type reconciled struct {
	participants []string
	version      int
}

// Reconcile returns event with its participants and count taken from the
// ledger, rewriting the stored cache when it has drifted. Concurrent calls
// for the same event share one repair, which outlives the caller that
// started it.
func (r *Reconciler) Reconcile(ctx context.Context, event domain.Event) (domain.Event, error) {
	ch := r.group.DoChan(event.ID, func() (interface{}, error) {
		return r.repair(context.WithoutCancel(ctx), event)
	})

	var shared singleflight.Result
	select {
	case <-ctx.Done():
		return domain.Event{}, ctx.Err()
	case shared = <-ch:
	}
	if shared.Err != nil {
		return domain.Event{}, shared.Err
	}

	res := shared.Val.(reconciled)
	event.RegisteredParticipants = slices.Clone(res.participants)
	event.RegistrationCount = len(res.participants)
	event.Version = max(event.Version, res.version)
	return event, nil
}

// ReconcileAll reconciles a page of events concurrently, preserving order.
func (r *Reconciler) ReconcileAll(ctx context.Context, events []domain.Event) ([]domain.Event, error) {
	out := make([]domain.Event, len(events))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for i, e := range events {
		i, e := i, e
		g.Go(func() error {
			fixed, err := r.Reconcile(gctx, e)
			if err != nil {
				return fmt.Errorf("event %s: %w", e.ID, err)
			}
			out[i] = fixed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Reconciler) repair(ctx context.Context, event domain.Event) (reconciled, error) {
	ids, err := r.ledger.ActiveUserIDs(ctx, event.ID)
	if err != nil {
		return reconciled{}, fmt.Errorf("r.ledger.ActiveUserIDs -> %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	slices.Sort(ids)

	cached := slices.Clone(event.RegisteredParticipants)
	slices.Sort(cached)
	if slices.Equal(ids, cached) && event.RegistrationCount == len(ids) {
		return reconciled{participants: ids, version: event.Version}, nil
	}

	log := zap.L().With(
		zap.String("event_id", event.ID),
		zap.Int("cached", len(cached)),
		zap.Int("ledger", len(ids)))

	ok, err := r.cache.UpdateParticipantCache(ctx, event.ID, event.Version, ids)
	switch {
	case err != nil:
		r.metrics.IncCacheRepair(metrics.OutcomeFailed)
		log.Warn("participant cache repair failed", zap.Error(err))
		return reconciled{participants: ids, version: event.Version}, nil
	case !ok:
		// someone else wrote the cache since we read it
		r.metrics.IncCacheRepair(metrics.OutcomeConflict)
		log.Debug("participant cache changed concurrently, repair skipped")
		return reconciled{participants: ids, version: event.Version}, nil
	}

	r.metrics.IncCacheRepair(metrics.OutcomeRepaired)
	log.Info("participant cache repaired")
	return reconciled{participants: ids, version: event.Version + 1}, nil
}
