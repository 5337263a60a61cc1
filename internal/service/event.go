package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vietanh2810/community-events/internal/domain"
	"github.com/vietanh2810/community-events/internal/metrics"
	"github.com/vietanh2810/community-events/internal/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var (
	ErrEventNotFound = repository.ErrEventNotFound

	ErrTitleRequired     = domain.NewError(domain.CodeValidation, "title is required")
	ErrCommunityRequired = domain.NewError(domain.CodeValidation, "community id is required")
	ErrInvalidSchedule   = domain.NewError(domain.CodeValidation, "date must be YYYY-MM-DD and times HH:MM")
	ErrEndBeforeStart    = domain.NewError(domain.CodeValidation, "end time must not be before start time")
	ErrInvalidTimeZone   = domain.NewError(domain.CodeValidation, "unknown time zone")
	ErrInvalidCapacity   = domain.NewError(domain.CodeValidation, "max participants must be at least 1")
)

type EventRepository interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	FindByID(ctx context.Context, id string) (domain.Event, error)
	ListOpen(ctx context.Context, communityID string, now time.Time, limit, offset int) ([]domain.Event, int64, error)
	Delete(ctx context.Context, id string) error
	UpdateParticipantCache(ctx context.Context, id string, version int, participants []string) (bool, error)
}

type EventService struct {
	repo       EventRepository
	members    MemberRepository
	reconciler *Reconciler
	metrics    *metrics.Metrics
	timeZone   func() string
	now        func() time.Time
}

// NewEventService builds the catalog. defaultTimeZone is consulted on every
// create so a reloaded configuration takes effect without a restart.
func NewEventService(repo EventRepository, members MemberRepository, reconciler *Reconciler, m *metrics.Metrics, defaultTimeZone func() string) *EventService {
	return &EventService{
		repo:       repo,
		members:    members,
		reconciler: reconciler,
		metrics:    m,
		timeZone:   defaultTimeZone,
		now:        time.Now,
	}
}

// CreateEvent stores a new event for a community. Only community staff may
// create events. The wall-clock schedule is resolved to UTC instants in the
// event's time zone once, here.
func (s *EventService) CreateEvent(ctx context.Context, user domain.User, event domain.Event) (domain.Event, error) {
	event.Title = strings.TrimSpace(event.Title)
	if event.Title == "" {
		return domain.Event{}, ErrTitleRequired
	}
	if event.CommunityID == "" {
		return domain.Event{}, ErrCommunityRequired
	}
	if event.MaxParticipants != nil && *event.MaxParticipants < 1 {
		return domain.Event{}, ErrInvalidCapacity
	}

	if err := authorizeStaff(ctx, s.members, user, event.CommunityID); err != nil {
		return domain.Event{}, err
	}

	if event.TimeZone == "" {
		event.TimeZone = s.timeZone()
	}
	loc, err := time.LoadLocation(event.TimeZone)
	if err != nil {
		return domain.Event{}, ErrInvalidTimeZone
	}
	dateAt, startsAt, endsAt, err := domain.ResolveSchedule(event.Date, event.StartTime, event.EndTime, loc)
	if err != nil {
		return domain.Event{}, ErrInvalidSchedule
	}
	if endsAt != nil && endsAt.Before(startsAt) {
		return domain.Event{}, ErrEndBeforeStart
	}

	now := s.now().UTC()
	event.ID = uuid.NewString()
	event.CreatedBy = user.ID
	event.DateAt = dateAt
	event.StartsAt = startsAt
	event.EndsAt = endsAt
	event.RegisteredParticipants = []string{}
	event.RegistrationCount = 0
	event.AttendanceLog = []domain.AttendanceEntry{}
	event.Version = 0
	event.CreatedAt = now
	event.UpdatedAt = now

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	s.metrics.EventsCreated.Inc()
	zap.L().Info("event created",
		zap.String("event_id", created.ID),
		zap.String("community_id", created.CommunityID),
		zap.String("created_by", user.ID))

	return created, nil
}

// GetEvent returns the detail view, read-repairing the participant cache.
func (s *EventService) GetEvent(ctx context.Context, id string) (domain.EventView, error) {
	if !validID(id) {
		return domain.EventView{}, ErrEventNotFound
	}

	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.EventView{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	event, err = s.reconciler.Reconcile(ctx, event)
	if err != nil {
		return domain.EventView{}, fmt.Errorf("s.reconciler.Reconcile -> %w", err)
	}

	return event.View(s.now(), event.RegistrationCount), nil
}

// ListEvents returns one page of the community's events that have not yet
// completed, ordered by date.
func (s *EventService) ListEvents(ctx context.Context, communityID string, page, pageSize int) (domain.EventPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	pageSize = min(pageSize, MaxPageSize)

	now := s.now()
	events, total, err := s.repo.ListOpen(ctx, communityID, now.UTC(), pageSize, (page-1)*pageSize)
	if err != nil {
		return domain.EventPage{}, fmt.Errorf("s.repo.ListOpen -> %w", err)
	}

	events, err = s.reconciler.ReconcileAll(ctx, events)
	if err != nil {
		return domain.EventPage{}, fmt.Errorf("s.reconciler.ReconcileAll -> %w", err)
	}

	views := make([]domain.EventView, 0, len(events))
	for _, e := range events {
		v := e.View(now, e.RegistrationCount)
		if v.Status == domain.EventStatusCompleted {
			// the store disagreed with ComputeStatus; keep Total in line
			// with what is listed
			total--
			continue
		}
		views = append(views, v)
	}

	return domain.EventPage{
		Events:   views,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// DeleteEvent soft-deletes the event. Its registrations are kept.
func (s *EventService) DeleteEvent(ctx context.Context, user domain.User, id string) error {
	if !validID(id) {
		return ErrEventNotFound
	}

	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if event.CreatedBy != user.ID {
		if err := authorizeStaff(ctx, s.members, user, event.CommunityID); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	s.metrics.EventsDeleted.Inc()
	zap.L().Info("event deleted", zap.String("event_id", id), zap.String("deleted_by", user.ID))
	return nil
}
