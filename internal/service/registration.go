package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vietanh2810/community-events/internal/domain"
	"github.com/vietanh2810/community-events/internal/metrics"
	"github.com/vietanh2810/community-events/internal/pkg/ticket"
	"github.com/vietanh2810/community-events/internal/repository"
)

var (
	ErrRegistrationNotFound = repository.ErrRegistrationNotFound
	ErrCapacityExceeded     = repository.ErrCapacityExceeded
	ErrAlreadyAttended      = repository.ErrAlreadyAttended
)

type RegistrationRepository interface {
	Register(ctx context.Context, candidate domain.Registration) (domain.RegistrationResult, error)
	Cancel(ctx context.Context, eventID, userID string, at time.Time) (domain.Registration, error)
	MarkAttended(ctx context.Context, registrationID, eventID, userID string, at time.Time) (domain.AttendanceResult, error)
	FindActive(ctx context.Context, eventID, userID string) (domain.Registration, error)
	FindLatest(ctx context.Context, eventID, userID string) (domain.Registration, error)
	CountActive(ctx context.Context, eventID string) (int, error)
	ActiveUserIDs(ctx context.Context, eventID string) ([]string, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.Registration, error)
}

type EventFinder interface {
	FindByID(ctx context.Context, id string) (domain.Event, error)
}

type TicketIssuer interface {
	Issue(eventID, userID, registrationID string, issuedAt time.Time) (ticket.Issued, error)
}

type RegistrationService struct {
	events  EventFinder
	repo    RegistrationRepository
	members MemberRepository
	issuer  TicketIssuer
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewRegistrationService(events EventFinder, repo RegistrationRepository, members MemberRepository, issuer TicketIssuer, m *metrics.Metrics) *RegistrationService {
	return &RegistrationService{
		events:  events,
		repo:    repo,
		members: members,
		issuer:  issuer,
		metrics: m,
		now:     time.Now,
	}
}

// Register is get-or-create: a user already holding an active registration
// gets it back with Created false. A new registration is only persisted
// together with its signed ticket, and only while the event has room.
func (s *RegistrationService) Register(ctx context.Context, user domain.User, eventID string) (domain.RegistrationResult, error) {
	if user.ID == "" {
		return domain.RegistrationResult{}, ErrUnauthenticated
	}
	if !validID(eventID) {
		return domain.RegistrationResult{}, ErrEventNotFound
	}

	// deleted events reject everyone, including users already registered
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return domain.RegistrationResult{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	existing, err := s.repo.FindActive(ctx, eventID, user.ID)
	if err == nil {
		s.metrics.IncRegistration(metrics.OutcomeExisting)
		return domain.RegistrationResult{Registration: existing}, nil
	}
	if !errors.Is(err, ErrRegistrationNotFound) {
		return domain.RegistrationResult{}, fmt.Errorf("s.repo.FindActive -> %w", err)
	}

	now := s.now().UTC()
	id := uuid.NewString()
	issued, err := s.issuer.Issue(eventID, user.ID, id, now)
	if err != nil {
		return domain.RegistrationResult{}, fmt.Errorf("s.issuer.Issue -> %w", err)
	}

	result, err := s.repo.Register(ctx, domain.Registration{
		ID:            id,
		EventID:       eventID,
		UserID:        user.ID,
		Status:        domain.RegistrationStatusRegistered,
		TicketPayload: issued.Payload,
		TicketImage:   issued.Image,
		RegisteredAt:  now,
	})
	if err != nil {
		if errors.Is(err, ErrCapacityExceeded) {
			s.metrics.IncRegistration(metrics.OutcomeCapacityExceeded)
			return domain.RegistrationResult{}, ErrCapacityExceeded
		}
		s.metrics.IncRegistration(metrics.OutcomeFailed)
		return domain.RegistrationResult{}, fmt.Errorf("s.repo.Register -> %w", err)
	}

	if result.Created {
		s.metrics.IncRegistration(metrics.OutcomeCreated)
		zap.L().Info("registration created",
			zap.String("event_id", eventID),
			zap.String("user_id", user.ID),
			zap.String("registration_id", result.Registration.ID))
	} else {
		s.metrics.IncRegistration(metrics.OutcomeExisting)
	}

	return result, nil
}

// GetUserRegistration returns the caller's active registration, or the most
// recent one when all of them were cancelled. Registrations of a deleted
// event are not visible.
func (s *RegistrationService) GetUserRegistration(ctx context.Context, user domain.User, eventID string) (domain.Registration, error) {
	if user.ID == "" {
		return domain.Registration{}, ErrUnauthenticated
	}
	if !validID(eventID) {
		return domain.Registration{}, ErrEventNotFound
	}
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return domain.Registration{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	reg, err := s.repo.FindLatest(ctx, eventID, user.ID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.FindLatest -> %w", err)
	}
	return reg, nil
}

func (s *RegistrationService) ActiveCount(ctx context.Context, eventID string) (int, error) {
	if !validID(eventID) {
		return 0, ErrEventNotFound
	}
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return 0, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	n, err := s.repo.CountActive(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("s.repo.CountActive -> %w", err)
	}
	return n, nil
}

// Cancel releases the caller's slot. An attended registration cannot be
// cancelled.
func (s *RegistrationService) Cancel(ctx context.Context, user domain.User, eventID string) (domain.Registration, error) {
	if user.ID == "" {
		return domain.Registration{}, ErrUnauthenticated
	}
	if !validID(eventID) {
		return domain.Registration{}, ErrEventNotFound
	}

	reg, err := s.repo.Cancel(ctx, eventID, user.ID, s.now().UTC())
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.repo.Cancel -> %w", err)
	}

	s.metrics.Cancellations.Inc()
	zap.L().Info("registration cancelled",
		zap.String("event_id", eventID),
		zap.String("user_id", user.ID),
		zap.String("registration_id", reg.ID))
	return reg, nil
}

// ListRegistrations returns the event roster to community staff.
func (s *RegistrationService) ListRegistrations(ctx context.Context, user domain.User, eventID string) ([]domain.Registration, error) {
	if user.ID == "" {
		return nil, ErrUnauthenticated
	}
	if !validID(eventID) {
		return nil, ErrEventNotFound
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.events.FindByID -> %w", err)
	}
	if err := authorizeStaff(ctx, s.members, user, event.CommunityID); err != nil {
		return nil, err
	}

	regs, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByEvent -> %w", err)
	}
	return regs, nil
}
