package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vietanh2810/community-events/internal/domain"
	"github.com/vietanh2810/community-events/internal/metrics"
	"github.com/vietanh2810/community-events/internal/pkg/ticket"
)

var ErrInvalidPayload = domain.ErrInvalidPayload

type TicketVerifier interface {
	Verify(payload string) (ticket.Claims, error)
}

type AttendanceRecorder interface {
	MarkAttended(ctx context.Context, registrationID, eventID, userID string, at time.Time) (domain.AttendanceResult, error)
}

type AttendanceService struct {
	events   EventFinder
	repo     AttendanceRecorder
	members  MemberRepository
	verifier TicketVerifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewAttendanceService(events EventFinder, repo AttendanceRecorder, members MemberRepository, verifier TicketVerifier, m *metrics.Metrics) *AttendanceService {
	return &AttendanceService{
		events:   events,
		repo:     repo,
		members:  members,
		verifier: verifier,
		metrics:  m,
		now:      time.Now,
	}
}

// MarkAttendance checks in the holder of a scanned ticket. The scanning user
// must be staff of the event's community. Scanning the same ticket again
// succeeds with AlreadyMarked set and changes nothing.
func (s *AttendanceService) MarkAttendance(ctx context.Context, scanner domain.User, payload string) (domain.AttendanceResult, error) {
	if scanner.ID == "" {
		return domain.AttendanceResult{}, ErrUnauthenticated
	}

	claims, err := s.verifier.Verify(payload)
	if err != nil {
		s.metrics.IncScan(metrics.OutcomeInvalid)
		zap.L().Warn("ticket rejected", zap.String("scanner_id", scanner.ID), zap.Error(err))
		return domain.AttendanceResult{}, ErrInvalidPayload
	}
	if !validID(claims.EventID) {
		s.metrics.IncScan(metrics.OutcomeInvalid)
		return domain.AttendanceResult{}, ErrEventNotFound
	}

	event, err := s.events.FindByID(ctx, claims.EventID)
	if err != nil {
		return domain.AttendanceResult{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}
	if err := authorizeStaff(ctx, s.members, scanner, event.CommunityID); err != nil {
		return domain.AttendanceResult{}, err
	}
	if !validID(claims.RegistrationID) {
		return domain.AttendanceResult{}, ErrRegistrationNotFound
	}

	result, err := s.repo.MarkAttended(ctx, claims.RegistrationID, claims.EventID, claims.UserID, s.now().UTC())
	if err != nil {
		if errors.Is(err, ErrRegistrationNotFound) {
			return domain.AttendanceResult{}, ErrRegistrationNotFound
		}
		s.metrics.IncScan(metrics.OutcomeFailed)
		return domain.AttendanceResult{}, fmt.Errorf("s.repo.MarkAttended -> %w", err)
	}

	if result.AlreadyMarked {
		s.metrics.IncScan(metrics.OutcomeAlreadyMarked)
		return result, nil
	}

	s.metrics.IncScan(metrics.OutcomeMarked)
	zap.L().Info("attendance marked",
		zap.String("event_id", claims.EventID),
		zap.String("user_id", claims.UserID),
		zap.String("scanner_id", scanner.ID))
	return result, nil
}
