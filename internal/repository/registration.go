package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/vietanh2810/community-events/internal/domain"
	"github.com/vietanh2810/community-events/internal/repository/dao"
)

var (
	ErrRegistrationNotFound = dao.ErrRegistrationNotFound
	ErrCapacityExceeded     = dao.ErrCapacityExceeded
	ErrAlreadyAttended      = dao.ErrAlreadyAttended
)

type RegistrationDAO interface {
	Register(ctx context.Context, candidate dao.Registration) (dao.Registration, bool, error)
	Cancel(ctx context.Context, eventID, userID string, at time.Time) (dao.Registration, error)
	MarkAttended(ctx context.Context, registrationID, eventID, userID string, at time.Time) (dao.Registration, bool, error)
	FindActive(ctx context.Context, eventID, userID string) (dao.Registration, error)
	FindLatest(ctx context.Context, eventID, userID string) (dao.Registration, error)
	CountActive(ctx context.Context, eventID string) (int64, error)
	ActiveUserIDs(ctx context.Context, eventID string) ([]string, error)
	ListByEvent(ctx context.Context, eventID string) ([]dao.Registration, error)
}

type RegistrationRepository struct {
	dao RegistrationDAO
}

func NewRegistrationRepository(dao RegistrationDAO) *RegistrationRepository {
	return &RegistrationRepository{
		dao: dao,
	}
}

func (r *RegistrationRepository) Register(ctx context.Context, candidate domain.Registration) (domain.RegistrationResult, error) {
	reg, created, err := r.dao.Register(ctx, registrationDomainToDAO(candidate))
	if err != nil {
		return domain.RegistrationResult{}, fmt.Errorf("r.dao.Register -> %w", err)
	}

	return domain.RegistrationResult{Registration: registrationDAOToDomain(reg), Created: created}, nil
}

func (r *RegistrationRepository) Cancel(ctx context.Context, eventID, userID string, at time.Time) (domain.Registration, error) {
	reg, err := r.dao.Cancel(ctx, eventID, userID, at)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.Cancel -> %w", err)
	}

	return registrationDAOToDomain(reg), nil
}

func (r *RegistrationRepository) MarkAttended(ctx context.Context, registrationID, eventID, userID string, at time.Time) (domain.AttendanceResult, error) {
	reg, already, err := r.dao.MarkAttended(ctx, registrationID, eventID, userID, at)
	if err != nil {
		return domain.AttendanceResult{}, fmt.Errorf("r.dao.MarkAttended -> %w", err)
	}

	return domain.AttendanceResult{Registration: registrationDAOToDomain(reg), AlreadyMarked: already}, nil
}

func (r *RegistrationRepository) FindActive(ctx context.Context, eventID, userID string) (domain.Registration, error) {
	reg, err := r.dao.FindActive(ctx, eventID, userID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindActive -> %w", err)
	}

	return registrationDAOToDomain(reg), nil
}

func (r *RegistrationRepository) FindLatest(ctx context.Context, eventID, userID string) (domain.Registration, error) {
	reg, err := r.dao.FindLatest(ctx, eventID, userID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindLatest -> %w", err)
	}

	return registrationDAOToDomain(reg), nil
}

func (r *RegistrationRepository) CountActive(ctx context.Context, eventID string) (int, error) {
	n, err := r.dao.CountActive(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountActive -> %w", err)
	}
	return int(n), nil
}

func (r *RegistrationRepository) ActiveUserIDs(ctx context.Context, eventID string) ([]string, error) {
	ids, err := r.dao.ActiveUserIDs(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ActiveUserIDs -> %w", err)
	}
	return ids, nil
}

func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.Registration, error) {
	found, err := r.dao.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByEvent -> %w", err)
	}

	regs := make([]domain.Registration, len(found))
	for i, reg := range found {
		regs[i] = registrationDAOToDomain(reg)
	}
	return regs, nil
}

func registrationDomainToDAO(r domain.Registration) dao.Registration {
	return dao.Registration{
		ID:            r.ID,
		EventID:       r.EventID,
		UserID:        r.UserID,
		Status:        string(r.Status),
		TicketPayload: r.TicketPayload,
		TicketImage:   r.TicketImage,
		RegisteredAt:  r.RegisteredAt,
		AttendedAt:    r.AttendedAt,
		CancelledAt:   r.CancelledAt,
	}
}

func registrationDAOToDomain(r dao.Registration) domain.Registration {
	return domain.Registration{
		ID:            r.ID,
		EventID:       r.EventID,
		UserID:        r.UserID,
		Status:        domain.RegistrationStatus(r.Status),
		TicketPayload: r.TicketPayload,
		TicketImage:   r.TicketImage,
		RegisteredAt:  r.RegisteredAt,
		AttendedAt:    r.AttendedAt,
		CancelledAt:   r.CancelledAt,
	}
}
