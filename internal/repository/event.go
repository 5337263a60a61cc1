package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/vietanh2810/community-events/internal/domain"
	"github.com/vietanh2810/community-events/internal/repository/dao"
)

var (
	ErrEventNotFound = dao.ErrEventNotFound
)

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	FindByID(ctx context.Context, id string) (dao.Event, error)
	ListOpen(ctx context.Context, communityID string, now time.Time, limit, offset int) ([]dao.Event, int64, error)
	SoftDelete(ctx context.Context, id string) error
	UpdateParticipantCache(ctx context.Context, id string, version int, participants []string) (bool, error)
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	created, err := r.dao.Insert(ctx, eventDomainToDAO(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return eventDAOToDomain(created), nil
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (domain.Event, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return eventDAOToDomain(found), nil
}

func (r *EventRepository) ListOpen(ctx context.Context, communityID string, now time.Time, limit, offset int) ([]domain.Event, int64, error) {
	found, total, err := r.dao.ListOpen(ctx, communityID, now, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("r.dao.ListOpen -> %w", err)
	}

	events := make([]domain.Event, len(found))
	for i, e := range found {
		events[i] = eventDAOToDomain(e)
	}
	return events, total, nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if err := r.dao.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.SoftDelete -> %w", err)
	}
	return nil
}

func (r *EventRepository) UpdateParticipantCache(ctx context.Context, id string, version int, participants []string) (bool, error) {
	ok, err := r.dao.UpdateParticipantCache(ctx, id, version, participants)
	if err != nil {
		return false, fmt.Errorf("r.dao.UpdateParticipantCache -> %w", err)
	}
	return ok, nil
}

func eventDomainToDAO(e domain.Event) dao.Event {
	log := make(dao.AttendanceLog, len(e.AttendanceLog))
	for i, a := range e.AttendanceLog {
		log[i] = dao.AttendanceEntry{UserID: a.UserID, MarkedAt: a.MarkedAt, Verified: a.Verified}
	}

	return dao.Event{
		ID:                     e.ID,
		CommunityID:            e.CommunityID,
		Title:                  e.Title,
		Description:            e.Description,
		Date:                   e.Date,
		StartTime:              e.StartTime,
		EndTime:                e.EndTime,
		TimeZone:               e.TimeZone,
		Location:               e.Location,
		CreatedBy:              e.CreatedBy,
		DateAt:                 e.DateAt,
		StartsAt:               e.StartsAt,
		EndsAt:                 e.EndsAt,
		MaxParticipants:        e.MaxParticipants,
		RegisteredParticipants: dao.StringSlice(e.RegisteredParticipants),
		RegistrationCount:      e.RegistrationCount,
		AttendanceLog:          log,
		Version:                e.Version,
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              e.UpdatedAt,
	}
}

func eventDAOToDomain(e dao.Event) domain.Event {
	log := make([]domain.AttendanceEntry, len(e.AttendanceLog))
	for i, a := range e.AttendanceLog {
		log[i] = domain.AttendanceEntry{UserID: a.UserID, MarkedAt: a.MarkedAt, Verified: a.Verified}
	}

	participants := []string(e.RegisteredParticipants)
	if participants == nil {
		participants = []string{}
	}

	event := domain.Event{
		ID:                     e.ID,
		CommunityID:            e.CommunityID,
		Title:                  e.Title,
		Description:            e.Description,
		Date:                   e.Date,
		StartTime:              e.StartTime,
		EndTime:                e.EndTime,
		TimeZone:               e.TimeZone,
		Location:               e.Location,
		CreatedBy:              e.CreatedBy,
		DateAt:                 e.DateAt.UTC(),
		StartsAt:               e.StartsAt.UTC(),
		MaxParticipants:        e.MaxParticipants,
		RegisteredParticipants: participants,
		RegistrationCount:      e.RegistrationCount,
		AttendanceLog:          log,
		Version:                e.Version,
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              e.UpdatedAt,
	}
	if e.EndsAt != nil {
		endsAt := e.EndsAt.UTC()
		event.EndsAt = &endsAt
	}
	if e.DeletedAt.Valid {
		deletedAt := e.DeletedAt.Time
		event.DeletedAt = &deletedAt
	}
	return event
}
