package service

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/vietanh2810/community-events/internal/domain"
)

// memStore is an in-memory event catalog and registration ledger with the
// same locking guarantees as the Postgres DAOs: one mutex plays the part of
// the event row lock.
type memStore struct {
	mu     sync.Mutex
	events map[string]domain.Event
	regs   []domain.Registration

	failCacheWrites bool
	cacheWrites     int
}

func newMemStore() *memStore {
	return &memStore{events: map[string]domain.Event{}}
}

func (m *memStore) Create(_ context.Context, event domain.Event) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = event
	return event, nil
}

func (m *memStore) FindByID(_ context.Context, id string) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.IsDeleted() {
		return domain.Event{}, ErrEventNotFound
	}
	return cloneEvent(e), nil
}

func (m *memStore) ListOpen(_ context.Context, communityID string, now time.Time, limit, offset int) ([]domain.Event, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var open []domain.Event
	for _, e := range m.events {
		if e.CommunityID != communityID || e.IsDeleted() {
			continue
		}
		if e.DateAt.After(now) || (e.EndsAt != nil && !e.EndsAt.Before(now)) {
			open = append(open, cloneEvent(e))
		}
	}
	sort.Slice(open, func(i, j int) bool {
		if !open[i].DateAt.Equal(open[j].DateAt) {
			return open[i].DateAt.Before(open[j].DateAt)
		}
		return open[i].ID < open[j].ID
	})

	total := int64(len(open))
	if offset >= len(open) {
		return []domain.Event{}, total, nil
	}
	return open[offset:min(offset+limit, len(open))], total, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.IsDeleted() {
		return ErrEventNotFound
	}
	now := time.Now()
	e.DeletedAt = &now
	m.events[id] = e
	return nil
}

func (m *memStore) UpdateParticipantCache(_ context.Context, id string, version int, participants []string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCacheWrites {
		return false, errors.New("cache write failed")
	}
	e, ok := m.events[id]
	if !ok || e.Version != version {
		return false, nil
	}
	m.setParticipants(&e, participants)
	m.events[id] = e
	return true, nil
}

func (m *memStore) Register(_ context.Context, candidate domain.Registration) (domain.RegistrationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[candidate.EventID]
	if !ok || e.IsDeleted() {
		return domain.RegistrationResult{}, ErrEventNotFound
	}
	if i := m.activeIndex(candidate.EventID, candidate.UserID); i >= 0 {
		return domain.RegistrationResult{Registration: m.regs[i]}, nil
	}
	if e.MaxParticipants != nil && len(m.activeIDs(e.ID)) >= *e.MaxParticipants {
		return domain.RegistrationResult{}, ErrCapacityExceeded
	}

	candidate.Status = domain.RegistrationStatusRegistered
	m.regs = append(m.regs, candidate)
	m.setParticipants(&e, m.activeIDs(e.ID))
	m.events[e.ID] = e
	return domain.RegistrationResult{Registration: candidate, Created: true}, nil
}

func (m *memStore) Cancel(_ context.Context, eventID, userID string, at time.Time) (domain.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[eventID]
	if !ok || e.IsDeleted() {
		return domain.Registration{}, ErrEventNotFound
	}
	i := m.activeIndex(eventID, userID)
	if i < 0 {
		return domain.Registration{}, ErrRegistrationNotFound
	}
	if m.regs[i].Status == domain.RegistrationStatusAttended {
		return domain.Registration{}, ErrAlreadyAttended
	}
	m.regs[i].Status = domain.RegistrationStatusCancelled
	m.regs[i].CancelledAt = &at
	m.setParticipants(&e, m.activeIDs(eventID))
	m.events[eventID] = e
	return m.regs[i], nil
}

func (m *memStore) MarkAttended(_ context.Context, registrationID, eventID, userID string, at time.Time) (domain.AttendanceResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[eventID]
	if !ok || e.IsDeleted() {
		return domain.AttendanceResult{}, ErrEventNotFound
	}
	i := slices.IndexFunc(m.regs, func(r domain.Registration) bool { return r.ID == registrationID })
	if i < 0 || m.regs[i].EventID != eventID || m.regs[i].UserID != userID {
		return domain.AttendanceResult{}, ErrRegistrationNotFound
	}
	switch m.regs[i].Status {
	case domain.RegistrationStatusAttended:
		return domain.AttendanceResult{Registration: m.regs[i], AlreadyMarked: true}, nil
	case domain.RegistrationStatusCancelled:
		return domain.AttendanceResult{}, ErrRegistrationNotFound
	}

	m.regs[i].Status = domain.RegistrationStatusAttended
	m.regs[i].AttendedAt = &at
	if !e.HasAttendance(userID) {
		e.AttendanceLog = append(e.AttendanceLog, domain.AttendanceEntry{UserID: userID, MarkedAt: at, Verified: true})
		m.events[eventID] = e
	}
	return domain.AttendanceResult{Registration: m.regs[i]}, nil
}

func (m *memStore) FindActive(_ context.Context, eventID, userID string) (domain.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.activeIndex(eventID, userID); i >= 0 {
		return m.regs[i], nil
	}
	return domain.Registration{}, ErrRegistrationNotFound
}

func (m *memStore) FindLatest(_ context.Context, eventID, userID string) (domain.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.activeIndex(eventID, userID); i >= 0 {
		return m.regs[i], nil
	}
	for i := len(m.regs) - 1; i >= 0; i-- {
		if m.regs[i].EventID == eventID && m.regs[i].UserID == userID {
			return m.regs[i], nil
		}
	}
	return domain.Registration{}, ErrRegistrationNotFound
}

func (m *memStore) CountActive(_ context.Context, eventID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.activeIDs(eventID)), nil
}

func (m *memStore) ActiveUserIDs(_ context.Context, eventID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeIDs(eventID), nil
}

func (m *memStore) ListByEvent(_ context.Context, eventID string) ([]domain.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Registration
	for _, r := range m.regs {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

// corruptCache overwrites the cached participants behind the ledger's back.
func (m *memStore) corruptCache(eventID string, participants []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.events[eventID]
	e.RegisteredParticipants = participants
	e.RegistrationCount = len(participants)
	m.events[eventID] = e
}

func (m *memStore) event(id string) domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneEvent(m.events[id])
}

func (m *memStore) setParticipants(e *domain.Event, ids []string) {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	e.RegisteredParticipants = ids
	e.RegistrationCount = len(ids)
	e.Version++
	m.cacheWrites++
}

func (m *memStore) activeIndex(eventID, userID string) int {
	return slices.IndexFunc(m.regs, func(r domain.Registration) bool {
		return r.EventID == eventID && r.UserID == userID && r.Status.IsActive()
	})
}

func (m *memStore) activeIDs(eventID string) []string {
	ids := []string{}
	for _, r := range m.regs {
		if r.EventID == eventID && r.Status.IsActive() {
			ids = append(ids, r.UserID)
		}
	}
	slices.Sort(ids)
	return ids
}

func cloneEvent(e domain.Event) domain.Event {
	e.RegisteredParticipants = slices.Clone(e.RegisteredParticipants)
	e.AttendanceLog = slices.Clone(e.AttendanceLog)
	return e
}

type memMembers map[string]domain.MemberRole

func (m memMembers) FindMember(_ context.Context, communityID, userID string) (domain.Member, error) {
	return domain.Member{CommunityID: communityID, UserID: userID, Role: m[communityID+"/"+userID]}, nil
}
