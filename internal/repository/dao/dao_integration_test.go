//go:build integration

package dao

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DAOSuite struct {
	suite.Suite

	pool     *dockertest.Pool
	resource *dockertest.Resource
	db       *gorm.DB

	events  *EventDAO
	regs    *RegistrationDAO
	members *MemberDAO
}

func TestDAOSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(DAOSuite))
}

func (s *DAOSuite) SetupSuite() {
	pool, err := dockertest.NewPool("")
	if err != nil {
		s.T().Skipf("docker unavailable: %v", err)
	}
	if err = pool.Client.Ping(); err != nil {
		s.T().Skipf("docker unavailable: %v", err)
	}
	s.pool = pool

	s.resource, err = pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=events",
			"POSTGRES_PASSWORD=events",
			"POSTGRES_DB=events",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	s.Require().NoError(err)
	s.Require().NoError(s.resource.Expire(180))

	dsn := fmt.Sprintf("host=localhost port=%s user=events password=events dbname=events sslmode=disable",
		s.resource.GetPort("5432/tcp"))
	pool.MaxWait = 60 * time.Second
	err = pool.Retry(func() error {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.Ping(); err != nil {
			return err
		}
		s.db = db
		return nil
	})
	s.Require().NoError(err)
	s.Require().NoError(InitTables(s.db))

	s.events = NewEventDAO(s.db)
	s.regs = NewRegistrationDAO(s.db)
	s.members = NewMemberDAO(s.db)
}

func (s *DAOSuite) TearDownSuite() {
	if s.pool != nil && s.resource != nil {
		s.NoError(s.pool.Purge(s.resource))
	}
}

func (s *DAOSuite) SetupTest() {
	s.Require().NoError(s.db.Exec("TRUNCATE events, registrations, community_members").Error)
}

func (s *DAOSuite) insertEvent(maxParticipants *int) Event {
	now := time.Now().UTC()
	event, err := s.events.Insert(context.Background(), Event{
		ID:              uuid.NewString(),
		CommunityID:     uuid.NewString(),
		Title:           "Clean-up",
		Date:            now.Add(48 * time.Hour).Format("2006-01-02"),
		StartTime:       "18:00",
		TimeZone:        "UTC",
		CreatedBy:       "organizer",
		DateAt:          now.Add(24 * time.Hour).Truncate(24 * time.Hour),
		StartsAt:        now.Add(30 * time.Hour),
		MaxParticipants: maxParticipants,
	})
	s.Require().NoError(err)
	return event
}

func candidate(eventID, userID string) Registration {
	return Registration{
		ID:            uuid.NewString(),
		EventID:       eventID,
		UserID:        userID,
		TicketPayload: "payload-" + userID,
		RegisteredAt:  time.Now().UTC(),
	}
}

func (s *DAOSuite) TestConcurrentRegisterRespectsCapacity() {
	ctx := context.Background()
	limit := 5
	event := s.insertEvent(&limit)

	const goroutines = 40
	var (
		wg       sync.WaitGroup
		created  atomic.Int32
		rejected atomic.Int32
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := s.regs.Register(ctx, candidate(event.ID, uuid.NewString()))
			switch {
			case err == nil && ok:
				created.Add(1)
			case errors.Is(err, ErrCapacityExceeded):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(limit), created.Load())
	s.Equal(int32(goroutines-limit), rejected.Load())

	n, err := s.regs.CountActive(ctx, event.ID)
	s.Require().NoError(err)
	s.Equal(int64(limit), n)

	stored, err := s.events.FindByID(ctx, event.ID)
	s.Require().NoError(err)
	s.Len(stored.RegisteredParticipants, limit)
	s.Equal(limit, stored.RegistrationCount)
}

func (s *DAOSuite) TestConcurrentRegisterSameUser() {
	ctx := context.Background()
	event := s.insertEvent(nil)

	const goroutines = 20
	var (
		wg      sync.WaitGroup
		created atomic.Int32
		ids     sync.Map
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg, ok, err := s.regs.Register(ctx, candidate(event.ID, "same-user"))
			if !s.NoError(err) {
				return
			}
			if ok {
				created.Add(1)
			}
			ids.Store(reg.ID, struct{}{})
		}()
	}
	wg.Wait()

	s.Equal(int32(1), created.Load())
	distinct := 0
	ids.Range(func(_, _ any) bool { distinct++; return true })
	s.Equal(1, distinct)
}

func (s *DAOSuite) TestCancelAndReRegister() {
	ctx := context.Background()
	limit := 1
	event := s.insertEvent(&limit)

	first, ok, err := s.regs.Register(ctx, candidate(event.ID, "a"))
	s.Require().NoError(err)
	s.True(ok)

	_, _, err = s.regs.Register(ctx, candidate(event.ID, "b"))
	s.ErrorIs(err, ErrCapacityExceeded)

	cancelled, err := s.regs.Cancel(ctx, event.ID, "a", time.Now().UTC())
	s.Require().NoError(err)
	s.Equal(StatusCancelled, cancelled.Status)

	latest, err := s.regs.FindLatest(ctx, event.ID, "a")
	s.Require().NoError(err)
	s.Equal(first.ID, latest.ID)
	s.Equal(StatusCancelled, latest.Status)

	_, ok, err = s.regs.Register(ctx, candidate(event.ID, "b"))
	s.Require().NoError(err)
	s.True(ok)

	ids, err := s.regs.ActiveUserIDs(ctx, event.ID)
	s.Require().NoError(err)
	s.Equal([]string{"b"}, ids)

	all, err := s.regs.ListByEvent(ctx, event.ID)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *DAOSuite) TestMarkAttended() {
	ctx := context.Background()
	event := s.insertEvent(nil)

	reg, _, err := s.regs.Register(ctx, candidate(event.ID, "a"))
	s.Require().NoError(err)

	at := time.Now().UTC().Truncate(time.Microsecond)
	marked, already, err := s.regs.MarkAttended(ctx, reg.ID, event.ID, "a", at)
	s.Require().NoError(err)
	s.False(already)
	s.Equal(StatusAttended, marked.Status)

	_, already, err = s.regs.MarkAttended(ctx, reg.ID, event.ID, "a", at.Add(time.Minute))
	s.Require().NoError(err)
	s.True(already)

	_, _, err = s.regs.MarkAttended(ctx, reg.ID, event.ID, "someone-else", at)
	s.ErrorIs(err, ErrRegistrationNotFound)

	stored, err := s.events.FindByID(ctx, event.ID)
	s.Require().NoError(err)
	s.Require().Len(stored.AttendanceLog, 1)
	s.Equal("a", stored.AttendanceLog[0].UserID)

	_, err = s.regs.Cancel(ctx, event.ID, "a", at)
	s.ErrorIs(err, ErrAlreadyAttended)
}

func (s *DAOSuite) TestUpdateParticipantCacheVersion() {
	ctx := context.Background()
	event := s.insertEvent(nil)

	ok, err := s.events.UpdateParticipantCache(ctx, event.ID, event.Version, []string{"b", "a"})
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.events.UpdateParticipantCache(ctx, event.ID, event.Version, []string{"c"})
	s.Require().NoError(err)
	s.False(ok)

	stored, err := s.events.FindByID(ctx, event.ID)
	s.Require().NoError(err)
	s.Equal(StringSlice{"a", "b"}, stored.RegisteredParticipants)
	s.Equal(event.Version+1, stored.Version)
}

func (s *DAOSuite) TestListOpenAndSoftDelete() {
	ctx := context.Background()
	now := time.Now().UTC()
	community := uuid.NewString()

	mk := func(title string, dateAt time.Time, endsAt *time.Time) Event {
		e, err := s.events.Insert(ctx, Event{
			ID: uuid.NewString(), CommunityID: community, Title: title,
			Date: dateAt.Format("2006-01-02"), StartTime: "00:00", TimeZone: "UTC", CreatedBy: "o",
			DateAt: dateAt, StartsAt: dateAt, EndsAt: endsAt,
		})
		s.Require().NoError(err)
		return e
	}
	past := now.Add(-48 * time.Hour)
	later := now.Add(time.Hour)
	mk("past", past, &past)
	ongoing := mk("ongoing", now.Add(-time.Hour), &later)
	future := mk("future", now.Add(72*time.Hour), nil)
	mk("open ended today", now.Add(-time.Hour), nil)

	events, total, err := s.events.ListOpen(ctx, community, now, 10, 0)
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(events, 2)
	s.Equal(ongoing.ID, events[0].ID)
	s.Equal(future.ID, events[1].ID)

	s.Require().NoError(s.events.SoftDelete(ctx, future.ID))
	s.ErrorIs(s.events.SoftDelete(ctx, future.ID), ErrEventNotFound)
	_, err = s.events.FindByID(ctx, future.ID)
	s.ErrorIs(err, ErrEventNotFound)

	_, _, err = s.regs.Register(ctx, candidate(future.ID, "a"))
	s.ErrorIs(err, ErrEventNotFound)
}

func (s *DAOSuite) TestMembers() {
	ctx := context.Background()
	community := uuid.NewString()

	_, err := s.members.Insert(ctx, CommunityMember{CommunityID: community, UserID: "u", Role: "manager"})
	s.Require().NoError(err)

	_, err = s.members.Insert(ctx, CommunityMember{CommunityID: community, UserID: "u", Role: "admin"})
	s.ErrorIs(err, ErrMemberExists)

	found, err := s.members.Find(ctx, community, "u")
	s.Require().NoError(err)
	s.Equal("manager", found.Role)

	_, err = s.members.Find(ctx, community, "stranger")
	s.ErrorIs(err, ErrMemberNotFound)
}
