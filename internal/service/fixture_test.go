package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/community-events/internal/domain"
	"github.com/vietanh2810/community-events/internal/metrics"
	"github.com/vietanh2810/community-events/internal/pkg/ticket"
)

const community = "7d1f3c0e-4b1a-4c53-9d0c-2f51b6a1e001"

var (
	fixedNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	organizer = domain.User{ID: "organizer", Role: domain.RoleUser}
	member    = domain.User{ID: "member", Role: domain.RoleUser}
	admin     = domain.User{ID: "root", Role: domain.RoleAdmin}
)

type fixture struct {
	store      *memStore
	members    memMembers
	issuer     *ticket.Issuer
	metrics    *metrics.Metrics
	reconciler *Reconciler
	events     *EventService
	regs       *RegistrationService
	attendance *AttendanceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	keys, err := ticket.NewKeyring(map[string][]byte{"k1": []byte(strings.Repeat("s", 32))}, "k1")
	require.NoError(t, err)

	f := &fixture{
		store: newMemStore(),
		members: memMembers{
			community + "/" + organizer.ID: domain.MemberRoleManager,
			community + "/" + member.ID:    domain.MemberRoleMember,
		},
		issuer:  ticket.NewIssuer(keys),
		metrics: metrics.NewNop(),
	}
	clock := func() time.Time { return fixedNow }

	f.reconciler = NewReconciler(f.store, f.store, f.metrics)
	f.events = NewEventService(f.store, f.members, f.reconciler, f.metrics, func() string { return "UTC" })
	f.events.now = clock
	f.regs = NewRegistrationService(f.store, f.store, f.members, f.issuer, f.metrics)
	f.regs.now = clock
	f.attendance = NewAttendanceService(f.store, f.store, f.members, f.issuer, f.metrics)
	f.attendance.now = clock
	return f
}

// seedEvent stores an event on 2026-07-01 from 18:00 to 21:00 UTC.
func (f *fixture) seedEvent(t *testing.T, maxParticipants *int) domain.Event {
	t.Helper()

	end := "21:00"
	created, err := f.events.CreateEvent(context.Background(), organizer, domain.Event{
		CommunityID:     community,
		Title:           "Neighbourhood clean-up",
		Date:            "2026-07-01",
		StartTime:       "18:00",
		EndTime:         &end,
		MaxParticipants: maxParticipants,
	})
	require.NoError(t, err)
	return created
}

func newUser() domain.User {
	return domain.User{ID: uuid.NewString(), Role: domain.RoleUser}
}

func ptr[T any](v T) *T { return &v }
