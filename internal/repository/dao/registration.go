package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vietanh2810/community-events/internal/domain"
)

var (
	ErrRegistrationNotFound = domain.ErrRegistrationNotFound
	ErrCapacityExceeded     = domain.ErrCapacityExceeded
	ErrAlreadyAttended      = domain.ErrAlreadyAttended
)

const (
	StatusRegistered = string(domain.RegistrationStatusRegistered)
	StatusAttended   = string(domain.RegistrationStatusAttended)
	StatusCancelled  = string(domain.RegistrationStatusCancelled)

	activeRegistrationIndex = "uniq_active_registration"
)

// Registration is a ledger entry. At most one non-cancelled row may exist per
// (event_id, user_id); the partial unique index enforces it.
type Registration struct {
	ID            string    `gorm:"primaryKey;type:uuid"`
	EventID       string    `gorm:"type:uuid;not null;uniqueIndex:uniq_active_registration,where:status <> 'cancelled';index:idx_registrations_event_status,priority:1"`
	UserID        string    `gorm:"not null;uniqueIndex:uniq_active_registration"`
	Status        string    `gorm:"type:varchar(20);not null;default:'registered';index:idx_registrations_event_status,priority:2"`
	TicketPayload string    `gorm:"type:text;not null"`
	TicketImage   string    `gorm:"type:text"`
	RegisteredAt  time.Time `gorm:"not null"`
	AttendedAt    *time.Time
	CancelledAt   *time.Time
}

type RegistrationDAO struct {
	db *gorm.DB
}

func NewRegistrationDAO(db *gorm.DB) *RegistrationDAO {
	return &RegistrationDAO{
		db: db,
	}
}

// Register inserts candidate unless the user already holds an active entry,
// in which case that entry is returned. The event row stays locked from the
// capacity check until commit, so concurrent registrations for the same event
// are serialized and can never overshoot max_participants.
func (d *RegistrationDAO) Register(ctx context.Context, candidate Registration) (Registration, bool, error) {
	var (
		out     Registration
		created bool
	)
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := lockEvent(tx, candidate.EventID)
		if err != nil {
			return err
		}

		existing, err := findActive(tx, candidate.EventID, candidate.UserID)
		if err == nil {
			out = existing
			return nil
		}
		if !errors.Is(err, ErrRegistrationNotFound) {
			return err
		}

		if event.MaxParticipants != nil {
			active, err := countActive(tx, event.ID)
			if err != nil {
				return err
			}
			if active >= int64(*event.MaxParticipants) {
				return ErrCapacityExceeded
			}
		}

		candidate.Status = StatusRegistered
		if err := tx.Create(&candidate).Error; err != nil {
			return err
		}
		if err := refreshParticipants(tx, event.ID); err != nil {
			return err
		}

		out = candidate
		created = true
		return nil
	})
	if err != nil {
		if isActiveRegistrationConflict(err) {
			existing, findErr := d.FindActive(ctx, candidate.EventID, candidate.UserID)
			if findErr == nil {
				return existing, false, nil
			}
		}
		return Registration{}, false, err
	}
	return out, created, nil
}

// Cancel moves the user's active registration to cancelled and frees its slot.
func (d *RegistrationDAO) Cancel(ctx context.Context, eventID, userID string, at time.Time) (Registration, error) {
	var out Registration
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockEvent(tx, eventID); err != nil {
			return err
		}

		reg, err := findActive(tx, eventID, userID)
		if err != nil {
			return err
		}
		if reg.Status == StatusAttended {
			return ErrAlreadyAttended
		}

		reg.Status = StatusCancelled
		reg.CancelledAt = &at
		err = tx.Model(&Registration{}).Where("id = ?", reg.ID).
			Updates(map[string]interface{}{"status": reg.Status, "cancelled_at": at}).Error
		if err != nil {
			return err
		}
		if err := refreshParticipants(tx, eventID); err != nil {
			return err
		}

		out = reg
		return nil
	})
	if err != nil {
		return Registration{}, err
	}
	return out, nil
}

// MarkAttended flips a registered entry to attended and appends the user to
// the event's attendance log once. An entry that is already attended is
// returned untouched with alreadyMarked set.
func (d *RegistrationDAO) MarkAttended(ctx context.Context, registrationID, eventID, userID string, at time.Time) (Registration, bool, error) {
	var (
		out           Registration
		alreadyMarked bool
	)
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := lockEvent(tx, eventID)
		if err != nil {
			return err
		}

		var reg Registration
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&reg, "id = ?", registrationID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}
		if reg.EventID != eventID || reg.UserID != userID {
			return ErrRegistrationNotFound
		}

		switch reg.Status {
		case StatusAttended:
			out = reg
			alreadyMarked = true
			return nil
		case StatusCancelled:
			return ErrRegistrationNotFound
		}

		reg.Status = StatusAttended
		reg.AttendedAt = &at
		err = tx.Model(&Registration{}).Where("id = ?", reg.ID).
			Updates(map[string]interface{}{"status": reg.Status, "attended_at": at}).Error
		if err != nil {
			return err
		}

		if !event.AttendanceLog.Has(userID) {
			log := append(event.AttendanceLog, AttendanceEntry{UserID: userID, MarkedAt: at, Verified: true})
			if err := tx.Model(&Event{}).Where("id = ?", eventID).Update("attendance_log", log).Error; err != nil {
				return err
			}
		}

		out = reg
		return nil
	})
	if err != nil {
		return Registration{}, false, err
	}
	return out, alreadyMarked, nil
}

func (d *RegistrationDAO) FindActive(ctx context.Context, eventID, userID string) (Registration, error) {
	return findActive(d.db.WithContext(ctx), eventID, userID)
}

// FindLatest returns the active entry if any, otherwise the most recent one.
func (d *RegistrationDAO) FindLatest(ctx context.Context, eventID, userID string) (Registration, error) {
	var reg Registration
	err := d.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Order("CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END").
		Order("registered_at DESC").
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}
		return Registration{}, err
	}
	return reg, nil
}

func (d *RegistrationDAO) CountActive(ctx context.Context, eventID string) (int64, error) {
	return countActive(d.db.WithContext(ctx), eventID)
}

func (d *RegistrationDAO) ActiveUserIDs(ctx context.Context, eventID string) ([]string, error) {
	var ids []string
	err := d.db.WithContext(ctx).Model(&Registration{}).
		Where("event_id = ? AND status <> ?", eventID, StatusCancelled).
		Order("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (d *RegistrationDAO) ListByEvent(ctx context.Context, eventID string) ([]Registration, error) {
	var regs []Registration
	err := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("registered_at ASC").
		Find(&regs).Error
	if err != nil {
		return nil, err
	}
	return regs, nil
}

func findActive(tx *gorm.DB, eventID, userID string) (Registration, error) {
	var reg Registration
	err := tx.Where("event_id = ? AND user_id = ? AND status <> ?", eventID, userID, StatusCancelled).
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}
		return Registration{}, err
	}
	return reg, nil
}

func countActive(tx *gorm.DB, eventID string) (int64, error) {
	var n int64
	err := tx.Model(&Registration{}).
		Where("event_id = ? AND status <> ?", eventID, StatusCancelled).
		Count(&n).Error
	return n, err
}

// refreshParticipants rewrites the event's cached participant set from the
// ledger inside the caller's transaction.
func refreshParticipants(tx *gorm.DB, eventID string) error {
	var ids []string
	err := tx.Model(&Registration{}).
		Where("event_id = ? AND status <> ?", eventID, StatusCancelled).
		Pluck("user_id", &ids).Error
	if err != nil {
		return err
	}
	return tx.Model(&Event{}).Where("id = ?", eventID).Updates(participantColumns(ids)).Error
}

func isActiveRegistrationConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		pgErr.ConstraintName == activeRegistrationIndex
}
