package dao

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vietanh2810/community-events/internal/domain"
)

var (
	ErrEventNotFound = domain.ErrEventNotFound
)

type Event struct {
	ID          string `gorm:"primaryKey;type:uuid"`
	CommunityID string `gorm:"not null;index:idx_events_community_date,priority:1"`
	Title       string `gorm:"not null"`
	Description string
	Date        string  `gorm:"type:varchar(10);not null"`
	StartTime   string  `gorm:"type:varchar(5);not null"`
	EndTime     *string `gorm:"type:varchar(5)"`
	TimeZone    string  `gorm:"not null"`
	Location    string
	CreatedBy   string `gorm:"not null"`

	DateAt   time.Time `gorm:"not null;index:idx_events_community_date,priority:2"`
	StartsAt time.Time `gorm:"not null"`
	EndsAt   *time.Time

	MaxParticipants *int

	RegisteredParticipants StringSlice   `gorm:"type:jsonb;not null;default:'[]'"`
	RegistrationCount      int           `gorm:"not null;default:0"`
	AttendanceLog          AttendanceLog `gorm:"type:jsonb;not null;default:'[]'"`
	Version                int           `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	if err := d.db.WithContext(ctx).Create(&event).Error; err != nil {
		return Event{}, err
	}
	return event, nil
}

func (d *EventDAO) FindByID(ctx context.Context, id string) (Event, error) {
	var event Event
	if err := d.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}
		return Event{}, err
	}
	return event, nil
}

// ListOpen returns the community's events that have not completed at now.
// An event is still open while its date has not arrived, or while it has an
// end instant that has not passed.
func (d *EventDAO) ListOpen(ctx context.Context, communityID string, now time.Time, limit, offset int) ([]Event, int64, error) {
	open := func() *gorm.DB {
		return d.db.WithContext(ctx).Model(&Event{}).
			Where("community_id = ?", communityID).
			Where("(date_at > ? OR (ends_at IS NOT NULL AND ends_at >= ?))", now, now)
	}

	var total int64
	if err := open().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []Event
	err := open().Order("date_at ASC").Order("starts_at ASC").Order("id ASC").
		Limit(limit).Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (d *EventDAO) SoftDelete(ctx context.Context, id string) error {
	result := d.db.WithContext(ctx).Delete(&Event{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

// UpdateParticipantCache overwrites the cached participant set only if nobody
// else wrote the event since version was read. It reports whether it won.
func (d *EventDAO) UpdateParticipantCache(ctx context.Context, id string, version int, participants []string) (bool, error) {
	result := d.db.WithContext(ctx).Model(&Event{}).
		Where("id = ? AND version = ?", id, version).
		Updates(participantColumns(participants))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func lockEvent(tx *gorm.DB, id string) (Event, error) {
	var event Event
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}
		return Event{}, err
	}
	return event, nil
}

func participantColumns(participants []string) map[string]interface{} {
	sorted := append([]string(nil), participants...)
	sort.Strings(sorted)
	return map[string]interface{}{
		"registered_participants": StringSlice(sorted),
		"registration_count":      len(sorted),
		"version":                 gorm.Expr("version + 1"),
	}
}
