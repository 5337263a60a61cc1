package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrMemberExists   = errors.New("user is already a member of this community")
	ErrMemberNotFound = errors.New("member not found")
)

// CommunityMember is the read model of community membership that the
// community service owns. This service only reads it for authorization.
type CommunityMember struct {
	ID uint `gorm:"primaryKey"`

	CommunityID string `gorm:"not null;uniqueIndex:uni_community_members_member"`
	UserID      string `gorm:"not null;uniqueIndex:uni_community_members_member"`
	Role        string `gorm:"type:varchar(20);not null;default:'member'"` // "admin", "manager" or "member"

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type MemberDAO struct {
	db *gorm.DB
}

func NewMemberDAO(db *gorm.DB) *MemberDAO {
	return &MemberDAO{
		db: db,
	}
}

func (d *MemberDAO) Insert(ctx context.Context, member CommunityMember) (CommunityMember, error) {
	result := d.db.WithContext(ctx).Create(&member)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			err.ConstraintName == "uni_community_members_member" {
			return CommunityMember{}, ErrMemberExists
		}

		return CommunityMember{}, result.Error
	}

	return member, nil
}

func (d *MemberDAO) Find(ctx context.Context, communityID, userID string) (CommunityMember, error) {
	var member CommunityMember

	result := d.db.WithContext(ctx).First(&member, "community_id = ? AND user_id = ?", communityID, userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return CommunityMember{}, ErrMemberNotFound
		}

		return CommunityMember{}, result.Error
	}

	return member, nil
}
