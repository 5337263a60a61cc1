package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietanh2810/community-events/internal/domain"
	"github.com/vietanh2810/community-events/internal/repository/dao"
)

var (
	ErrMemberNotFound = dao.ErrMemberNotFound
)

type MemberDAO interface {
	Find(ctx context.Context, communityID, userID string) (dao.CommunityMember, error)
}

// MemberRepository is the community directory as seen from this service.
type MemberRepository struct {
	dao MemberDAO
}

func NewMemberRepository(dao MemberDAO) *MemberRepository {
	return &MemberRepository{
		dao: dao,
	}
}

// FindMember returns a non-member with an empty role instead of an error, so
// callers only have to look at the role.
func (r *MemberRepository) FindMember(ctx context.Context, communityID, userID string) (domain.Member, error) {
	found, err := r.dao.Find(ctx, communityID, userID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return domain.Member{CommunityID: communityID, UserID: userID}, nil
		}
		return domain.Member{}, fmt.Errorf("r.dao.Find -> %w", err)
	}

	return memberDAOToDomain(found), nil
}

func memberDAOToDomain(m dao.CommunityMember) domain.Member {
	return domain.Member{
		CommunityID: m.CommunityID,
		UserID:      m.UserID,
		Role:        domain.MemberRole(m.Role),
	}
}
