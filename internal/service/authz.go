package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vietanh2810/community-events/internal/domain"
)

var (
	ErrUnauthenticated = domain.ErrUnauthenticated
	ErrUnauthorized    = domain.ErrUnauthorized
)

// MemberRepository is the community directory collaborator.
type MemberRepository interface {
	FindMember(ctx context.Context, communityID, userID string) (domain.Member, error)
}

// authorizeStaff lets platform admins and community managers/admins through.
func authorizeStaff(ctx context.Context, members MemberRepository, user domain.User, communityID string) error {
	if user.ID == "" {
		return ErrUnauthenticated
	}
	if user.IsAdmin() {
		return nil
	}

	member, err := members.FindMember(ctx, communityID, user.ID)
	if err != nil {
		return fmt.Errorf("members.FindMember -> %w", err)
	}
	if !member.IsStaff() {
		return ErrUnauthorized
	}
	return nil
}

// validID reports whether id can name a stored record. Anything else cannot
// exist, so callers answer NotFound without touching the store.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
