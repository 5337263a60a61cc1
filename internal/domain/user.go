package domain

// Role is the platform-wide role carried by the identity token.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// User is the verified caller identity supplied by the identity provider.
type User struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type MemberRole string

const (
	MemberRoleAdmin   MemberRole = "admin"
	MemberRoleManager MemberRole = "manager"
	MemberRoleMember  MemberRole = "member"
)

// Member is a user's standing inside one community.
type Member struct {
	CommunityID string     `json:"community_id"`
	UserID      string     `json:"user_id"`
	Role        MemberRole `json:"role"`
}

// IsStaff reports whether the member may manage events and scan tickets.
func (m Member) IsStaff() bool {
	return m.Role == MemberRoleAdmin || m.Role == MemberRoleManager
}
