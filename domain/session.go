// Package domain contains core concepts of the chat system.
// This file defines Session identities and roles.
// No runtime, network, or UI logic should be added here.
package domain

// Role is the authority level attached to a session at join time.
// The value is supplied by the external identity provider and trusted as given.
type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ParseRole maps an arbitrary wire value to a known role.
// Unknown values degrade to RoleMember rather than failing the join.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleModerator:
		return RoleModerator
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleMember
	}
}

// CanModerate reports whether the role may mute, kick and delete
// other users' messages.
func (r Role) CanModerate() bool {
	return r == RoleAdmin || r == RoleModerator
}

// Session is one live connection. There is at most one Session per
// username at any time; a second join for the same username evicts
// the previous connection (last-join-wins).
type Session struct {
	ConnectionID string
	Username     string
	Role         Role
}
