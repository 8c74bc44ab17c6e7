package auth

import "strings"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func NormalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(RoleAdmin):
		return RoleAdmin
	default:
		return RoleUser
	}
}

func IsAdmin(role string) bool {
	return NormalizeRole(role) == RoleAdmin
}

// CanModify reports whether an actor may change a resource owned by ownerID.
func CanModify(actorID, actorRole, ownerID string) bool {
	return actorID != "" && (actorID == ownerID || IsAdmin(actorRole))
}
