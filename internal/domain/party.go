package domain

import "strings"

// Role separates the offering side (doctors publish slots) from the
// requesting side (patients reserve them).
type Role string

const (
	RoleOffering   Role = "doctor"
	RoleRequesting Role = "patient"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleOffering:
		return RoleOffering, true
	case RoleRequesting:
		return RoleRequesting, true
	default:
		return "", false
	}
}

type Party struct {
	ID   string
	Role Role
}
