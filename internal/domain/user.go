package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Role string

const (
	RoleMember     Role = "agremiado"
	RoleStudent    Role = "estudiante"
	RoleGuest      Role = "invitado"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "administrador"
	RoleSuperAdmin Role = "super_admin"
)

var knownRoles = map[Role]struct{}{
	RoleMember:     {},
	RoleStudent:    {},
	RoleGuest:      {},
	RoleInstructor: {},
	RoleAdmin:      {},
	RoleSuperAdmin: {},
}

// ParseRole maps a persisted role name onto Role.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownRoles[r]; !ok {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return r, nil
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// NeedsResponsibleMember is true for roles that book under a member's responsibility.
func (r Role) NeedsResponsibleMember() bool {
	return r == RoleStudent || r == RoleGuest
}

// DefaultAllowedRoles are the roles that may request reservations.
func DefaultAllowedRoles() []Role {
	return []Role{RoleMember, RoleStudent, RoleGuest, RoleAdmin, RoleSuperAdmin}
}

type UserStatus string

const (
	UserSolvent   UserStatus = "solvente"
	UserInsolvent UserStatus = "insolvente"
	UserInactive  UserStatus = "inactivo"
)

func ParseUserStatus(raw string) (UserStatus, error) {
	s := UserStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case UserSolvent, UserInsolvent, UserInactive:
		return s, nil
	}
	return "", fmt.Errorf("unknown user status %q", raw)
}

type User struct {
	ID               uuid.UUID
	Name             string
	Email            string
	Role             Role
	Status           UserStatus
	ResponsibleEmail string
}

func (u *User) IsSolvent() bool {
	return u.Status == UserSolvent
}
