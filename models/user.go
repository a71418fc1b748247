package models

import "time"

// UserRole представляет роль пользователя, соответствующую значению в БД.
type UserRole string

const (
	RoleParticipant UserRole = "participant"
	RoleAdmin       UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == RoleParticipant || r == RoleAdmin
}

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Phone        *string   `json:"phone"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserDeletionStats описывает, что было удалено вместе с пользователем.
type UserDeletionStats struct {
	TeamMemberships  int64 `json:"teamMemberships"`
	Registrations    int64 `json:"registrations"`
	EmptyTeams       int64 `json:"emptyTeams"`
	PromotedCaptains int64 `json:"promotedCaptains"`
}
