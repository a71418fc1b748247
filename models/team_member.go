package models

import (
	"errors"
	"time"
)

type MemberRole string

const (
	MemberRoleLeader MemberRole = "Leader"
	MemberRoleMember MemberRole = "Member"
)

// MemberStatus - состояние строки team_members. Одна строка описывает и
// приглашение (pending), и членство (accepted), и отказ (rejected).
type MemberStatus string

const (
	MemberStatusPending  MemberStatus = "pending"
	MemberStatusAccepted MemberStatus = "accepted"
	MemberStatusRejected MemberStatus = "rejected"
)

var (
	ErrAlreadyMember       = errors.New("user is already a team member")
	ErrAlreadyInvited      = errors.New("invitation already sent to this user")
	ErrInvitationProcessed = errors.New("invitation already processed")
	ErrUnknownMemberStatus = errors.New("unknown team member status")
)

func (s MemberStatus) Valid() bool {
	switch s {
	case MemberStatusPending, MemberStatusAccepted, MemberStatusRejected:
		return true
	}
	return false
}

// Accept: pending -> accepted.
func (s MemberStatus) Accept() (MemberStatus, error) {
	if s != MemberStatusPending {
		return s, ErrInvitationProcessed
	}
	return MemberStatusAccepted, nil
}

// Reject: pending -> rejected.
func (s MemberStatus) Reject() (MemberStatus, error) {
	if s != MemberStatusPending {
		return s, ErrInvitationProcessed
	}
	return MemberStatusRejected, nil
}

// Reinvite: rejected -> pending. Принятое членство и висящее приглашение
// повторно пригласить нельзя.
func (s MemberStatus) Reinvite() (MemberStatus, error) {
	switch s {
	case MemberStatusRejected:
		return MemberStatusPending, nil
	case MemberStatusAccepted:
		return s, ErrAlreadyMember
	case MemberStatusPending:
		return s, ErrAlreadyInvited
	default:
		return s, ErrUnknownMemberStatus
	}
}

type TeamMember struct {
	ID        int          `json:"id"`
	TeamID    int          `json:"team_id"`
	UserID    int          `json:"user_id"`
	EventID   int          `json:"event_id"`
	Role      MemberRole   `json:"role"`
	Status    MemberStatus `json:"status"`
	InvitedBy *int         `json:"invited_by"`
	JoinedAt  time.Time    `json:"joined_at"`

	Name          string  `json:"name,omitempty"`
	Email         string  `json:"email,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	InvitedByName *string `json:"invited_by_name,omitempty"`
	TeamName      string  `json:"team_name,omitempty"`
	EventName     string  `json:"event_name,omitempty"`
}

func (m *TeamMember) IsLeader() bool {
	return m.Role == MemberRoleLeader
}

// MyTeam - принятое членство пользователя с данными команды и события.
type MyTeam struct {
	ID        int          `json:"id"`
	TeamID    int          `json:"team_id"`
	Status    MemberStatus `json:"status"`
	TeamName  string       `json:"team_name"`
	EventID   int          `json:"event_id"`
	EventName string       `json:"event_name"`
	EventDate time.Time    `json:"event_date"`
	Location  *string      `json:"location"`
	CaptainID int          `json:"captain_id"`
}
