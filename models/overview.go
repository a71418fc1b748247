package models

import "time"

// ParticipantOverview - строка представления participants_overview.
type ParticipantOverview struct {
	ID                 int       `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              *string   `json:"phone"`
	CreatedAt          time.Time `json:"created_at"`
	RegistrationsCount int       `json:"registrations_count"`
	TeamsCount         int       `json:"teams_count"`
}

// TeamMemberOverview - строка представления team_members_overview.
type TeamMemberOverview struct {
	MemberID  int        `json:"member_id"`
	TeamID    int        `json:"team_id"`
	TeamName  string     `json:"team_name"`
	EventID   int        `json:"event_id"`
	EventName string     `json:"event_name"`
	UserID    int        `json:"user_id"`
	UserName  string     `json:"user_name"`
	UserEmail string     `json:"user_email"`
	Role      MemberRole `json:"role"`
	JoinedAt  time.Time  `json:"joined_at"`
}

type AdminStats struct {
	Users         int `json:"users"`
	Events        int `json:"events"`
	Teams         int `json:"teams"`
	TeamMembers   int `json:"team_members"`
	Registrations int `json:"registrations"`
	Sessions      int `json:"sessions"`
}
