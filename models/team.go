package models

import "time"

type Team struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	EventID   int       `json:"event_id"`
	CaptainID int       `json:"captain_id"`
	CreatedAt time.Time `json:"created_at"`

	CaptainName  *string      `json:"captain_name,omitempty"`
	CaptainEmail *string      `json:"captain_email,omitempty"`
	EventName    *string      `json:"event_name,omitempty"`
	Members      []TeamMember `json:"members,omitempty"`
}

// IsCaptain сообщает, является ли пользователь капитаном команды.
func (t *Team) IsCaptain(userID int) bool {
	return t.CaptainID == userID
}
