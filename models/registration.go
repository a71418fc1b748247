package models

import "time"

const RegistrationStatusRegistered = "registered"

type Registration struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	EventID   int       `json:"event_id"`
	TeamID    *int      `json:"team_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	EventName     string     `json:"event_name,omitempty"`
	StartDatetime *time.Time `json:"start_datetime,omitempty"`
	Venue         *string    `json:"venue,omitempty"`
}
