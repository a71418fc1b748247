package models

import "time"

// EventSession - пункт расписания события.
type EventSession struct {
	ID        int        `json:"id"`
	EventID   int        `json:"event_id"`
	Title     string     `json:"title"`
	Speaker   *string    `json:"speaker"`
	Location  *string    `json:"location"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	CreatedAt time.Time  `json:"created_at"`
}
