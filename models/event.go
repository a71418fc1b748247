package models

import "time"

// RegistrationStatus - флаг, открывающий или закрывающий запись на событие.
type RegistrationStatus string

const (
	RegistrationOpen   RegistrationStatus = "open"
	RegistrationClosed RegistrationStatus = "closed"
)

// EventSort задает порядок выдачи списка событий.
type EventSort string

const (
	EventSortDefault      EventSort = ""
	EventSortLatest       EventSort = "latest"
	EventSortOldest       EventSort = "oldest"
	EventSortAlphabetical EventSort = "alphabetical"
	EventSortOpenFirst    EventSort = "open-first"
	EventSortClosedFirst  EventSort = "closed-first"
)

type Event struct {
	ID                 int                `json:"id"`
	Title              string             `json:"title"`
	Description        *string            `json:"description"`
	Venue              *string            `json:"venue"`
	StartDatetime      time.Time          `json:"start_datetime"`
	EndDatetime        *time.Time         `json:"end_datetime"`
	Capacity           *int               `json:"capacity"`
	RegistrationStatus RegistrationStatus `json:"registration_status"`
	Rules              string             `json:"rules"`
	CreatedAt          time.Time          `json:"created_at"`

	PosterKey *string `json:"-"`
	PosterURL *string `json:"poster_url,omitempty"`
}

// HasCapacityLimit сообщает, ограничено ли число регистраций.
// Capacity 0 или NULL означает отсутствие лимита.
func (e *Event) HasCapacityLimit() bool {
	return e.Capacity != nil && *e.Capacity > 0
}

// EventReferences - количество записей, ссылающихся на событие.
type EventReferences struct {
	Teams         int `json:"teams"`
	Registrations int `json:"registrations"`
}

func (r EventReferences) Any() bool {
	return r.Teams > 0 || r.Registrations > 0
}
