package services

import (
	"strings"
	"time"
)

// Форматы даты и времени, которые принимает API.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func parseDateTime(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, newValidationError("%s is required", field)
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, newValidationError("%s has invalid format, expected RFC3339 or YYYY-MM-DDTHH:MM", field)
}

// parseOptionalDateTime возвращает nil для отсутствующего или пустого значения.
func parseOptionalDateTime(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := parseDateTime(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func validateDateRange(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return ErrInvalidDateRange
	}
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
