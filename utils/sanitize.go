package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richTextPolicy  = bluemonday.UGCPolicy()
	plainTextPolicy = bluemonday.StrictPolicy()
)

// SanitizeRichText оставляет безопасное подмножество HTML (описания, правила).
func SanitizeRichText(s string) string {
	return strings.TrimSpace(richTextPolicy.Sanitize(s))
}

// SanitizePlainText удаляет любую разметку.
func SanitizePlainText(s string) string {
	return strings.TrimSpace(plainTextPolicy.Sanitize(s))
}

func SanitizeOptional(s *string, rich bool) *string {
	if s == nil {
		return nil
	}
	var clean string
	if rich {
		clean = SanitizeRichText(*s)
	} else {
		clean = SanitizePlainText(*s)
	}
	if clean == "" {
		return nil
	}
	return &clean
}
