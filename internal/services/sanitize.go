package services

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// freeTextPolicy strips all markup from user-supplied free text before it is
// stored and later rendered in the admin dashboard.
var freeTextPolicy = bluemonday.StrictPolicy()

func sanitizeFreeText(value string, limit int) string {
	cleaned := strings.TrimSpace(freeTextPolicy.Sanitize(value))
	if limit > 0 && len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}
	return cleaned
}
