// Package locale provides the two-language (Arabic/English) text model used
// across the catalog and order surfaces, plus Accept-Language resolution.
package locale

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale identifies one of the two supported presentation languages.
type Locale string

const (
	// Arabic is the default storefront language.
	Arabic Locale = "ar"
	// English is the secondary storefront language.
	English Locale = "en"
)

var matcher = language.NewMatcher([]language.Tag{
	language.Arabic,
	language.English,
})

// Bilingual holds the Arabic and English renderings of a display string.
type Bilingual struct {
	AR string `json:"ar" firestore:"ar"`
	EN string `json:"en" firestore:"en"`
}

// In returns the rendering for the requested locale, falling back to the
// other language when the requested one is empty.
func (b Bilingual) In(loc Locale) string {
	switch loc {
	case English:
		if strings.TrimSpace(b.EN) != "" {
			return b.EN
		}
		return b.AR
	default:
		if strings.TrimSpace(b.AR) != "" {
			return b.AR
		}
		return b.EN
	}
}

// IsZero reports whether both renderings are empty.
func (b Bilingual) IsZero() bool {
	return strings.TrimSpace(b.AR) == "" && strings.TrimSpace(b.EN) == ""
}

// Parse normalises an explicit locale parameter, returning false when the
// value names an unsupported language.
func Parse(value string) (Locale, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ar", "ara", "arabic":
		return Arabic, true
	case "en", "eng", "english":
		return English, true
	default:
		return Arabic, false
	}
}

// Match resolves an Accept-Language header value to a supported locale.
// Unknown or empty input resolves to Arabic, the storefront default.
func Match(acceptLanguage string) Locale {
	trimmed := strings.TrimSpace(acceptLanguage)
	if trimmed == "" {
		return Arabic
	}
	tags, _, err := language.ParseAcceptLanguage(trimmed)
	if err != nil || len(tags) == 0 {
		return Arabic
	}
	// The matcher always yields a best-effort index, even for languages we do
	// not carry. Only a real match may move us off the Arabic default.
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Arabic
	}
	if index == 1 {
		return English
	}
	return Arabic
}
