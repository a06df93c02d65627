package domain

import "strings"

// Locale identifies the interface language of the requesting surface.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleArabic  Locale = "ar"
)

// ParseLocale normalizes a raw locale value, defaulting to English.
func ParseLocale(raw string) Locale {
	if strings.EqualFold(strings.TrimSpace(raw), string(LocaleArabic)) {
		return LocaleArabic
	}
	return LocaleEnglish
}

// IsRTL reports whether the locale uses right-to-left text direction.
func (l Locale) IsRTL() bool {
	return l == LocaleArabic
}

// DefaultName returns the locale-appropriate fallback creation name.
func DefaultName(locale Locale) string {
	if locale == LocaleArabic {
		return "إبداع بدون عنوان"
	}
	return "Untitled creation"
}
