package prompt

import (
	"strings"
	"testing"

	"github.com/appforge-labs/appforge/internal/domain"
)

func TestComposeFileWithText(t *testing.T) {
	got := Compose("find hidden wifi", true, domain.LocaleEnglish)

	if !strings.Contains(got, fileDirective) {
		t.Error("Expected file directive in composed prompt")
	}
	if !strings.Contains(got, userRequestLabel) {
		t.Error("Expected user request label in composed prompt")
	}
	if !strings.Contains(got, "find hidden wifi") {
		t.Error("Expected user text in composed prompt")
	}
	if strings.Index(got, fileDirective) > strings.Index(got, "find hidden wifi") {
		t.Error("File directive must precede the user text")
	}
}

func TestComposeFileWithoutText(t *testing.T) {
	got := Compose("", true, domain.LocaleEnglish)

	if !strings.Contains(got, fileDirective) {
		t.Error("Expected file directive in composed prompt")
	}
	if strings.Contains(got, userRequestLabel) {
		t.Error("Unexpected user request label without user text")
	}
	if strings.Contains(got, demoDirective) {
		t.Error("Demo directive must not appear when a file is attached")
	}
}

func TestComposeTextOnly(t *testing.T) {
	got := Compose("a chess clock", false, domain.LocaleEnglish)

	if strings.Contains(got, fileDirective) {
		t.Error("Unexpected file directive without a file")
	}
	if strings.Contains(got, demoDirective) {
		t.Error("Unexpected demo directive when user text is present")
	}
	if !strings.Contains(got, "a chess clock") {
		t.Error("Expected user text in composed prompt")
	}
}

func TestComposeEmptyNeverEmpty(t *testing.T) {
	got := Compose("   ", false, domain.LocaleEnglish)

	if strings.TrimSpace(got) == "" {
		t.Fatal("Composed prompt must never be empty")
	}
	if !strings.Contains(got, demoDirective) {
		t.Error("Expected demo directive for an empty submit")
	}
}

func TestComposeLocaleClause(t *testing.T) {
	tests := []struct {
		name      string
		locale    domain.Locale
		direction string
	}{
		{"english is left-to-right", domain.LocaleEnglish, "left-to-right"},
		{"arabic is right-to-left", domain.LocaleArabic, "right-to-left"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compose("anything", false, tt.locale)
			if !strings.Contains(got, `"`+string(tt.locale)+`"`) {
				t.Errorf("Expected locale %q named in prompt", tt.locale)
			}
			if !strings.Contains(got, tt.direction) {
				t.Errorf("Expected layout direction %q in prompt", tt.direction)
			}
		})
	}
}
