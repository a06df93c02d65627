package domain

import (
	"strings"
	"testing"
)

func TestNameFromPrompt(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		locale Locale
		want   string
	}{
		{
			name:   "short prompt kept as-is",
			prompt: "a chess clock",
			locale: LocaleEnglish,
			want:   "a chess clock",
		},
		{
			name:   "word count bounded with ellipsis",
			prompt: "a tool that tracks my daily water intake",
			locale: LocaleEnglish,
			want:   "a tool that tracks my…",
		},
		{
			name:   "surrounding whitespace ignored",
			prompt: "  find hidden wifi  ",
			locale: LocaleEnglish,
			want:   "find hidden wifi",
		},
		{
			name:   "empty prompt falls back to english default",
			prompt: "   ",
			locale: LocaleEnglish,
			want:   "Untitled creation",
		},
		{
			name:   "empty prompt falls back to arabic default",
			prompt: "",
			locale: LocaleArabic,
			want:   "إبداع بدون عنوان",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NameFromPrompt(tt.prompt, tt.locale)
			if got != tt.want {
				t.Errorf("NameFromPrompt(%q) = %q, want %q", tt.prompt, got, tt.want)
			}
		})
	}
}

func TestNameFromPromptRuneBound(t *testing.T) {
	prompt := "extraordinarily overcomplicated kaleidoscope configuration"
	got := NameFromPrompt(prompt, LocaleEnglish)

	if !strings.HasSuffix(got, "…") {
		t.Errorf("Expected ellipsis suffix, got %q", got)
	}
	if len([]rune(got)) > nameMaxRunes+1 {
		t.Errorf("Name %q exceeds rune bound", got)
	}
}

func TestNameFromFile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"extension stripped", "wireframe.png", "wireframe"},
		{"path components stripped", "uploads/sketch.pdf", "sketch"},
		{"no extension", "whiteboard", "whiteboard"},
		{"empty falls back to default", "", "Untitled creation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NameFromFile(tt.filename, LocaleEnglish)
			if got != tt.want {
				t.Errorf("NameFromFile(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestParseLocale(t *testing.T) {
	tests := []struct {
		raw  string
		want Locale
	}{
		{"ar", LocaleArabic},
		{" AR ", LocaleArabic},
		{"en", LocaleEnglish},
		{"fr", LocaleEnglish},
		{"", LocaleEnglish},
	}

	for _, tt := range tests {
		if got := ParseLocale(tt.raw); got != tt.want {
			t.Errorf("ParseLocale(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if id == "" {
			t.Fatal("NewID returned empty string")
		}
		if seen[id] {
			t.Fatalf("NewID returned duplicate %q", id)
		}
		seen[id] = true
	}
}
