// Package prompt builds the instruction text sent to the generation backend.
package prompt

import (
	"fmt"
	"strings"

	"github.com/appforge-labs/appforge/internal/domain"
)

const (
	// fileDirective scaffolds generation when a visual artifact is attached.
	// It applies whether or not free text accompanies the file.
	fileDirective = "Analyze the attached visual input and infer the functionality it depicts. " +
		"Rebuild that functionality as a working interactive app. Do not reference external " +
		"images; recreate every visual element with CSS, inline SVG, or emoji."

	// demoDirective substitutes for an otherwise empty prompt. The backend
	// must never receive an empty instruction.
	demoDirective = "Build a small interactive demo app of your choice that shows off what a " +
		"single self-contained page can do."

	userRequestLabel = "User request (this takes priority over the instructions above):"
)

// Compose builds the final instruction string from the free-text prompt, the
// presence of an attached file, and the interface locale. File analysis is
// the default scaffold; explicit user text refines rather than replaces it.
func Compose(freeText string, hasFile bool, locale domain.Locale) string {
	var b strings.Builder

	text := strings.TrimSpace(freeText)
	switch {
	case hasFile:
		b.WriteString(fileDirective)
	case text == "":
		b.WriteString(demoDirective)
	}

	if text != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(userRequestLabel)
		b.WriteString("\n")
		b.WriteString(text)
	}

	b.WriteString("\n\n")
	b.WriteString(localeClause(locale))
	return b.String()
}

func localeClause(locale domain.Locale) string {
	direction := "left-to-right"
	if locale.IsRTL() {
		direction = "right-to-left"
	}
	return fmt.Sprintf("The interface locale is %q. Write all user-facing text in that language and lay the page out %s.",
		string(locale), direction)
}
