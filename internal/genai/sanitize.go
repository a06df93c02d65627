package genai

import "strings"

// StripFences removes leading and trailing markdown code fences from a model
// response. The system instruction forbids fences, but the model is an
// untrusted collaborator whose output is normalized rather than trusted.
func StripFences(s string) string {
	out := strings.TrimSpace(s)
	if !strings.HasPrefix(out, "```") {
		return out
	}

	out = strings.TrimPrefix(out, "```")
	// Drop a language tag such as "html" on the opening fence line.
	if idx := strings.IndexByte(out, '\n'); idx >= 0 {
		first := strings.TrimSpace(out[:idx])
		if first == "" || isFenceTag(first) {
			out = out[idx+1:]
		}
	}

	out = strings.TrimSpace(out)
	out = strings.TrimSuffix(out, "```")
	return strings.TrimSpace(out)
}

func isFenceTag(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '+':
		default:
			return false
		}
	}
	return true
}
