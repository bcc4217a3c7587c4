package types

import "strings"

// TranslationMarker is the literal delimiter separating the Arabic segment
// from its English pairing inside a stored text field.
const TranslationMarker = "[EN]"

// HasTranslationMarker reports whether text already carries an English segment.
func HasTranslationMarker(text string) bool {
	return strings.Contains(text, TranslationMarker)
}

// SplitSegments splits a stored text field into its Arabic (primary) and
// English (secondary) segments. Text without a marker is all primary.
func SplitSegments(text string) (primary, secondary string) {
	idx := strings.Index(text, TranslationMarker)
	if idx < 0 {
		return strings.TrimSpace(text), ""
	}
	primary = strings.TrimSpace(text[:idx])
	secondary = strings.TrimSpace(text[idx+len(TranslationMarker):])
	return primary, secondary
}

// JoinSegments builds the stored bilingual form, Arabic first. Either half
// may be empty; an empty secondary yields just the primary text.
func JoinSegments(primary, secondary string) string {
	primary = strings.TrimSpace(primary)
	secondary = strings.TrimSpace(secondary)
	if secondary == "" {
		return primary
	}
	if primary == "" {
		return TranslationMarker + " " + secondary
	}
	return primary + "\n\n" + TranslationMarker + " " + secondary
}
