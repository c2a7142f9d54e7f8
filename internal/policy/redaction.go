package policy

import (
	"regexp"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-() .]{7,}[0-9]`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
)

// RedactForLog masks e-mail addresses, card and phone numbers in visitor text and
// caps its length so questions can be logged without keeping personal data.
func RedactForLog(input string, maxRunes int) string {
	out := emailPattern.ReplaceAllString(input, "[email]")
	// Cards first, or the phone pattern swallows them.
	out = cardPattern.ReplaceAllString(out, "[card]")
	out = phonePattern.ReplaceAllString(out, "[phone]")

	if maxRunes > 0 && utf8.RuneCountInString(out) > maxRunes {
		runes := []rune(out)
		out = string(runes[:maxRunes]) + "…"
	}
	return out
}
