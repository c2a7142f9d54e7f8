package policy

import (
	"strings"
	"testing"
)

func TestRedactForLog(t *testing.T) {
	input := "Écrivez-moi à camille@example.fr ou au 06 12 34 56 78, carte 4242 4242 4242 4242."
	out := RedactForLog(input, 0)
	for _, marker := range []string{"[email]", "[phone]", "[card]"} {
		if !strings.Contains(out, marker) {
			t.Fatalf("output missing marker %q: %q", marker, out)
		}
	}
	if strings.Contains(out, "camille@") || strings.Contains(out, "4242") {
		t.Fatalf("personal data left in %q", out)
	}
}

func TestRedactForLogTruncates(t *testing.T) {
	out := RedactForLog("éèàùç-abcdef", 5)
	if out != "éèàùç…" {
		t.Fatalf("RedactForLog() = %q", out)
	}
	if got := RedactForLog("court", 80); got != "court" {
		t.Fatalf("RedactForLog(short) = %q", got)
	}
}
