package repository

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateKeepsRunesWhole(t *testing.T) {
	reason := "x" + strings.Repeat("é", 300)
	got := truncate(reason, 500)
	if !utf8.ValidString(got) {
		t.Fatalf("expected valid utf-8, got %q", got[len(got)-4:])
	}
	if len(got) != 499 {
		t.Fatalf("expected 499 bytes, got %d", len(got))
	}
	if got := truncate("  smtp: 421  ", 500); got != "smtp: 421" {
		t.Fatalf("expected trimmed reason, got %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
}
