package util

import (
	"strings"
	"testing"
	"time"
)

func TestFold(t *testing.T) {
	out := Fold("body", "♜ Recent puzzles")
	if !strings.HasPrefix(out, "♜ Recent puzzles") || !strings.HasSuffix(out, "\nbody") {
		t.Fatalf("unexpected layout: %q", out)
	}
	if n := strings.Count(out, ZeroWidthSpace); n != SeeMorePadding {
		t.Fatalf("padding = %d", n)
	}
	if Fold("  ", "x") != "  " {
		t.Fatal("blank text must pass through")
	}
}

func TestFoldUnderHeader(t *testing.T) {
	out := FoldUnderHeader("♞ Help\n• a\n• b", "♞ Help", "fallback")
	if !strings.HasPrefix(out, "♞ Help"+ZeroWidthSpace) {
		t.Fatalf("instruction missing: %q", out)
	}
	if strings.Count(out, "♞ Help") != 1 {
		t.Fatalf("header duplicated: %q", out)
	}
	if !strings.HasSuffix(out, "\n• a\n• b") {
		t.Fatalf("body lost: %q", out)
	}
}

func TestFoldUnderHeaderFallback(t *testing.T) {
	out := FoldUnderHeader("• a", "", "History")
	if !strings.HasPrefix(out, "History") || !strings.HasSuffix(out, "\n• a") {
		t.Fatalf("unexpected layout: %q", out)
	}
}

func TestCutHeader(t *testing.T) {
	cases := map[string]string{
		"H\r\n\r\nbody": "body",
		"H\n\nbody":     "body",
		"H\nbody":       "body",
		"Hbody":         "body",
		"other":         "other",
	}
	for in, want := range cases {
		if got := CutHeader(in, "H"); got != want {
			t.Errorf("CutHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatKST(t *testing.T) {
	ts := time.Date(2025, 1, 31, 20, 30, 0, 0, time.UTC)
	if got := FormatKST(ts, "2006-01-02 15:04"); got != "2025-02-01 05:30" {
		t.Fatalf("FormatKST = %q", got)
	}
}
