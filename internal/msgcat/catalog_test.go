package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedDefaults(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, key := range []string{
		"feedback.headline.solved",
		"feedback.headline.wrong_kind",
		"feedback.headline.wrong_color",
		"feedback.headline.wrong_origin",
		"feedback.headline.wrong_destination",
		"feedback.headline.timeout",
		"feedback.destination.hit",
		"feedback.destination.miss",
		"help.body",
	} {
		if !c.Has(key) {
			t.Errorf("missing default key %s", key)
		}
	}

	out, err := c.Render("puzzle.reveal", map[string]any{"Color": "white", "Kind": "knight", "From": "g1", "To": "f3"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "white knight g1") || !strings.Contains(out, "f3") {
		t.Fatalf("unexpected render: %q", out)
	}
}

func TestRenderMissingData(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Render("puzzle.reveal", map[string]any{"Color": "white"}); err == nil {
		t.Fatal("expected missingkey error")
	}
	if _, err := c.Render("no.such.key", nil); err == nil {
		t.Fatal("expected not found error")
	}
	if got := c.RenderOr("no.such.key", nil, "fallback"); got != "fallback" {
		t.Fatalf("RenderOr = %q", got)
	}
	var nilCatalog *Catalog
	if got := nilCatalog.RenderOr("puzzle.exhausted", nil, "fb"); got != "fb" {
		t.Fatalf("nil catalog RenderOr = %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "puzzle:\n  exhausted: \"no more tries\"\n")
	writeFile(t, dir, "ignored.txt", "puzzle:\n  solved: \"x\"\n")

	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, _ := c.Render("puzzle.exhausted", nil); got != "no more tries" {
		t.Fatalf("override not applied: %q", got)
	}
	if got, _ := c.Render("feedback.headline.solved", nil); !strings.Contains(got, "Exactly") {
		t.Fatalf("default lost after override: %q", got)
	}
}

func TestOverrideDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "puzzle:\n  exhausted: \"one\"\n")
	writeFile(t, dir, "b.yml", "puzzle:\n  exhausted: \"two\"\n")
	if _, err := New(dir); err == nil || !strings.Contains(err.Error(), "duplicate override key") {
		t.Fatalf("err = %v", err)
	}
}

func TestNonStringLeafRejected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "puzzle:\n  exhausted: 3\n")
	if _, err := New(dir); err == nil {
		t.Fatal("expected error for numeric leaf")
	}
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
