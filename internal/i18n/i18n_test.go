package i18n

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEmbedded(t *testing.T) {
	catalog, err := Load("en")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if catalog.Locale() != "en" {
		t.Errorf("unexpected locale %q", catalog.Locale())
	}
	if got := catalog.T("cancel.nothing", nil); strings.Contains(got, "cancel.nothing") {
		t.Errorf("expected resolved message, got %q", got)
	}
}

func TestLoadUnknownLocale(t *testing.T) {
	if _, err := Load("xx"); err == nil {
		t.Error("expected error for unknown locale")
	}
}

func TestT_Placeholders(t *testing.T) {
	catalog, err := Load("en")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	got := catalog.T("start.welcome", map[string]string{"name": "Ada"})
	if !strings.Contains(got, "Ada") {
		t.Errorf("expected placeholder substitution, got %q", got)
	}
}

func TestT_UnknownKeyFallsBack(t *testing.T) {
	catalog, err := Load("en")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := catalog.T("no.such.key", nil); got != "no.such.key" {
		t.Errorf("expected key fallback, got %q", got)
	}
	// Second lookup hits the warned set; still resolves to the key.
	if got := catalog.T("no.such.key", nil); got != "no.such.key" {
		t.Errorf("expected key fallback on repeat, got %q", got)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	content := "greeting:\n  hello: \"Hallo {name}\"\n"
	if err := os.WriteFile(filepath.Join(dir, "de.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	catalog, err := LoadDir(dir, "de")
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if got := catalog.T("greeting.hello", map[string]string{"name": "Ada"}); got != "Hallo Ada" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestLocales(t *testing.T) {
	locales := Locales()
	found := false
	for _, l := range locales {
		if l == "en" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected embedded en locale, got %v", locales)
	}
}
