package secrets

import (
	"os"
	"path/filepath"
	"testing"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestSetEntryCreatesPrivateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := SetEntry(path, "ANTHROPIC_API_KEY", "abc"); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}
	if got := readFile(t, path); got != "ANTHROPIC_API_KEY=abc\n" {
		t.Fatalf("file = %q", got)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf(".env permissions = %o, want 600", perm)
	}
}

func TestSetEntryReplacesInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	before := "# provider credentials\nOPENAI_API_KEY=old\n\nGEMINI_API_KEY=keep\n"
	if err := os.WriteFile(path, []byte(before), 0o600); err != nil {
		t.Fatalf("seed .env: %v", err)
	}

	if err := SetEntry(path, "OPENAI_API_KEY", "new"); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}

	want := "# provider credentials\nOPENAI_API_KEY=new\n\nGEMINI_API_KEY=keep\n"
	if got := readFile(t, path); got != want {
		t.Fatalf("file = %q, want %q", got, want)
	}
}

func TestSetEntryAppendsNewKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FIRST=1\n"), 0o600); err != nil {
		t.Fatalf("seed .env: %v", err)
	}
	if err := SetEntry(path, "SECOND", "2"); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}
	if got := readFile(t, path); got != "FIRST=1\nSECOND=2\n" {
		t.Fatalf("file = %q", got)
	}
}

func TestSetEntryMatchesExportedAssignments(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("export TOKEN=old\n"), 0o600); err != nil {
		t.Fatalf("seed .env: %v", err)
	}
	if err := SetEntry(path, "TOKEN", "new"); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}
	if got := readFile(t, path); got != "TOKEN=new\n" {
		t.Fatalf("file = %q", got)
	}
}

func TestSetEntryQuotesAwkwardValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := SetEntry(path, "GREETING", "hello world"); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}
	if got := readFile(t, path); got != "GREETING=\"hello world\"\n" {
		t.Fatalf("file = %q", got)
	}
}

func TestSetEntryIgnoresKeyMentionedInComment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	before := "# set API_KEY below\nAPI_KEY=old\n"
	if err := os.WriteFile(path, []byte(before), 0o600); err != nil {
		t.Fatalf("seed .env: %v", err)
	}
	if err := SetEntry(path, "API_KEY", "new"); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}
	if got := readFile(t, path); got != "# set API_KEY below\nAPI_KEY=new\n" {
		t.Fatalf("file = %q", got)
	}
}
