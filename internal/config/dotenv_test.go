package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeDotenv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDotenv(t *testing.T) {
	path := writeDotenv(t, `
# comment
QUILL_TEST_A=alpha
QUILL_TEST_B="quoted value"
QUILL_TEST_C='single'
not a pair
`)
	t.Setenv("QUILL_TEST_A", "")
	os.Unsetenv("QUILL_TEST_A")
	t.Setenv("QUILL_TEST_B", "")
	os.Unsetenv("QUILL_TEST_B")
	t.Setenv("QUILL_TEST_C", "")
	os.Unsetenv("QUILL_TEST_C")

	if err := LoadDotenv(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("QUILL_TEST_A"); got != "alpha" {
		t.Errorf("A: got %q", got)
	}
	if got := os.Getenv("QUILL_TEST_B"); got != "quoted value" {
		t.Errorf("B: got %q", got)
	}
	if got := os.Getenv("QUILL_TEST_C"); got != "single" {
		t.Errorf("C: got %q", got)
	}
}

func TestLoadDotenvNeverOverrides(t *testing.T) {
	path := writeDotenv(t, "QUILL_TEST_KEEP=file\n")
	t.Setenv("QUILL_TEST_KEEP", "env")

	if err := LoadDotenv(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("QUILL_TEST_KEEP"); got != "env" {
		t.Errorf("existing var overridden: %q", got)
	}
}

func TestReloadDotenvOverrides(t *testing.T) {
	path := writeDotenv(t, "QUILL_TEST_ROTATE=new\n")
	t.Setenv("QUILL_TEST_ROTATE", "old")

	if err := ReloadDotenv(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("QUILL_TEST_ROTATE"); got != "new" {
		t.Errorf("expected override, got %q", got)
	}
}

func TestLoadDotenvMissingFile(t *testing.T) {
	if err := LoadDotenv(filepath.Join(t.TempDir(), "absent")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
}
