package config

import (
	"path/filepath"
	"testing"
)

func TestQuillPathFromEnv(t *testing.T) {
	t.Setenv("QUILL_PATH", "/tmp/quill-test")

	if got := QuillPath(); got != "/tmp/quill-test" {
		t.Errorf("expected env override, got %s", got)
	}
	if got := ConfigPath(); got != filepath.Join("/tmp/quill-test", "config.jsonc") {
		t.Errorf("unexpected config path: %s", got)
	}
	if got := DotenvPath(); got != filepath.Join("/tmp/quill-test", ".env") {
		t.Errorf("unexpected dotenv path: %s", got)
	}
}

func TestQuillPathDefault(t *testing.T) {
	t.Setenv("QUILL_PATH", "")

	got := QuillPath()
	if filepath.Base(got) != ".quill" {
		t.Errorf("expected ~/.quill default, got %s", got)
	}
}
