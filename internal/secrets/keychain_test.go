package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenKeychainCreatesKeyOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".age-key")

	first, err := OpenKeychain(path)
	if err != nil {
		t.Fatalf("OpenKeychain: %v", err)
	}
	second, err := OpenKeychain(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if first.PublicKey() != second.PublicKey() {
		t.Fatalf("reopen minted a new key: %s vs %s", first.PublicKey(), second.PublicKey())
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat key file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("key file permissions = %o, want 600", perm)
	}
}

func TestLoadKeychainRequiresExistingKey(t *testing.T) {
	if _, err := LoadKeychain(filepath.Join(t.TempDir(), ".age-key")); err == nil {
		t.Fatal("expected error for missing key file")
	}
}

func TestEncryptRoundtrip(t *testing.T) {
	kc, err := OpenKeychain(filepath.Join(t.TempDir(), ".age-key"))
	if err != nil {
		t.Fatalf("OpenKeychain: %v", err)
	}

	const apiKey = "sk-quill-0123456789"
	blob, err := kc.Encrypt(apiKey)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !IsEncrypted(blob) {
		t.Fatalf("blob %q not recognized as encrypted", blob)
	}
	if strings.Contains(blob, apiKey) {
		t.Fatal("plaintext leaked into encrypted blob")
	}
	if strings.ContainsAny(blob, "\n\r") {
		t.Fatalf("blob spans multiple lines: %q", blob)
	}

	plain, err := kc.Decrypt(blob)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plain != apiKey {
		t.Fatalf("roundtrip = %q, want %q", plain, apiKey)
	}
}

func TestDecryptRejectsPlainValues(t *testing.T) {
	kc, err := OpenKeychain(filepath.Join(t.TempDir(), ".age-key"))
	if err != nil {
		t.Fatalf("OpenKeychain: %v", err)
	}
	if _, err := kc.Decrypt("not-a-blob"); err == nil {
		t.Fatal("expected error for plain value")
	}
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	dir := t.TempDir()
	alice, err := OpenKeychain(filepath.Join(dir, "alice"))
	if err != nil {
		t.Fatalf("OpenKeychain alice: %v", err)
	}
	mallory, err := OpenKeychain(filepath.Join(dir, "mallory"))
	if err != nil {
		t.Fatalf("OpenKeychain mallory: %v", err)
	}

	blob, err := alice.Encrypt("payload")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := mallory.Decrypt(blob); err == nil {
		t.Fatal("decrypt with a different key should fail")
	}
}

func TestKeyPathHonorsQuillPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QUILL_PATH", dir)
	if got, want := KeyPath(), filepath.Join(dir, ".age-key"); got != want {
		t.Fatalf("KeyPath() = %q, want %q", got, want)
	}
}

// The auth-set flow: encrypt a credential, persist it to .env, then replay
// what startup does once the loader has put the raw blob in the environment.
func TestStoredCredentialDecryptsAtBoot(t *testing.T) {
	home := t.TempDir()
	t.Setenv("QUILL_PATH", home)

	kc, err := OpenKeychain(KeyPath())
	if err != nil {
		t.Fatalf("OpenKeychain: %v", err)
	}
	blob, err := kc.Encrypt("key-123")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if err := SetEntry(filepath.Join(home, ".env"), "OPENAI_API_KEY", blob); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}

	t.Setenv("OPENAI_API_KEY", blob)
	if err := DecryptEnv(KeyPath()); err != nil {
		t.Fatalf("DecryptEnv: %v", err)
	}
	if got := os.Getenv("OPENAI_API_KEY"); got != "key-123" {
		t.Fatalf("OPENAI_API_KEY = %q after boot decrypt, want key-123", got)
	}
}

func TestDecryptEnvNoopWithoutEncryptedValues(t *testing.T) {
	// No key file exists; that is only an error when blobs are present.
	if err := DecryptEnv(filepath.Join(t.TempDir(), ".age-key")); err != nil {
		t.Fatalf("DecryptEnv: %v", err)
	}
}
