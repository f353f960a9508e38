// Package secrets handles credential storage for quill. API keys live in
// $QUILL_PATH/.env, encrypted with an age key held next to them; values are
// decrypted into the process environment at startup and never written back
// in the clear.
package secrets

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"github.com/quill-sh/quill/internal/config"
)

// Encrypted values are single-line ENC[age:<base64>] blobs so they fit in
// a dotenv entry.
const (
	blobPrefix = "ENC[age:"
	blobSuffix = "]"
)

// KeyPath returns where the age key file lives: $QUILL_PATH/.age-key.
func KeyPath() string {
	return filepath.Join(config.QuillPath(), ".age-key")
}

// Keychain holds the X25519 identity quill encrypts credentials with.
type Keychain struct {
	path     string
	identity *age.X25519Identity
}

// OpenKeychain loads the key file at path, generating a fresh identity
// when none exists yet. Repeated opens reuse the same key.
func OpenKeychain(path string) (*Keychain, error) {
	kc, err := LoadKeychain(path)
	if err == nil {
		return kc, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generate age identity: %w", err)
	}
	if err := writeKeyFile(path, identity); err != nil {
		return nil, err
	}
	return &Keychain{path: path, identity: identity}, nil
}

// LoadKeychain loads an existing key file. Unlike OpenKeychain it never
// creates one; boot-time decryption must not mint keys nobody asked for.
func LoadKeychain(path string) (*Keychain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open age key: %w", err)
	}
	defer f.Close()

	ids, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("parse age key %s: %w", path, err)
	}
	for _, id := range ids {
		if x, ok := id.(*age.X25519Identity); ok {
			return &Keychain{path: path, identity: x}, nil
		}
	}
	return nil, fmt.Errorf("no X25519 identity in %s", path)
}

func writeKeyFile(path string, identity *age.X25519Identity) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# quill age key; do not share or commit")
	fmt.Fprintf(&buf, "# public key: %s\n", identity.Recipient())
	fmt.Fprintln(&buf, identity)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write age key: %w", err)
	}
	return nil
}

// Path returns the key file this keychain was loaded from.
func (k *Keychain) Path() string { return k.path }

// PublicKey returns the age recipient string, safe to display.
func (k *Keychain) PublicKey() string { return k.identity.Recipient().String() }

// Encrypt seals plaintext into an ENC[age:...] blob.
func (k *Keychain) Encrypt(plaintext string) (string, error) {
	var sealed bytes.Buffer
	w, err := age.Encrypt(&sealed, k.identity.Recipient())
	if err != nil {
		return "", fmt.Errorf("age encrypt: %w", err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", fmt.Errorf("age encrypt: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("age encrypt: %w", err)
	}
	return blobPrefix + base64.StdEncoding.EncodeToString(sealed.Bytes()) + blobSuffix, nil
}

// Decrypt opens an ENC[age:...] blob produced by Encrypt.
func (k *Keychain) Decrypt(blob string) (string, error) {
	body, ok := strings.CutPrefix(blob, blobPrefix)
	if ok {
		body, ok = strings.CutSuffix(body, blobSuffix)
	}
	if !ok {
		return "", errors.New("value is not an ENC[age:...] blob")
	}

	sealed, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return "", fmt.Errorf("decode blob: %w", err)
	}
	r, err := age.Decrypt(bytes.NewReader(sealed), k.identity)
	if err != nil {
		return "", fmt.Errorf("age decrypt: %w", err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("age decrypt: %w", err)
	}
	return string(plain), nil
}

// IsEncrypted reports whether s looks like an ENC[age:...] blob.
func IsEncrypted(s string) bool {
	return strings.HasPrefix(s, blobPrefix) && strings.HasSuffix(s, blobSuffix)
}
