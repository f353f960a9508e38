// Command secret_flow exercises the full secret encryption lifecycle
// against a throwaway Quill home directory.
//
// It generates an age identity, encrypts a secret, writes it to .env,
// then replays the boot sequence (dotenv load + in-place decryption)
// and verifies the plaintext never touches disk. It also round-trips
// a password prompt over the event bus and checks that only the
// encrypted form appears in the response payload.
//
// Usage: secret_flow -secret TOKEN_VALUE -env-name MY_TOKEN
//
// Exit codes:
//
//	0 = all checks passed
//	1 = a check failed
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quill-sh/quill/internal/config"
	"github.com/quill-sh/quill/internal/events"
	"github.com/quill-sh/quill/internal/secrets"
)

func main() {
	secret := flag.String("secret", "e2e-test-secret-value-42", "Secret value to encrypt")
	envName := flag.String("env-name", "E2E_TEST_SECRET", "Env var name for the .env entry")
	flag.Parse()

	if err := run(*secret, *envName); err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		os.Exit(1)
	}
}

func run(secret, envName string) error {
	home, err := os.MkdirTemp("", "quill-e2e-*")
	if err != nil {
		return fmt.Errorf("temp home: %w", err)
	}
	defer os.RemoveAll(home)

	keyPath := filepath.Join(home, "identity.key")
	dotenvPath := filepath.Join(home, ".env")

	// ── Step 1: Identity generation ──────────────────────────────────────
	keychain, err := secrets.OpenKeychain(keyPath)
	if err != nil {
		return fmt.Errorf("open keychain: %w", err)
	}
	fmt.Println("CHECK identity generated and loaded")

	// ── Step 2: Encrypt and store ────────────────────────────────────────
	encrypted, err := keychain.Encrypt(secret)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	if !secrets.IsEncrypted(encrypted) {
		return fmt.Errorf("encrypted value missing ENC[age: wrapper: %q", encrypted)
	}
	if strings.Contains(encrypted, secret) {
		return fmt.Errorf("SECURITY: encrypted blob contains plaintext")
	}
	fmt.Println("CHECK value encrypted (ENC[age:...])")

	if err := secrets.SetEntry(dotenvPath, envName, encrypted); err != nil {
		return fmt.Errorf("write .env entry: %w", err)
	}
	raw, err := os.ReadFile(dotenvPath)
	if err != nil {
		return fmt.Errorf("read .env: %w", err)
	}
	if strings.Contains(string(raw), secret) {
		return fmt.Errorf("SECURITY: .env contains plaintext secret")
	}
	fmt.Println("CHECK .env entry written without plaintext")

	// ── Step 3: Boot sequence replay ─────────────────────────────────────
	os.Unsetenv(envName)
	if err := config.LoadDotenv(dotenvPath); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}
	if got := os.Getenv(envName); got != encrypted {
		return fmt.Errorf("dotenv load: got %q, want encrypted blob", got)
	}
	if err := secrets.DecryptEnv(keyPath); err != nil {
		return fmt.Errorf("decrypt env: %w", err)
	}
	if got := os.Getenv(envName); got != secret {
		return fmt.Errorf("decrypt env: %s not restored to plaintext", envName)
	}
	os.Unsetenv(envName)
	fmt.Println("CHECK boot decryption restored plaintext in-process")

	// ── Step 4: Password prompt roundtrip over the bus ───────────────────
	if err := promptRoundtrip(secret, encrypted); err != nil {
		return err
	}

	fmt.Println("CHECK all flow checks passed")
	return nil
}

// promptRoundtrip plays both sides of a password prompt: the asking
// side publishes the request, the answering side (normally the TUI
// form) responds with the encrypted value.
func promptRoundtrip(secret, encrypted string) error {
	bus := events.NewBus(16)
	defer bus.Close()

	responses, unsubscribe := bus.SubscribeChan(4, events.EventPromptResponse)
	defer unsubscribe()

	const token = "e2e-prompt-token"
	bus.Publish(events.NewTypedEvent(events.SourcePlugin,
		events.PasswordPrompt("Enter the credential", token)))
	bus.Publish(events.NewTypedEvent(events.SourceTUI, events.PromptResponsePayload{
		Token: token,
		Value: encrypted,
	}))

	select {
	case evt := <-responses:
		payload, ok := events.ExtractPayload[events.PromptResponsePayload](evt)
		if !ok {
			return fmt.Errorf("prompt response payload missing")
		}
		if payload.Token != token {
			return fmt.Errorf("prompt response token mismatch: %q", payload.Token)
		}
		wire, _ := json.Marshal(evt)
		if strings.Contains(string(wire), secret) {
			return fmt.Errorf("SECURITY: prompt response carries plaintext secret")
		}
		if payload.StringValue() != encrypted {
			return fmt.Errorf("prompt response value is not the encrypted blob")
		}
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for prompt response")
	}

	fmt.Println("CHECK password prompt answered with encrypted value only")
	return nil
}
