package secrets

import (
	"fmt"
	"os"
	"strings"
)

// DecryptEnv decrypts every ENC[age:...] value currently present in the
// process environment, in place. Call it after the .env file has been
// loaded. A missing key file is only an error when encrypted values exist.
func DecryptEnv(keyPath string) error {
	var encrypted [][2]string
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if ok && IsEncrypted(value) {
			encrypted = append(encrypted, [2]string{key, value})
		}
	}
	if len(encrypted) == 0 {
		return nil
	}

	kc, err := LoadKeychain(keyPath)
	if err != nil {
		return fmt.Errorf("load age key for encrypted env values: %w", err)
	}

	for _, kv := range encrypted {
		plaintext, err := kc.Decrypt(kv[1])
		if err != nil {
			return fmt.Errorf("decrypt %s: %w", kv[0], err)
		}
		os.Setenv(kv[0], plaintext)
	}
	return nil
}
