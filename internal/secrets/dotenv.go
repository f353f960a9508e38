package secrets

import (
	"fmt"
	"os"
	"strings"
)

// SetEntry writes key=value into the dotenv file at path, replacing an
// existing assignment for key in place and appending otherwise. Comments,
// blank lines and unrelated entries come through untouched. The file is
// created with 0600 when missing since it holds credentials.
func SetEntry(path, key, value string) error {
	lines, err := readDotenv(path)
	if err != nil {
		return err
	}

	entry := key + "=" + renderValue(value)
	replaced := false
	for i, line := range lines {
		if entryKey(line) == key {
			lines[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, entry)
	}

	out := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// readDotenv returns the file's lines, or none for a missing file.
func readDotenv(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

// entryKey extracts the variable name from an assignment line, or "" for
// comments, blanks and anything else that is not KEY=....
func entryKey(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	name, _, ok := strings.Cut(trimmed, "=")
	if !ok {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(name, "export "))
}

// renderValue double-quotes values the loader would otherwise mangle.
// Encrypted blobs are base64 inside ENC[age:...] and never need it.
func renderValue(value string) string {
	if value == "" || strings.ContainsAny(value, " \t\"'\\#$") {
		return "\"" + value + "\""
	}
	return value
}
