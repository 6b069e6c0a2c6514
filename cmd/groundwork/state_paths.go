package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// stateDirFor resolves the state directory for a run. An explicit --state-dir
// wins; otherwise state lives under ~/.groundwork/<config-name> so separate
// configs never share records.
func stateDirFor(explicit, configName string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	name := sanitizeName(configName)
	if name == "" {
		name = "default"
	}

	return filepath.Join(home, ".groundwork", name), nil
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	return b.String()
}
