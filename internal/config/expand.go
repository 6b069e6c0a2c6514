package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a configured filesystem path: a leading "~/" becomes the
// user's home directory and environment variables are substituted. Commands
// run through a shell get expansion for free; paths consumed directly by the
// engine (workdir, creates, destinations) go through here.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	expanded := os.ExpandEnv(path)

	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			if expanded == "~" {
				return home
			}
			return filepath.Join(home, expanded[2:])
		}
	}

	return expanded
}

// ExpandPaths maps ExpandPath over a slice.
func ExpandPaths(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = ExpandPath(p)
	}
	return out
}
