// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"os"
	"strings"
)

// FindFilesByPrefix lists the names of regular files directly inside dir
// whose name starts with the given prefix. Subdirectories, symlinks and
// other non-regular entries are silently ignored. The result is sorted by
// name (os.ReadDir guarantees name order), so one invocation's listing is
// reproducible.
func FindFilesByPrefix(dir string, prefix string) ([]string, error) {
	if prefix == "" {
		panic("prefix must not be empty")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if strings.HasPrefix(e.Name(), prefix) {
			names = append(names, e.Name())
		}
	}

	return names, nil
}
