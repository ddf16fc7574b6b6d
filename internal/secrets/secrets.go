// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads the NCBI contact email and API key from a local
// directory, one file per key, so they stay out of config files.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File names under the secrets directory.
const (
	NCBIEmail  = "ncbi-email"   // contact address sent as the email parameter
	NCBIAPIKey = "ncbi-api-key" // raises the E-utilities rate limit to 10/s
)

var warnings io.Writer = os.Stderr

// Load returns the trimmed contents of each regular file in dir, keyed by
// file name. Hidden and empty files are ignored. A missing dir yields an
// empty map; an unreadable file is skipped with a warning.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	found := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			fmt.Fprintf(warnings, "warning: skipping secret %s: %v\n", e.Name(), err)
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			found[e.Name()] = v
		}
	}
	return found, nil
}
