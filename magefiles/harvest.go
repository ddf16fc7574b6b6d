//go:build mage

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Harvest builds the CLI and runs a full harvest into results/. Extra
// arguments can be passed in RCT_HARVESTER_ARGS, e.g. "--format sqlite".
func Harvest() error {
	mg.Deps(Init, Build)
	args := []string{"run", "--results-dir", resultsDir}
	if extra := os.Getenv("RCT_HARVESTER_ARGS"); extra != "" {
		args = append(args, strings.Fields(extra)...)
	}
	return sh.RunV(filepath.Join(binDir, binName), args...)
}

// Queries prints the PubMed query for every configured journal.
func Queries() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "query")
}
