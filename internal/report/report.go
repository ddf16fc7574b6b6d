// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report saves and prints the structured account of a harvest run:
// per-journal counts, dropped records with reasons, and sink failures.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/rct-harvester/pkg/types"
)

// PathFor returns the report path that accompanies a results file stem.
func PathFor(stem string) string {
	return stem + "-report.yaml"
}

// WriteFile saves r as YAML.
func WriteFile(path string, r types.RunReport) error {
	data, err := yaml.Marshal(&r)
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile loads a previously saved run report.
func ReadFile(path string) (*types.RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run report: %w", err)
	}
	var r types.RunReport
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing run report: %w", err)
	}
	return &r, nil
}

// FormatTable writes a per-journal summary table to w.
func FormatTable(r types.RunReport, w io.Writer) {
	if len(r.Journals) == 0 {
		fmt.Fprintln(w, "No journals processed.")
		return
	}

	fmt.Fprintf(w, "%-50s  %-13s  %6s  %7s  %5s  %7s\n",
		"Journal", "Status", "IDs", "Fetched", "Rows", "Dropped")
	fmt.Fprintln(w, strings.Repeat("-", 97))

	for _, j := range r.Journals {
		fmt.Fprintf(w, "%-50s  %-13s  %6d  %7d  %5d  %7d\n",
			truncate(j.Journal, 50), j.Status, j.IDs, j.Fetched, j.Normalized, len(j.Dropped))
	}

	fmt.Fprintf(w, "\n%d rows from %d journals", r.Rows(), len(r.Journals))
	if n := r.Dropped(); n > 0 {
		fmt.Fprintf(w, ", %d records dropped", n)
	}
	if n := r.FailedJournals(); n > 0 {
		fmt.Fprintf(w, ", %d journals failed", n)
	}
	fmt.Fprintln(w)
	if r.SinkError != "" {
		fmt.Fprintf(w, "warning: results not saved: %s\n", r.SinkError)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
