// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sink persists normalized rows. Each sink appends to whatever the
// target already holds; nothing is deduplicated or reconciled.
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/rct-harvester/pkg/types"
)

// filePrefix and stampLayout name result files after the run start time.
const (
	filePrefix  = "pubmed_results_"
	stampLayout = "20060102_150405"
)

// Sink stores a run's rows.
type Sink interface {
	// Write appends rows to the target. Writing no rows leaves existing
	// content intact.
	Write(ctx context.Context, rows []types.Row) error

	// Path is where the rows are stored.
	Path() string

	Close() error
}

// Stem returns the result file path without extension for a run started at
// start: dir/pubmed_results_YYYYMMDD_HHMMSS.
func Stem(dir string, start time.Time) string {
	return filepath.Join(dir, filePrefix+start.Format(stampLayout))
}

// Open creates the results directory if needed and returns the sink for
// format, named after start.
func Open(format types.OutputFormat, dir string, start time.Time) (Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating results directory %s: %w", dir, err)
	}
	stem := Stem(dir, start)
	switch format {
	case types.OutputXLSX, "":
		return NewXLSX(stem + ".xlsx"), nil
	case types.OutputSQLite:
		s, err := OpenSQLite(stem + ".db")
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want xlsx or sqlite)", format)
	}
}
