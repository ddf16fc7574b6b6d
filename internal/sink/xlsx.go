// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/rct-harvester/pkg/types"
)

const sheetName = "Sheet1"

// XLSX writes rows to a spreadsheet. If the file already exists its rows are
// read back and the new rows are placed beneath them; the workbook is then
// rewritten in full.
//
// A cell holds at most excelize.TotalCellChars characters; longer values,
// typically the author list of a large consortium trial, are cut off by the
// spreadsheet library and reported through Log.
type XLSX struct {
	path string

	Log logrus.FieldLogger
}

// NewXLSX returns a spreadsheet sink writing to path.
func NewXLSX(path string) *XLSX {
	return &XLSX{path: path}
}

// Path returns the spreadsheet path.
func (x *XLSX) Path() string { return x.path }

// Close is a no-op; the workbook is closed after every Write.
func (x *XLSX) Close() error { return nil }

// Write merges rows into the spreadsheet.
func (x *XLSX) Write(ctx context.Context, rows []types.Row) error {
	existing, err := x.ReadCells()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := setRow(f, 1, toAny(types.Columns)); err != nil {
		return err
	}
	n := 2
	for _, cells := range existing {
		if err := setRow(f, n, toAny(cells)); err != nil {
			return err
		}
		n++
	}
	for _, r := range rows {
		values := r.Values()
		x.checkLength(r.PMID, values)
		if err := setRow(f, n, toAny(values)); err != nil {
			return err
		}
		n++
	}

	// Save next to the target and rename so a failed save never truncates
	// the existing file.
	tmp := filepath.Join(filepath.Dir(x.path), ".tmp-"+filepath.Base(x.path))
	if err := f.SaveAs(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("saving spreadsheet: %w", err)
	}
	if err := os.Rename(tmp, x.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", x.path, err)
	}
	return nil
}

func (x *XLSX) checkLength(pmid string, values []string) {
	if x.Log == nil {
		return
	}
	for i, v := range values {
		if n := utf8.RuneCountInString(v); n > excelize.TotalCellChars {
			x.Log.WithFields(logrus.Fields{
				"pmid":   pmid,
				"column": types.Columns[i],
				"length": n,
			}).Warn("cell truncated to spreadsheet limit")
		}
	}
}

// ReadCells returns the data rows currently in the spreadsheet, without the
// header. A missing file yields no rows.
func (x *XLSX) ReadCells() ([][]string, error) {
	f, err := excelize.OpenFile(x.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening existing spreadsheet %s: %w", x.path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading existing spreadsheet %s: %w", x.path, err)
	}
	if len(all) <= 1 {
		return nil, nil
	}
	return all[1:], nil
}

// ReadRows returns the spreadsheet's data rows as Rows.
func (x *XLSX) ReadRows() ([]types.Row, error) {
	cells, err := x.ReadCells()
	if err != nil {
		return nil, err
	}
	rows := make([]types.Row, 0, len(cells))
	for _, c := range cells {
		rows = append(rows, types.RowFromValues(c))
	}
	return rows, nil
}

func setRow(f *excelize.File, n int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("writing row %d: %w", n, err)
	}
	return nil
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
