// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/rct-harvester/pkg/types"
)

func sampleRows() []types.Row {
	return []types.Row{
		{
			JournalTitle: "Lancet", JournalAbbrev: "Lancet", Title: "Trial one", Year: "2021",
			Pages: "1-10", Issue: "3", Volume: "397",
			FirstAuthor: "Smith J", FirstAuthorAffiliation: "Boston", LastAuthor: "Lee K", LastAuthorAffiliation: "London",
			DOI: "10.1016/x", Link: "https://pubmed.ncbi.nlm.nih.gov/1/",
			Authors: []string{"Smith J", "Doe A", "Lee K"}, PMID: "1",
		},
		{
			Title: "Sparse trial", Year: "2022", Link: "https://pubmed.ncbi.nlm.nih.gov/2/",
			Authors: []string{}, PMID: "2",
		},
	}
}

// withoutPMID clears the reporting-only field, which spreadsheets do not keep.
func withoutPMID(rows []types.Row) []types.Row {
	out := make([]types.Row, len(rows))
	for i, r := range rows {
		r.PMID = ""
		out[i] = r
	}
	return out
}

func TestStem(t *testing.T) {
	start := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, filepath.Join("results", "pubmed_results_20260304_050607"), Stem("results", start))
}

func TestOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	start := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	x, err := Open(types.OutputXLSX, dir, start)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pubmed_results_20260304_050607.xlsx"), x.Path())
	require.NoError(t, x.Close())

	s, err := Open(types.OutputSQLite, dir, start)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pubmed_results_20260304_050607.db"), s.Path())
	require.NoError(t, s.Close())

	_, err = Open("csv", dir, start)
	assert.ErrorContains(t, err, "unknown output format")
}

func TestXLSXWriteNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	x := NewXLSX(path)
	require.NoError(t, x.Write(context.Background(), sampleRows()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	all, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, types.Columns, all[0])
	assert.Equal(t, "Smith J; Doe A; Lee K", all[1][13])

	rows, err := x.ReadRows()
	require.NoError(t, err)
	assert.Equal(t, withoutPMID(sampleRows()), rows)
}

func TestXLSXAppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	x := NewXLSX(path)
	rows := sampleRows()
	require.NoError(t, x.Write(context.Background(), rows[:1]))
	require.NoError(t, x.Write(context.Background(), rows[1:]))

	got, err := x.ReadRows()
	require.NoError(t, err)
	assert.Equal(t, withoutPMID(rows), got)
}

func TestXLSXEmptyWriteKeepsPriorRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	x := NewXLSX(path)
	require.NoError(t, x.Write(context.Background(), sampleRows()))
	before, err := x.ReadCells()
	require.NoError(t, err)

	require.NoError(t, x.Write(context.Background(), nil))
	after, err := x.ReadCells()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, after, 2)
}

func TestXLSXEmptyWriteCreatesHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	x := NewXLSX(path)
	require.NoError(t, x.Write(context.Background(), nil))

	_, err := os.Stat(path)
	require.NoError(t, err)
	cells, err := x.ReadCells()
	require.NoError(t, err)
	assert.Empty(t, cells)
}

func TestXLSXUnreadableExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o644))

	err := NewXLSX(path).Write(context.Background(), sampleRows())
	require.Error(t, err)

	// The existing file is left as it was.
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "not a workbook", string(data))
}

func TestXLSXReadMissingFile(t *testing.T) {
	cells, err := NewXLSX(filepath.Join(t.TempDir(), "none.xlsx")).ReadCells()
	require.NoError(t, err)
	assert.Nil(t, cells)
}

func TestSQLiteAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	rows := sampleRows()
	require.NoError(t, s.Write(context.Background(), rows[:1]))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Write(context.Background(), rows[1:]))
	require.NoError(t, s.Write(context.Background(), nil))

	got, err := s.ReadRows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestXLSXWarnsOnOversizedCell(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	x := NewXLSX(filepath.Join(t.TempDir(), "out.xlsx"))
	x.Log = log

	huge := types.Row{Title: "Consortium trial", PMID: "9", Authors: []string{strings.Repeat("a", excelize.TotalCellChars+1)}}
	require.NoError(t, x.Write(context.Background(), append(sampleRows(), huge)))

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "9", entry.Data["pmid"])
	assert.Equal(t, "Authors", entry.Data["column"])
}

func TestSQLiteStoresNilAuthorsAsEmptyList(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "out.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Write(context.Background(), []types.Row{{Title: "No authors", PMID: "7"}}))
	got, err := s.ReadRows(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{}, got[0].Authors)
}
