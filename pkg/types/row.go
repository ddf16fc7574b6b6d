// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the rct-harvester pipeline:
// the run configuration, the normalized output row, and the run report.
package types

import "strings"

// Columns is the fixed, ordered header of every results table.
var Columns = []string{
	"Journal_TTL",
	"Journal_ABBRV",
	"Title",
	"Year",
	"Pages",
	"Issue",
	"Volume",
	"First Author",
	"First Author Affiliation",
	"Last Author",
	"Last Author Affiliation",
	"DOI",
	"Link",
	"Authors",
}

// AuthorSeparator joins the Authors list into a single table cell.
const AuthorSeparator = "; "

// Row is one normalized bibliographic record. Every field is always set;
// absent source data yields "" (or an empty Authors list).
type Row struct {
	JournalTitle           string   `json:"journal_title" yaml:"journal_title"`
	JournalAbbrev          string   `json:"journal_abbrev" yaml:"journal_abbrev"`
	Title                  string   `json:"title" yaml:"title"`
	Year                   string   `json:"year" yaml:"year"`
	Pages                  string   `json:"pages" yaml:"pages"`
	Issue                  string   `json:"issue" yaml:"issue"`
	Volume                 string   `json:"volume" yaml:"volume"`
	FirstAuthor            string   `json:"first_author" yaml:"first_author"`
	FirstAuthorAffiliation string   `json:"first_author_affiliation" yaml:"first_author_affiliation"`
	LastAuthor             string   `json:"last_author" yaml:"last_author"`
	LastAuthorAffiliation  string   `json:"last_author_affiliation" yaml:"last_author_affiliation"`
	DOI                    string   `json:"doi" yaml:"doi"`
	Link                   string   `json:"link" yaml:"link"`
	Authors                []string `json:"authors" yaml:"authors"`

	// PMID is kept for reporting. It is not an output column.
	PMID string `json:"-" yaml:"-"`
}

// Values returns the row's cells in Columns order.
func (r Row) Values() []string {
	return []string{
		r.JournalTitle,
		r.JournalAbbrev,
		r.Title,
		r.Year,
		r.Pages,
		r.Issue,
		r.Volume,
		r.FirstAuthor,
		r.FirstAuthorAffiliation,
		r.LastAuthor,
		r.LastAuthorAffiliation,
		r.DOI,
		r.Link,
		strings.Join(r.Authors, AuthorSeparator),
	}
}

// RowFromValues rebuilds a Row from cells in Columns order. Missing
// trailing cells are treated as empty, which is how spreadsheet readers
// return rows whose last cells are blank.
func RowFromValues(cells []string) Row {
	get := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}
	r := Row{
		JournalTitle:           get(0),
		JournalAbbrev:          get(1),
		Title:                  get(2),
		Year:                   get(3),
		Pages:                  get(4),
		Issue:                  get(5),
		Volume:                 get(6),
		FirstAuthor:            get(7),
		FirstAuthorAffiliation: get(8),
		LastAuthor:             get(9),
		LastAuthorAffiliation:  get(10),
		DOI:                    get(11),
		Link:                   get(12),
		Authors:                []string{},
	}
	if a := get(13); a != "" {
		r.Authors = strings.Split(a, AuthorSeparator)
	}
	return r
}
