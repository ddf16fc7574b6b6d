// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/segmentio/encoding/json"

	"github.com/pdiddy/rct-harvester/pkg/types"
)

// SQLite appends rows to a results table in a SQLite database.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path and its schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &SQLite{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Path returns the database path.
func (s *SQLite) Path() string { return s.path }

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS results (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			pmid TEXT,
			journal_title TEXT,
			journal_abbrev TEXT,
			title TEXT,
			year TEXT,
			pages TEXT,
			issue TEXT,
			volume TEXT,
			first_author TEXT,
			first_author_affiliation TEXT,
			last_author TEXT,
			last_author_affiliation TEXT,
			doi TEXT,
			link TEXT,
			authors TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_pmid ON results(pmid)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Write inserts rows in one transaction.
func (s *SQLite) Write(ctx context.Context, rows []types.Row) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (pmid, journal_title, journal_abbrev, title, year, pages, issue, volume,
			first_author, first_author_affiliation, last_author, last_author_affiliation, doi, link, authors)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		authors := r.Authors
		if authors == nil {
			authors = []string{}
		}
		authorsJSON, err := json.Marshal(authors)
		if err != nil {
			return fmt.Errorf("encoding authors for %s: %w", r.PMID, err)
		}
		_, err = stmt.ExecContext(ctx,
			r.PMID, r.JournalTitle, r.JournalAbbrev, r.Title, r.Year, r.Pages, r.Issue, r.Volume,
			r.FirstAuthor, r.FirstAuthorAffiliation, r.LastAuthor, r.LastAuthorAffiliation,
			r.DOI, r.Link, string(authorsJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting row %s: %w", r.PMID, err)
		}
	}
	return tx.Commit()
}

// ReadRows returns all stored rows in insertion order.
func (s *SQLite) ReadRows(ctx context.Context) ([]types.Row, error) {
	rs, err := s.db.QueryContext(ctx,
		`SELECT pmid, journal_title, journal_abbrev, title, year, pages, issue, volume,
			first_author, first_author_affiliation, last_author, last_author_affiliation, doi, link, authors
		 FROM results ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rs.Close()

	var rows []types.Row
	for rs.Next() {
		var r types.Row
		var authorsJSON string
		if err := rs.Scan(&r.PMID, &r.JournalTitle, &r.JournalAbbrev, &r.Title, &r.Year, &r.Pages,
			&r.Issue, &r.Volume, &r.FirstAuthor, &r.FirstAuthorAffiliation, &r.LastAuthor,
			&r.LastAuthorAffiliation, &r.DOI, &r.Link, &authorsJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal([]byte(authorsJSON), &r.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors for %s: %w", r.PMID, err)
		}
		rows = append(rows, r)
	}
	return rows, rs.Err()
}
