// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package medline parses the MEDLINE tagged-field text format returned by
// PubMed EFetch (rettype=medline).
//
// Each field line carries a tag left-justified in four columns, a "- "
// separator and the value. Lines starting with six spaces continue the
// previous value. Blank lines separate records. Every tag is stored as a
// sequence of values, so fields that appear once and fields that repeat
// (AU, AD, AID) are read the same way.
package medline

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Common MEDLINE field tags.
const (
	TagPMID         = "PMID"
	TagJournalTitle = "JT"
	TagJournalAbbr  = "TA"
	TagTitle        = "TI"
	TagDate         = "DP"
	TagIssue        = "IP"
	TagVolume       = "VI"
	TagPages        = "PG"
	TagAuthor       = "AU"
	TagAffiliation  = "AD"
	TagLocationID   = "LID"
	TagArticleID    = "AID"
)

const continuation = "      "

// maxLine bounds a single line; abstracts can run to several kilobytes.
const maxLine = 1 << 20

// Record is one MEDLINE citation: tag → values in source order.
type Record struct {
	fields   map[string][]string
	order    []string
	last     string // tag of the most recent field line
	problems []string
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{fields: make(map[string][]string)}
}

// Add appends values under tag.
func (r *Record) Add(tag string, values ...string) {
	if r.fields == nil {
		r.fields = make(map[string][]string)
	}
	if _, ok := r.fields[tag]; !ok {
		r.order = append(r.order, tag)
	}
	r.fields[tag] = append(r.fields[tag], values...)
	r.last = tag
}

// Has reports whether tag is present.
func (r *Record) Has(tag string) bool {
	_, ok := r.fields[tag]
	return ok
}

// List returns the values under tag, or nil when tag is absent.
func (r *Record) List(tag string) []string {
	return r.fields[tag]
}

// Text returns the values under tag joined by single spaces, or "" when
// tag is absent.
func (r *Record) Text(tag string) string {
	return strings.Join(r.fields[tag], " ")
}

// Tags returns the tags in first-seen order.
func (r *Record) Tags() []string {
	return r.order
}

// Empty reports whether the record holds no fields and no problems.
func (r *Record) Empty() bool {
	return len(r.fields) == 0 && len(r.problems) == 0
}

// Err reports whether the record was malformed in the source text.
func (r *Record) Err() error {
	switch len(r.problems) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("malformed record: %s", r.problems[0])
	default:
		return fmt.Errorf("malformed record: %s (and %d more)", r.problems[0], len(r.problems)-1)
	}
}

func (r *Record) problem(format string, args ...any) {
	r.problems = append(r.problems, fmt.Sprintf(format, args...))
}

// continueLast appends text to the value added by the most recent field
// line. Tags repeat within a record (AU, AD per author), so this is not
// necessarily the newest tag in first-seen order.
func (r *Record) continueLast(text string) bool {
	if r.last == "" {
		return false
	}
	vals := r.fields[r.last]
	if len(vals) == 0 {
		return false
	}
	vals[len(vals)-1] += " " + text
	return true
}

// Parse reads all records from rd. Malformed lines do not stop parsing:
// they are attached to their record, which then reports them through Err.
// Parse fails only when rd itself cannot be read.
func Parse(rd io.Reader) ([]*Record, error) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var (
		records []*Record
		cur     = NewRecord()
		lineNo  int
	)
	flush := func() {
		if !cur.Empty() {
			records = append(records, cur)
		}
		cur = NewRecord()
	}

	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if strings.HasPrefix(line, continuation) {
			text := strings.TrimSpace(line)
			if !cur.continueLast(text) {
				cur.problem("line %d: continuation without a field", lineNo)
			}
			continue
		}

		tag, value, ok := splitField(line)
		if !ok {
			cur.problem("line %d: unrecognized field line %q", lineNo, truncate(line, 40))
			continue
		}
		cur.Add(tag, value)
	}
	if err := sc.Err(); err != nil {
		return records, fmt.Errorf("reading MEDLINE text: %w", err)
	}
	flush()
	return records, nil
}

// splitField splits a "TAG - value" line. The tag occupies the first four
// columns (right-padded with spaces) and the separator is "- ".
func splitField(line string) (tag, value string, ok bool) {
	if len(line) < 5 || line[4] != '-' {
		return "", "", false
	}
	tag = strings.TrimSpace(line[:4])
	if tag == "" || !isTag(tag) {
		return "", "", false
	}
	if len(line) > 5 {
		if line[5] != ' ' {
			return "", "", false
		}
		value = strings.TrimSpace(line[6:])
	}
	return tag, value, true
}

func isTag(s string) bool {
	for _, c := range s {
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
