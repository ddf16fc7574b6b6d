// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// JournalStatus summarizes how a journal's search-fetch-normalize cycle ended.
type JournalStatus string

const (
	JournalOK           JournalStatus = "ok"
	JournalNoResults    JournalStatus = "no_results"
	JournalSearchFailed JournalStatus = "search_failed"
	JournalFetchFailed  JournalStatus = "fetch_failed"
)

// RecordError describes one record dropped during normalization.
type RecordError struct {
	// PMID is the record's identifier, if the record carried one.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// Reason is the error text.
	Reason string `json:"reason" yaml:"reason"`
}

// JournalReport holds the per-journal outcome of a harvest run.
type JournalReport struct {
	Journal    string        `json:"journal" yaml:"journal"`
	Query      string        `json:"query" yaml:"query"`
	Status     JournalStatus `json:"status" yaml:"status"`
	IDs        int           `json:"ids" yaml:"ids"`
	Fetched    int           `json:"fetched" yaml:"fetched"`
	Normalized int           `json:"normalized" yaml:"normalized"`
	Dropped    []RecordError `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunReport is the structured account of one harvest run: what was asked,
// what came back, and everything that was skipped along the way.
type RunReport struct {
	RunID      string          `json:"run_id" yaml:"run_id"`
	Started    time.Time       `json:"started" yaml:"started"`
	Finished   time.Time       `json:"finished" yaml:"finished"`
	OutputPath string          `json:"output_path" yaml:"output_path"`
	Filters    FilterConfig    `json:"filters" yaml:"filters"`
	Journals   []JournalReport `json:"journals" yaml:"journals"`
	SinkError  string          `json:"sink_error,omitempty" yaml:"sink_error,omitempty"`
}

// Rows returns the number of rows normalized across all journals.
func (r RunReport) Rows() int {
	n := 0
	for _, j := range r.Journals {
		n += j.Normalized
	}
	return n
}

// Dropped returns the number of records dropped across all journals.
func (r RunReport) Dropped() int {
	n := 0
	for _, j := range r.Journals {
		n += len(j.Dropped)
	}
	return n
}

// FailedJournals returns the number of journals whose search or fetch failed.
func (r RunReport) FailedJournals() int {
	n := 0
	for _, j := range r.Journals {
		if j.Status == JournalSearchFailed || j.Status == JournalFetchFailed {
			n++
		}
	}
	return n
}
