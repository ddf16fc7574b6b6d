// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest runs the per-journal search, fetch and normalize cycle and
// accumulates the normalized rows for a single write at the end of the run.
//
// Failures never abort the batch. A journal whose search or fetch fails
// contributes no rows; a record that cannot be normalized is dropped. Both
// are recorded in the per-journal report.
package harvest

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/rct-harvester/internal/medline"
	"github.com/pdiddy/rct-harvester/internal/normalize"
	"github.com/pdiddy/rct-harvester/internal/query"
	"github.com/pdiddy/rct-harvester/pkg/types"
)

// Searcher returns identifiers matching a query, in ranked order.
type Searcher interface {
	Search(ctx context.Context, term string, maxResults int) ([]string, error)
}

// Fetcher returns the records for a list of identifiers.
type Fetcher interface {
	Fetch(ctx context.Context, ids []string) ([]*medline.Record, error)
}

// Harvester wires the query builder, the search and fetch services and the
// normalizer together.
type Harvester struct {
	Builder      *query.Builder
	Searcher     Searcher
	Fetcher      Fetcher
	MaxResults   int
	LinkTemplate string

	// Concurrency is the number of journals processed at once. Values below
	// 2 process journals one after another.
	Concurrency int

	Log logrus.FieldLogger
	Out io.Writer
}

// Result is the accumulated output of a run. Rows are grouped by journal in
// the order the journals were given.
type Result struct {
	Rows     []types.Row
	Journals []types.JournalReport
}

type outcome struct {
	rows   []types.Row
	report types.JournalReport
}

// Run processes journals and returns everything collected. It returns an
// error only when ctx is cancelled; the Result then holds the journals that
// completed.
func (h *Harvester) Run(ctx context.Context, journals []string) (Result, error) {
	out := h.Out
	if out == nil {
		out = io.Discard
	}
	out = &lockedWriter{w: out}

	outcomes := make([]*outcome, len(journals))
	workers := h.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(journals) {
		workers = len(journals)
	}

	if workers <= 1 {
		for i, j := range journals {
			if err := ctx.Err(); err != nil {
				return collect(outcomes), err
			}
			o := h.journal(ctx, j, out)
			outcomes[i] = &o
		}
		return collect(outcomes), ctx.Err()
	}

	next := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				o := h.journal(ctx, journals[i], out)
				outcomes[i] = &o
			}
		}()
	}
feed:
	for i := range journals {
		select {
		case <-ctx.Done():
			break feed
		case next <- i:
		}
	}
	close(next)
	wg.Wait()
	return collect(outcomes), ctx.Err()
}

// collect concatenates completed outcomes in journal order.
func collect(outcomes []*outcome) Result {
	var res Result
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		res.Rows = append(res.Rows, o.rows...)
		res.Journals = append(res.Journals, o.report)
	}
	return res
}

// journal runs one search-fetch-normalize cycle.
func (h *Harvester) journal(ctx context.Context, journal string, w io.Writer) outcome {
	log := h.logger().WithField("journal", journal)
	term := h.Builder.Build(journal)
	o := outcome{report: types.JournalReport{Journal: journal, Query: term}}

	ids, err := h.Searcher.Search(ctx, term, h.MaxResults)
	if err != nil {
		log.WithError(err).Warn("search failed")
		fmt.Fprintf(w, "failed   %s: search: %v\n", journal, err)
		o.report.Status = types.JournalSearchFailed
		o.report.Error = err.Error()
		return o
	}
	o.report.IDs = len(ids)
	if len(ids) == 0 {
		log.Info("no records found")
		fmt.Fprintf(w, "empty    %s\n", journal)
		o.report.Status = types.JournalNoResults
		return o
	}

	records, err := h.Fetcher.Fetch(ctx, ids)
	if err != nil {
		log.WithError(err).WithField("ids", len(ids)).Warn("fetch failed")
		fmt.Fprintf(w, "failed   %s: fetch: %v\n", journal, err)
		o.report.Status = types.JournalFetchFailed
		o.report.Error = err.Error()
		return o
	}
	o.report.Fetched = len(records)

	for _, rec := range records {
		row, err := normalize.Normalize(rec, h.LinkTemplate)
		if err != nil {
			pmid := ""
			if rec != nil {
				pmid = rec.Text(medline.TagPMID)
			}
			log.WithError(err).WithField("pmid", pmid).Warn("record dropped")
			o.report.Dropped = append(o.report.Dropped, types.RecordError{PMID: pmid, Reason: err.Error()})
			continue
		}
		o.rows = append(o.rows, row)
	}
	o.report.Normalized = len(o.rows)
	o.report.Status = types.JournalOK

	log.WithFields(logrus.Fields{
		"ids":     len(ids),
		"fetched": len(records),
		"rows":    len(o.rows),
		"dropped": len(o.report.Dropped),
	}).Info("journal processed")
	line := fmt.Sprintf("fetched  %s (%d records, %d rows", journal, len(records), len(o.rows))
	if n := len(o.report.Dropped); n > 0 {
		line += fmt.Sprintf(", %d dropped", n)
	}
	fmt.Fprintln(w, line+")")
	return o
}

func (h *Harvester) logger() logrus.FieldLogger {
	if h.Log != nil {
		return h.Log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// lockedWriter serializes progress lines from concurrent journals.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
