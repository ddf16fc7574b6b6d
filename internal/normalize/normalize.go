// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns a MEDLINE record into a fixed-shape results row.
// Any field may be missing from the source; missing fields become empty
// values and never fail the row.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/rct-harvester/internal/medline"
	"github.com/pdiddy/rct-harvester/pkg/types"
)

// DefaultLinkTemplate formats a PMID into a PubMed article URL.
const DefaultLinkTemplate = "https://pubmed.ncbi.nlm.nih.gov/{pmid}/"

const (
	pmidPlaceholder = "{pmid}"
	doiMarker       = "[doi]"
	doiSuffix       = " [doi]"
)

var (
	yearRe = regexp.MustCompile(`\d{4}`)
	doiRe  = regexp.MustCompile(`10\.\S+`)
)

// Normalize extracts a Row from rec. It returns an error, and no row, when
// the record was malformed in the source or extraction fails unexpectedly.
func Normalize(rec *medline.Record, linkTemplate string) (row types.Row, err error) {
	if rec == nil {
		return types.Row{}, fmt.Errorf("nil record")
	}
	if err := rec.Err(); err != nil {
		return types.Row{}, err
	}
	defer func() {
		if r := recover(); r != nil {
			row = types.Row{}
			err = fmt.Errorf("normalizing record %s: %v", rec.Text(medline.TagPMID), r)
		}
	}()

	authors := rec.List(medline.TagAuthor)
	affiliations := rec.List(medline.TagAffiliation)
	pmid := rec.Text(medline.TagPMID)

	row = types.Row{
		JournalTitle:           rec.Text(medline.TagJournalTitle),
		JournalAbbrev:          rec.Text(medline.TagJournalAbbr),
		Title:                  rec.Text(medline.TagTitle),
		Year:                   Year(rec.Text(medline.TagDate)),
		Pages:                  rec.Text(medline.TagPages),
		Issue:                  rec.Text(medline.TagIssue),
		Volume:                 rec.Text(medline.TagVolume),
		FirstAuthor:            first(authors),
		FirstAuthorAffiliation: first(affiliations),
		LastAuthor:             last(authors),
		LastAuthorAffiliation:  last(affiliations),
		DOI:                    DOI(rec.Text(medline.TagLocationID), rec.List(medline.TagArticleID)),
		Link:                   Link(linkTemplate, pmid),
		Authors:                append([]string{}, authors...),
		PMID:                   pmid,
	}
	return row, nil
}

// Year returns the first run of four digits in a publication date, or "".
func Year(date string) string {
	return yearRe.FindString(date)
}

// DOI resolves a record's DOI. The location identifier is searched first
// for a "10." prefixed token. Failing that, the first article identifier
// marked "[doi]" is used, taking the text before " [doi]" as-is.
func DOI(locationID string, articleIDs []string) string {
	if locationID != "" {
		if m := doiRe.FindString(locationID); m != "" {
			return m
		}
	}
	for _, aid := range articleIDs {
		if strings.Contains(aid, doiMarker) {
			before, _, _ := strings.Cut(aid, doiSuffix)
			return before
		}
	}
	return ""
}

// Link formats pmid into template, or returns "" when pmid is empty.
func Link(template, pmid string) string {
	if pmid == "" {
		return ""
	}
	if template == "" {
		template = DefaultLinkTemplate
	}
	return strings.ReplaceAll(template, pmidPlaceholder, pmid)
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

func last(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}
