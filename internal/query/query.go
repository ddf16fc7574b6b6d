// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query builds the PubMed boolean search expression for one journal
// from fixed filter clauses. The clauses are opaque text; the builder only
// concatenates them in a fixed order.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/rct-harvester/pkg/types"
)

// Default clause text used when no configuration overrides it.
const (
	DefaultRCT = `("Randomized Controlled Trial"[Publication Type] OR ` +
		`"Randomized Controlled Trials as Topic"[MeSH Terms] OR ` +
		`"Random Allocation"[MeSH Terms] OR ` +
		`"randomized"[Title/Abstract] OR ` +
		`"randomised"[Title/Abstract] OR ` +
		`"randomly"[Title/Abstract])`

	DefaultCriticalCare = `("critical care"[MeSH Terms] OR ` +
		`"intensive care units"[MeSH Terms] OR ` +
		`"critical illness"[MeSH Terms] OR ` +
		`"ICU"[Title/Abstract] OR ` +
		`"high dependency unit*"[Title/Abstract] OR ` +
		`"respiration, artificial"[MeSH Terms] OR ` +
		`"intensive care"[Title/Abstract] OR ` +
		`"intensive care unit"[Title/Abstract] OR ` +
		`"critical illness"[Title/Abstract] OR ` +
		`"Critical Care"[Title/Abstract] OR ` +
		`"critical ill*"[Title/Abstract] OR ` +
		`"Intensive therapy"[Title/Abstract] OR ` +
		`"mechanical ventilation"[Title/Abstract] OR ` +
		`"mechanical ventilat*"[Title/Abstract] OR ` +
		`("mechanical"[Title/Abstract] AND "ventilation"[Title/Abstract]))`

	DefaultHumans = `"humans"[MeSH Terms]`

	DefaultExclusion = `("systematic review"[Publication Type] OR ` +
		`"Meta-Analysis"[Publication Type] OR ` +
		`"Review"[Publication Type])`

	// DefaultDateFrom and DefaultDateTo bound the publication-date window.
	DefaultDateFrom = "2020/01/01"
	DefaultDateTo   = "2025/01/01"
)

// DefaultHumansExempt lists journals queried without the humans clause.
var DefaultHumansExempt = []string{"Annals of Intensive Care"}

// DefaultJournals is the curated journal list, in processing order.
var DefaultJournals = []string{
	"The New England Journal of Medicine",
	"Lancet",
	"JAMA",
	"American Journal of Respiratory and Critical Care Medicine",
	"Intensive Care Medicine",
	"Critical Care Medicine",
	"Critical care",
	"Chest",
	"BMJ",
	"Annals of Intensive care",
	"JAMA Internal Medicine",
	"JAMA Network Open",
	"Annals of the American Thoracic Society",
}

// pdatLayout is the PubMed [PDAT] date layout.
const pdatLayout = "2006/01/02"

// DateClause returns an inclusive publication-date range clause.
func DateClause(from, to time.Time) string {
	return fmt.Sprintf(`("%s"[PDAT]:"%s"[PDAT])`, from.Format(pdatLayout), to.Format(pdatLayout))
}

// DefaultDate is the date clause for the default window.
var DefaultDate = fmt.Sprintf(`("%s"[PDAT]:"%s"[PDAT])`, DefaultDateFrom, DefaultDateTo)

// DefaultFilters returns the filter configuration used when nothing is
// configured.
func DefaultFilters() types.FilterConfig {
	return types.FilterConfig{
		RCT:          DefaultRCT,
		CriticalCare: DefaultCriticalCare,
		Humans:       DefaultHumans,
		Date:         DefaultDate,
		Exclusion:    DefaultExclusion,
		HumansExempt: append([]string(nil), DefaultHumansExempt...),
	}
}

// Builder turns journal names into search expressions.
type Builder struct {
	filters types.FilterConfig
	exempt  map[string]struct{}
}

// NewBuilder returns a Builder for the given filter clauses.
func NewBuilder(filters types.FilterConfig) *Builder {
	exempt := make(map[string]struct{}, len(filters.HumansExempt))
	for _, j := range filters.HumansExempt {
		exempt[strings.ToLower(j)] = struct{}{}
	}
	return &Builder{filters: filters, exempt: exempt}
}

// Exempt reports whether journal is queried without the humans clause.
func (b *Builder) Exempt(journal string) bool {
	_, ok := b.exempt[strings.ToLower(journal)]
	return ok
}

// JournalClause returns the journal-match clause for journal.
func JournalClause(journal string) string {
	return `"` + journal + `"[Journal]`
}

// Build returns the complete search expression for journal. The main group
// ANDs the RCT, critical-care, journal, date and (unless the journal is
// exempt) humans clauses; the exclusion group is applied after the main
// group closes.
func (b *Builder) Build(journal string) string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(b.filters.RCT)
	sb.WriteString(" AND ")
	sb.WriteString(b.filters.CriticalCare)
	sb.WriteString(" AND (")
	sb.WriteString(JournalClause(journal))
	sb.WriteString(") AND ")
	sb.WriteString(b.filters.Date)
	if !b.Exempt(journal) {
		sb.WriteString(" AND ")
		sb.WriteString(b.filters.Humans)
	}
	sb.WriteString(")")
	if b.filters.Exclusion != "" {
		sb.WriteString(" NOT ")
		sb.WriteString(b.filters.Exclusion)
	}
	return sb.String()
}
