// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "rct-harvester/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// EntrezConfig holds settings for the NCBI E-utilities search and fetch calls.
type EntrezConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the E-utilities root (e.g. "https://eutils.ncbi.nlm.nih.gov/entrez/eutils").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Email identifies the operator to NCBI. NCBI requires it.
	Email string `json:"email" yaml:"email"`

	// Tool is the registered tool name sent with every request.
	Tool string `json:"tool" yaml:"tool"`

	// APIKey is an optional NCBI API key that raises the rate limit.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxResults caps the number of identifiers returned per search (retmax).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// RequestInterval is the minimum spacing between consecutive requests.
	RequestInterval time.Duration `json:"request_interval" yaml:"request_interval"`
}

// FilterConfig holds the literal clause text the query builder concatenates.
// None of the clauses are parsed; each must already be valid search syntax.
type FilterConfig struct {
	// RCT selects randomized controlled trials.
	RCT string `json:"rct" yaml:"rct"`

	// CriticalCare selects critical-care subject matter.
	CriticalCare string `json:"critical_care" yaml:"critical_care"`

	// Humans restricts results to human studies.
	Humans string `json:"humans" yaml:"humans"`

	// Date is the publication-date window clause.
	Date string `json:"date" yaml:"date"`

	// Exclusion is the parenthesized group of publication types to exclude.
	// The builder prefixes it with NOT.
	Exclusion string `json:"exclusion" yaml:"exclusion"`

	// HumansExempt lists journals whose query omits the Humans clause.
	// Matching is case-insensitive.
	HumansExempt []string `json:"humans_exempt" yaml:"humans_exempt"`
}

// OutputFormat selects the tabular sink.
type OutputFormat string

const (
	OutputXLSX   OutputFormat = "xlsx"
	OutputSQLite OutputFormat = "sqlite"
)

// OutputConfig holds settings for the tabular sink and run report.
type OutputConfig struct {
	// ResultsDir is the directory result files are written to.
	ResultsDir string `json:"results_dir" yaml:"results_dir"`

	// Format selects the sink: xlsx or sqlite.
	Format OutputFormat `json:"format" yaml:"format"`

	// LinkTemplate formats a PMID into an article link. It must contain
	// the literal placeholder "{pmid}".
	LinkTemplate string `json:"link_template" yaml:"link_template"`

	// WriteReport controls whether a YAML run report is written next to
	// the results file.
	WriteReport bool `json:"write_report" yaml:"write_report"`
}

// HarvestConfig groups all settings for one harvest run.
type HarvestConfig struct {
	Entrez  EntrezConfig `json:"entrez" yaml:"entrez"`
	Filters FilterConfig `json:"filters" yaml:"filters"`
	Output  OutputConfig `json:"output" yaml:"output"`

	// Journals is the ordered list of journal names to query.
	Journals []string `json:"journals" yaml:"journals"`

	// Concurrency is the number of journals processed at once. Values
	// below 2 process journals strictly one after another.
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}
