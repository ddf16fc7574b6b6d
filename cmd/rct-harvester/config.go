// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/viper"

	"github.com/pdiddy/rct-harvester/internal/entrez"
	"github.com/pdiddy/rct-harvester/internal/normalize"
	"github.com/pdiddy/rct-harvester/internal/query"
	"github.com/pdiddy/rct-harvester/internal/secrets"
	"github.com/pdiddy/rct-harvester/pkg/types"
)

const (
	defaultTimeout    = 60 * time.Second
	defaultUserAgent  = "rct-harvester/0.1"
	defaultResultsDir = "results"
)

// setDefaults registers every configuration key with its default so that
// environment variables and config files can override any of them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("entrez.base_url", entrez.DefaultBaseURL)
	v.SetDefault("entrez.email", "")
	v.SetDefault("entrez.tool", entrez.DefaultTool)
	v.SetDefault("entrez.api_key", "")
	v.SetDefault("entrez.max_results", entrez.DefaultMaxResults)
	v.SetDefault("entrez.timeout", defaultTimeout)
	v.SetDefault("entrez.user_agent", defaultUserAgent)
	v.SetDefault("entrez.request_interval", time.Duration(0))

	v.SetDefault("filters.rct", query.DefaultRCT)
	v.SetDefault("filters.critical_care", query.DefaultCriticalCare)
	v.SetDefault("filters.humans", query.DefaultHumans)
	v.SetDefault("filters.exclusion", query.DefaultExclusion)
	v.SetDefault("filters.date", "")
	v.SetDefault("filters.date_from", query.DefaultDateFrom)
	v.SetDefault("filters.date_to", query.DefaultDateTo)
	v.SetDefault("filters.humans_exempt", query.DefaultHumansExempt)

	v.SetDefault("journals", query.DefaultJournals)

	v.SetDefault("output.results_dir", defaultResultsDir)
	v.SetDefault("output.format", string(types.OutputXLSX))
	v.SetDefault("output.link_template", normalize.DefaultLinkTemplate)
	v.SetDefault("output.write_report", true)

	v.SetDefault("concurrency", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// loadHarvestConfig reads the harvest configuration from v. Secrets fill in
// the NCBI email and API key when the configuration leaves them empty.
func loadHarvestConfig(v *viper.Viper, loaded map[string]string) (types.HarvestConfig, error) {
	date, err := dateClause(v)
	if err != nil {
		return types.HarvestConfig{}, err
	}

	cfg := types.HarvestConfig{
		Entrez: types.EntrezConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("entrez.timeout"),
				UserAgent: v.GetString("entrez.user_agent"),
			},
			BaseURL:         v.GetString("entrez.base_url"),
			Email:           secretOr(loaded, secrets.NCBIEmail, v.GetString("entrez.email")),
			Tool:            v.GetString("entrez.tool"),
			APIKey:          secretOr(loaded, secrets.NCBIAPIKey, v.GetString("entrez.api_key")),
			MaxResults:      v.GetInt("entrez.max_results"),
			RequestInterval: v.GetDuration("entrez.request_interval"),
		},
		Filters: types.FilterConfig{
			RCT:          v.GetString("filters.rct"),
			CriticalCare: v.GetString("filters.critical_care"),
			Humans:       v.GetString("filters.humans"),
			Date:         date,
			Exclusion:    v.GetString("filters.exclusion"),
			HumansExempt: v.GetStringSlice("filters.humans_exempt"),
		},
		Output: types.OutputConfig{
			ResultsDir:   v.GetString("output.results_dir"),
			Format:       types.OutputFormat(strings.ToLower(v.GetString("output.format"))),
			LinkTemplate: v.GetString("output.link_template"),
			WriteReport:  v.GetBool("output.write_report"),
		},
		Journals:    v.GetStringSlice("journals"),
		Concurrency: v.GetInt("concurrency"),
	}

	if cfg.Entrez.Timeout <= 0 {
		cfg.Entrez.Timeout = defaultTimeout
	}
	if cfg.Entrez.MaxResults <= 0 {
		return cfg, fmt.Errorf("entrez.max_results must be positive, got %d", cfg.Entrez.MaxResults)
	}
	if len(cfg.Journals) == 0 {
		return cfg, fmt.Errorf("no journals configured")
	}
	if cfg.Output.ResultsDir == "" {
		return cfg, fmt.Errorf("output.results_dir must not be empty")
	}
	switch cfg.Output.Format {
	case types.OutputXLSX, types.OutputSQLite:
	default:
		return cfg, fmt.Errorf("output.format %q: want xlsx or sqlite", cfg.Output.Format)
	}
	if cfg.Output.LinkTemplate != "" && !strings.Contains(cfg.Output.LinkTemplate, "{pmid}") {
		return cfg, fmt.Errorf("output.link_template must contain {pmid}")
	}
	return cfg, nil
}

// dateClause returns filters.date verbatim when set, otherwise a range
// clause built from filters.date_from and filters.date_to.
func dateClause(v *viper.Viper) (string, error) {
	if d := strings.TrimSpace(v.GetString("filters.date")); d != "" {
		return d, nil
	}
	from, err := dateparse.ParseStrict(v.GetString("filters.date_from"))
	if err != nil {
		return "", fmt.Errorf("invalid filters.date_from %q: %w", v.GetString("filters.date_from"), err)
	}
	to, err := dateparse.ParseStrict(v.GetString("filters.date_to"))
	if err != nil {
		return "", fmt.Errorf("invalid filters.date_to %q: %w", v.GetString("filters.date_to"), err)
	}
	if to.Before(from) {
		return "", fmt.Errorf("filters.date_to %s is before filters.date_from %s",
			to.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	return query.DateClause(from, to), nil
}

// secretOr returns the configured value, or the secret for key when the
// configured value is empty.
func secretOr(loaded map[string]string, key, configured string) string {
	if configured != "" {
		return configured
	}
	return loaded[key]
}
