// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/rct-harvester/internal/entrez"
	"github.com/pdiddy/rct-harvester/internal/harvest"
	"github.com/pdiddy/rct-harvester/internal/httputil"
	"github.com/pdiddy/rct-harvester/internal/query"
	"github.com/pdiddy/rct-harvester/internal/report"
	"github.com/pdiddy/rct-harvester/internal/sink"
	"github.com/pdiddy/rct-harvester/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search, fetch and save RCTs for every configured journal",
	Long: `Run builds one PubMed query per journal, searches for matching PMIDs,
fetches their MEDLINE records and normalizes each into a result row. Rows from
all journals are written once, at the end, to a new timestamped file under the
results directory.

A journal whose search or fetch fails is reported and skipped; a record that
cannot be normalized is dropped and listed in the run report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadHarvestConfig(viper.GetViper(), loadedSecrets)
		if err != nil {
			return err
		}
		if journals, _ := cmd.Flags().GetStringArray("journal"); len(journals) > 0 {
			cfg.Journals = journals
		}
		if noReport, _ := cmd.Flags().GetBool("no-report"); noReport {
			cfg.Output.WriteReport = false
		}
		if cfg.Entrez.Email == "" {
			log.Warn("no NCBI contact email configured; set entrez.email or .secrets/ncbi-email")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		client := &http.Client{Timeout: cfg.Entrez.Timeout}
		_, err = execute(ctx, cfg, client, log, cmd.OutOrStdout())
		return err
	},
}

func init() {
	runCmd.Flags().String("results-dir", defaultResultsDir, "directory for result files")
	runCmd.Flags().String("format", string(types.OutputXLSX), "output format: xlsx or sqlite")
	runCmd.Flags().Int("max-results", entrez.DefaultMaxResults, "maximum PMIDs retrieved per journal")
	runCmd.Flags().Int("concurrency", 1, "number of journals processed at once")
	runCmd.Flags().StringArray("journal", nil, "journal to harvest instead of the configured list (repeatable)")
	runCmd.Flags().Bool("no-report", false, "do not write the YAML run report")

	_ = viper.BindPFlag("output.results_dir", runCmd.Flags().Lookup("results-dir"))
	_ = viper.BindPFlag("output.format", runCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("entrez.max_results", runCmd.Flags().Lookup("max-results"))
	_ = viper.BindPFlag("concurrency", runCmd.Flags().Lookup("concurrency"))

	rootCmd.AddCommand(runCmd)
}

// execute performs one harvest run with cfg, sending HTTP requests through
// client. Only a results location that cannot be created or a cancelled
// context return an error; search, fetch, normalize and sink failures end up
// in the returned report.
func execute(ctx context.Context, cfg types.HarvestConfig, client httputil.Doer, log logrus.FieldLogger, out io.Writer) (types.RunReport, error) {
	started := time.Now()
	rep := types.RunReport{
		RunID:   uuid.NewString(),
		Started: started,
		Filters: cfg.Filters,
	}
	log = log.WithField("run", rep.RunID)

	s, err := sink.Open(cfg.Output.Format, cfg.Output.ResultsDir, started)
	if err != nil {
		return rep, err
	}
	defer s.Close()
	if x, ok := s.(*sink.XLSX); ok {
		x.Log = log
	}
	rep.OutputPath = s.Path()
	fmt.Fprintf(out, "Output file: %s\n", s.Path())

	interval := cfg.Entrez.RequestInterval
	if interval == 0 {
		interval = httputil.NCBIInterval
		if cfg.Entrez.APIKey != "" {
			interval = httputil.NCBIIntervalWithKey
		}
	}
	pubmed := entrez.New(httputil.NewThrottle(client, interval), cfg.Entrez)

	h := &harvest.Harvester{
		Builder:      query.NewBuilder(cfg.Filters),
		Searcher:     pubmed,
		Fetcher:      pubmed,
		MaxResults:   cfg.Entrez.MaxResults,
		LinkTemplate: cfg.Output.LinkTemplate,
		Concurrency:  cfg.Concurrency,
		Log:          log,
		Out:          out,
	}
	res, runErr := h.Run(ctx, cfg.Journals)
	rep.Journals = res.Journals

	// Rows gathered before an interrupt are still saved.
	if err := s.Write(context.WithoutCancel(ctx), res.Rows); err != nil {
		log.WithError(err).WithField("path", s.Path()).Error("writing results")
		rep.SinkError = err.Error()
	} else {
		log.WithFields(logrus.Fields{"path": s.Path(), "rows": len(res.Rows)}).Info("results written")
	}
	rep.Finished = time.Now()

	fmt.Fprintln(out)
	report.FormatTable(rep, out)

	if cfg.Output.WriteReport {
		path := report.PathFor(strings.TrimSuffix(s.Path(), filepath.Ext(s.Path())))
		if err := report.WriteFile(path, rep); err != nil {
			log.WithError(err).Warn("writing run report")
		} else {
			fmt.Fprintf(out, "Report: %s\n", path)
		}
	}
	return rep, runErr
}
