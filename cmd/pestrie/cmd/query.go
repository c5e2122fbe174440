package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pestrie/pestrie/internal/driver"
	"github.com/pestrie/pestrie/internal/pesindex"
	"github.com/pestrie/pestrie/internal/storage"
	"github.com/pestrie/pestrie/pkg/config"
	apperrors "github.com/pestrie/pestrie/pkg/errors"
)

var (
	// Query command flags
	queryInputFile    string
	queryConfigFile   string
	queryPlanFile     string
	queryType         string
	queryNQuery       int
	queryPrintAnswers bool
	queryDoProfile    bool
	queryFormat       string
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Answer alias/points-to/conflict queries against a PesTrie index",
	Long: `Load a PesTrie binary index and answer queries against it.

With --plan, queries are read from a query-plan file of
whitespace-separated pointer or object ids. Without --plan, queries are simulated: random ids
are drawn (or, for the side-effect query types, every pointer is
visited once in order) and dispatched against the index.`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	binName := BinName()
	queryCmd.Example = fmt.Sprintf(`  # Replay a query plan of alias pairs
  %s query -i ./pt.idx --plan ./plan.txt -t is_alias

  # Simulate 5000 random points-to queries
  %s query -i ./pt.idx -t list_points_to -n 5000

  # Report index load statistics alongside a conflict query
  %s query -i ./se.idx -t list_conflicts --profile`,
		binName, binName, binName)

	queryCmd.Flags().StringVarP(&queryInputFile, "input", "i", "", "Index file to load (required)")
	queryCmd.Flags().StringVarP(&queryConfigFile, "config", "c", "", "Optional config file (storage backend, defaults)")
	queryCmd.Flags().StringVar(&queryPlanFile, "plan", "", "Query plan file (omit for simulation mode)")
	queryCmd.Flags().StringVarP(&queryType, "type", "t", "is_alias", fmt.Sprintf("Query type: %v", driver.All()))
	queryCmd.Flags().IntVarP(&queryNQuery, "n-query", "n", 1000, "Number of simulated queries (ignored in plan mode)")
	queryCmd.Flags().BoolVar(&queryPrintAnswers, "print-answers", false, "Print each query's answer (plan mode only; simulated queries are not printed)")
	queryCmd.Flags().StringVar(&queryFormat, "format", "text", "Answer format with --print-answers: text or json")
	queryCmd.Flags().BoolVar(&queryDoProfile, "profile", false, "Print index load statistics before querying")
	queryCmd.MarkFlagRequired("input")
}

func runQuery(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	cfg, err := loadQueryConfig()
	if err != nil {
		return err
	}

	qt, err := driver.Parse(queryType)
	if err != nil {
		return err
	}

	st, err := storage.NewStorage(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}

	log.Info("Loading index: %s", queryInputFile)
	idx, err := pesindex.Load(context.Background(), st, queryInputFile)
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}

	if queryDoProfile {
		stats := idx.Stats()
		log.Info("Index type:        %s", stats.Type)
		log.Info("Trees:             %d", stats.Trees)
		log.Info("Nodes:             %d", stats.Nodes)
		log.Info("Max pointer equivalence set: %d", stats.MaxPointerEquivalenceSet)
		log.Info("Load duration:     %s", stats.LoadDuration)
	}

	planFile := queryPlanFile
	if planFile == "" {
		planFile = cfg.Query.PlanFile
	}
	nQuery := queryNQuery
	if !cmd.Flags().Changed("n-query") && cfg.Query.NQuery > 0 {
		nQuery = cfg.Query.NQuery
	}

	if queryFormat != "text" && queryFormat != "json" {
		return fmt.Errorf("invalid --format %q (valid: text, json)", queryFormat)
	}

	summary, err := driver.Run(idx, driver.Options{
		Type:         qt,
		PlanFile:     planFile,
		NQuery:       nQuery,
		PrintAnswers: queryPrintAnswers || cfg.Query.PrintAnswers,
		Format:       queryFormat,
		Logger:       log,
	})
	if err != nil {
		// A missing plan file or an incompatible query type is reported, not fatal.
		if apperrors.IsPlanOpenError(err) || apperrors.IsIncompatibleQueryError(err) {
			log.Warn("%v", err)
			return nil
		}
		return err
	}

	log.Info("Query type:        %s", summary.Type.Label())
	log.Info("Queries run:       %d", summary.QueriesRun)
	if summary.OutOfRangeSkipped > 0 {
		log.Info("Out-of-range skipped: %d", summary.OutOfRangeSkipped)
	}
	log.Info("Aggregate answer:  %d", summary.Answer)
	log.Info("Query duration:    %s", summary.QueryDuration)

	return nil
}

// loadQueryConfig loads configuration from --config if given, otherwise
// falls back to the library's defaults (local storage rooted at ".").
func loadQueryConfig() (*config.Config, error) {
	if queryConfigFile != "" {
		if _, err := os.Stat(queryConfigFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", queryConfigFile)
		}
		return config.Load(queryConfigFile)
	}
	return config.Load("")
}
