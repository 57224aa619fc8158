package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/helixir/literature-retrieval-service/internal/domain"
	"github.com/helixir/literature-retrieval-service/internal/observability"
	"github.com/helixir/literature-retrieval-service/internal/papersources"
	"github.com/helixir/literature-retrieval-service/internal/retrieval"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the literature for papers matching a query",
	Long: `Search resolves a free-text query to records through the configured
strategy (direct, remote or arxiv) and prints them in relevance order. The
direct and remote strategies return PubMed records and arxiv returns arXiv
preprints. Records are deduplicated by identifier (PMID or arXiv id); absent
titles, abstracts and journals are replaced by fixed placeholders.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		maxResults, _ := cmd.Flags().GetInt("max-results")
		asJSON, _ := cmd.Flags().GetBool("json")
		verbose, _ := cmd.Flags().GetBool("verbose")
		strategy, _ := cmd.Flags().GetString("strategy")

		if maxResults <= 0 {
			maxResults = cfg.Retrieval.DefaultMaxResults
		}
		if strategy != "" {
			cfg.Retrieval.Strategy = strategy
		}

		// Results go to stdout; only warnings and errors reach stderr by default.
		logCfg := observability.LoggingConfig{
			Level:      "warn",
			Format:     "console",
			Output:     "stderr",
			TimeFormat: cfg.Logging.TimeFormat,
		}
		if verbose {
			logCfg.Level = "debug"
		}
		logger := observability.NewLogger(logCfg)

		retriever, err := retrieval.Select(cfg, nil, logger)
		if err != nil {
			return err
		}

		ctx := observability.WithRequestID(cmd.Context(), uuid.NewString())
		if cfg.Retrieval.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Retrieval.RequestTimeout)
			defer cancel()
		}

		return runSearch(ctx, cmd.OutOrStdout(), retriever, query, maxResults, asJSON)
	},
}

func init() {
	searchCmd.Flags().StringP("query", "q", "", "free-text search query")
	searchCmd.Flags().IntP("max-results", "n", 0, "maximum number of results (default from retrieval.default_max_results)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("strategy", "", "override retrieval.strategy (direct, remote, arxiv)")
	searchCmd.Flags().BoolP("verbose", "v", false, "log retrieval stages to stderr")
	_ = searchCmd.MarkFlagRequired("query")

	rootCmd.AddCommand(searchCmd)
}

// runSearch performs one retrieval and writes the records to w.
func runSearch(ctx context.Context, w io.Writer, retriever papersources.Retriever, query string, maxResults int, asJSON bool) error {
	papers, err := retriever.SearchLiterature(ctx, query, maxResults)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if papers == nil {
		papers = []domain.Paper{}
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"results": papers,
			"count":   len(papers),
		})
	}
	return writeTable(w, papers)
}

// writeTable prints one line per record followed by a count.
func writeTable(w io.Writer, papers []domain.Paper) error {
	if len(papers) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tYEAR\tJOURNAL\tAUTHORS\tTITLE")
	for _, p := range papers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.ID,
			p.Year,
			shorten(p.Journal, 30),
			shorten(authorSummary(p.Authors), 30),
			shorten(p.Title, 80),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d result(s)\n", len(papers))
	return err
}

func authorSummary(authors []string) string {
	switch len(authors) {
	case 0:
		return "-"
	case 1, 2:
		return strings.Join(authors, ", ")
	default:
		return authors[0] + " et al."
	}
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
