package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nans28/eywa/internal/search"
)

// newSearchCmd implements `search <query>` (spec.md §6/§4.7).
func newSearchCmd() *cobra.Command {
	var limit int
	var sources []string
	var similarTo string

	c := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the index, or find documents similar to one (--similar-to)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			var hits []search.SearchHit
			if similarTo != "" {
				hits, err = e.SimilarDocuments(cmd.Context(), similarTo, limit)
			} else if len(args) == 1 {
				hits, err = e.Query(cmd.Context(), args[0], limit, sources)
			} else {
				return fmt.Errorf("search requires a query argument or --similar-to")
			}
			if err != nil {
				return err
			}

			printHits(cmd, hits)
			return nil
		},
	}

	c.Flags().IntVarP(&limit, "limit", "n", search.DefaultLimit, "maximum number of results")
	c.Flags().StringSliceVar(&sources, "sources", nil, "restrict to these source_ids")
	c.Flags().StringVar(&similarTo, "similar-to", "", "doc_id to find similar documents for, instead of a text query")
	return c
}

func printHits(cmd *cobra.Command, hits []search.SearchHit) {
	out := cmd.OutOrStdout()
	if len(hits) == 0 {
		fmt.Fprintln(out, "no results")
		return
	}
	for i, h := range hits {
		fmt.Fprintf(out, "%d. [%.4f] %s (%s/%s)\n", i+1, h.FinalScore, h.Title, h.SourceID, h.DocID)
		fmt.Fprintf(out, "   %s\n", strings.ReplaceAll(h.BodySnippet, "\n", " "))
	}
}
