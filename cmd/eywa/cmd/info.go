package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newInfoCmd implements `info` (spec.md §6).
func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show configuration and aggregate content counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			info := e.Info()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "content_root:    %s\n", info.ContentRoot)
			fmt.Fprintf(out, "embedding_model: %s\n", info.EmbeddingModel)
			fmt.Fprintf(out, "reranker_model:  %s\n", info.RerankerModel)
			fmt.Fprintf(out, "device:          %s\n", info.Device)
			fmt.Fprintf(out, "sources:         %d\n", info.SourceCount)
			fmt.Fprintf(out, "documents:       %d\n", info.DocCount)
			fmt.Fprintf(out, "chunks:          %d\n", info.ChunkCount)
			return nil
		},
	}
}
