package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newSourcesCmd implements `sources` (spec.md §6).
func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List known sources and their document/chunk counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			srcs := e.ListSources()
			if len(srcs) == 0 {
				fmt.Fprintln(out, "no sources")
				return nil
			}
			for _, s := range srcs {
				fmt.Fprintf(out, "%-20s docs=%-6d chunks=%d\n", s.SourceID, s.DocCount, s.ChunkCount)
			}
			return nil
		},
	}
}
