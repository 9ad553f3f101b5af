package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newDocsCmd implements `docs <src>` (spec.md §6).
func newDocsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docs <source>",
		Short: "List a source's documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			docs, err := e.ListDocuments(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				fmt.Fprintln(out, "no documents")
				return nil
			}
			for _, d := range docs {
				fmt.Fprintf(out, "%s  %-40s %-10s %d bytes\n", d.DocID, d.Title, d.ContentType, d.ByteLen)
			}
			return nil
		},
	}
}
