package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nans28/eywa/internal/output"
)

// newDeleteCmd implements `delete <src>` (spec.md §6): deletes every
// document in a source and the source record itself. --doc supplements
// this with single-document deletion, since the Engine already exposes it
// and a CLI that can ingest one file shouldn't be unable to remove one.
func newDeleteCmd() *cobra.Command {
	var docID string

	c := &cobra.Command{
		Use:   "delete <source>",
		Short: "Delete a source and all its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			w := output.New(cmd.OutOrStdout())

			if docID != "" {
				if err := e.DeleteDocument(cmd.Context(), docID); err != nil {
					return err
				}
				w.Successf("deleted document %s", docID)
				return nil
			}

			if err := e.DeleteSource(cmd.Context(), args[0]); err != nil {
				return err
			}
			w.Successf("deleted source %s", args[0])
			return nil
		},
	}

	c.Flags().StringVar(&docID, "doc", "", "delete a single document by doc_id instead of the whole source")
	return c
}
