package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nans28/eywa/internal/output"
)

// newResetCmd implements `reset` (spec.md §6): deletes every document
// across every source.
func newResetCmd() *cobra.Command {
	var yes bool

	c := &cobra.Command{
		Use:   "reset",
		Short: "Delete all content across every source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := output.New(cmd.OutOrStdout())
			if !yes {
				w.Warning("reset deletes all content; pass --yes to confirm")
				return nil
			}

			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.Reset(cmd.Context()); err != nil {
				return err
			}
			w.Success("reset complete")
			return nil
		},
	}

	c.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return c
}
