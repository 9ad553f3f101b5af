package cmd

import (
	"github.com/spf13/cobra"

	engineerrors "github.com/nans28/eywa/internal/errors"
	"github.com/nans28/eywa/internal/logging"
	"github.com/nans28/eywa/internal/mcp"
)

// newMCPCmd implements `mcp` (spec.md §6): a stdio JSON-RPC front end over
// the same Engine the CLI and HTTP front ends share. stdout is reserved
// exclusively for the JSON-RPC stream, so logging is redirected to file
// only, mirroring the teacher's own MCP-mode logging discipline.
func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP (Model Context Protocol) stdio interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := logging.SetupMCPMode()
			if err != nil {
				return engineerrors.Internal("set up MCP-mode logging", err)
			}
			defer cleanup()

			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			server := mcp.NewServer(e)
			if err := server.RegisterResources(cmd.Context()); err != nil {
				return engineerrors.Internal("register MCP resources", err)
			}

			return server.Serve(cmd.Context())
		},
	}
}
