package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/nans28/eywa/internal/httpapi"
	"github.com/nans28/eywa/internal/output"
)

// newServeCmd implements `serve -p <port>` (spec.md §6): an HTTP front end
// over the same Engine the CLI and MCP front ends share.
func newServeCmd() *cobra.Command {
	var port int

	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			server := httpapi.NewServer(e)
			addr := fmt.Sprintf(":%d", port)

			w := output.New(cmd.OutOrStdout())
			w.Statusf("listening on %s", addr)
			return http.ListenAndServe(addr, server)
		},
	}

	c.Flags().IntVarP(&port, "port", "p", 8765, "HTTP listen port")
	return c
}
