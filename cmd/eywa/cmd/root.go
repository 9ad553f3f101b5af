// Package cmd provides the eywa CLI commands.
package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nans28/eywa/internal/config"
	engineerrors "github.com/nans28/eywa/internal/errors"
	"github.com/nans28/eywa/internal/logging"
	"github.com/nans28/eywa/internal/output"
	"github.com/nans28/eywa/pkg/eywa"
	"github.com/nans28/eywa/pkg/version"
)

var (
	contentRoot string
	offline     bool
	debugMode   bool

	loggingCleanup func()
)

// NewRootCmd builds the eywa root command and its subcommand tree:
// persistent flags, PersistentPreRunE/PostRunE hooks, and the subcommand
// list (spec.md §6). There is no "smart default" run, since eywa is a
// generic retrieval engine rather than an auto-configuring codebase-search
// tool.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "eywa",
		Short:         "Local-first hybrid retrieval engine",
		Long:          "eywa ingests documents into a hybrid dense+lexical index and serves search over it via CLI, HTTP, and MCP.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("eywa version {{.Version}}\n")

	root.PersistentFlags().StringVar(&contentRoot, "root", "", "content root directory (default ~/.eywa)")
	root.PersistentFlags().BoolVar(&offline, "offline", false, "use the deterministic offline runtime, no model server required")
	root.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to ~/.eywa/logs/")

	root.PersistentPreRunE = startLogging
	root.PersistentPostRunE = stopLogging

	root.AddCommand(
		newInitCmd(),
		newIngestCmd(),
		newSearchCmd(),
		newSourcesCmd(),
		newDocsCmd(),
		newDeleteCmd(),
		newResetCmd(),
		newServeCmd(),
		newMCPCmd(),
		newInfoCmd(),
		newLogsCmd(),
	)

	return root
}

func startLogging(*cobra.Command, []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return engineerrors.Internal("set up debug logging", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

func stopLogging(*cobra.Command, []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command and returns the process exit code (spec.md
// §6: 0 success, 1 user error, 2 engine failure).
func Execute() int {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		output.New(cmd.ErrOrStderr()).Error(err.Error())
		return exitCodeFor(err)
	}
	return 0
}

func exitCodeFor(err error) int {
	if code := engineerrors.GetCode(err); code != "" {
		return code.ExitCode()
	}
	return 1 // cobra-level usage errors (unknown flag, bad args) are user errors
}

// openEngine opens the embedded API against the --root/--offline flags
// shared by every data-touching subcommand.
func openEngine(ctx context.Context) (*eywa.Engine, error) {
	root := contentRoot
	if root == "" {
		root = config.DefaultRoot()
	}
	if offline {
		cfg, err := config.Load(root)
		if err != nil {
			return nil, err
		}
		return eywa.OpenOffline(cfg)
	}
	return eywa.Open(ctx, root)
}
