package cmd

import (
	"regexp"

	"github.com/spf13/cobra"

	engineerrors "github.com/nans28/eywa/internal/errors"
	"github.com/nans28/eywa/internal/logging"
)

// newLogsCmd implements `eywa logs`: tails (and optionally follows) the
// debug log written by --debug (spec.md §6's CLI surface), for inspecting
// an `eywa serve`/`eywa mcp` process without reaching for a text editor.
func newLogsCmd() *cobra.Command {
	var file string
	var lines int
	var level string
	var pattern string
	var follow bool
	var noColor bool
	var showSource bool

	c := &cobra.Command{
		Use:   "logs",
		Short: "Tail or follow the debug log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := logging.FindLogFile(file)
			if err != nil {
				return engineerrors.InvalidInput(err.Error(), err)
			}

			var compiled *regexp.Regexp
			if pattern != "" {
				compiled, err = regexp.Compile(pattern)
				if err != nil {
					return engineerrors.InvalidInput("invalid --match pattern", err)
				}
			}

			v := logging.NewViewer(logging.ViewerConfig{
				Level:      level,
				Pattern:    compiled,
				NoColor:    noColor,
				ShowSource: showSource,
			}, cmd.OutOrStdout())

			entries, err := v.Tail(path, lines)
			if err != nil {
				return engineerrors.Internal("tail log file", err)
			}
			v.Print(entries)

			if !follow {
				return nil
			}

			ch := make(chan logging.LogEntry)
			go func() {
				for entry := range ch {
					v.Print([]logging.LogEntry{entry})
				}
			}()
			return v.Follow(cmd.Context(), path, ch)
		},
	}

	c.Flags().StringVar(&file, "file", "", "log file path (default ~/.eywa/logs/server.log)")
	c.Flags().IntVarP(&lines, "lines", "n", 100, "number of lines to show initially")
	c.Flags().StringVar(&level, "level", "", "minimum level to show (debug, info, warn, error)")
	c.Flags().StringVar(&pattern, "match", "", "only show lines whose raw text matches this regexp")
	c.Flags().BoolVarP(&follow, "follow", "f", false, "keep watching the log file for new entries")
	c.Flags().BoolVar(&noColor, "no-color", false, "disable ANSI colors")
	c.Flags().BoolVar(&showSource, "show-source", false, "show the log source label")
	return c
}
