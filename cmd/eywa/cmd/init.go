package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nans28/eywa/internal/config"
	"github.com/nans28/eywa/internal/output"
)

// newInitCmd initializes the on-disk layout and settings file (spec.md
// §6), grounded on the teacher's init command in shape only: no Ollama
// lifecycle management or editor auto-configuration, since eywa is a
// generic retrieval engine rather than a codebase-search tool that needs
// to wire itself into an external assistant.
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the content root's on-disk layout and settings file",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := output.New(cmd.OutOrStdout())

			root := contentRoot
			if root == "" {
				root = config.DefaultRoot()
			}

			cfg, err := config.Load(root)
			if err != nil {
				return err
			}
			if err := cfg.EnsureLayout(); err != nil {
				return err
			}

			backupPath, err := config.BackupConfig(root)
			if err != nil {
				return err
			}
			if backupPath != "" {
				w.Status("", "backed up existing config to "+backupPath)
			}

			if err := cfg.WriteTOML(config.ConfigPath(root)); err != nil {
				return err
			}

			w.Successf("initialized %s", root)
			w.Status("", "embedding model: "+cfg.EmbeddingModel.ID)
			w.Status("", "reranker model: "+cfg.RerankerModel.ID)
			return nil
		},
	}
}
