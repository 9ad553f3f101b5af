package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	engineerrors "github.com/nans28/eywa/internal/errors"
	"github.com/nans28/eywa/internal/ingest"
	"github.com/nans28/eywa/internal/output"
)

// newIngestCmd implements `ingest -s <src> <path>` (spec.md §6): path may
// name a single file or a directory, walked recursively. Each file becomes
// one DocInput, its Title set to the basename so internal/ingest's
// extension-based mime classification (internal/ingest/mime.go) applies
// without an explicit --mime flag per file.
func newIngestCmd() *cobra.Command {
	var sourceID string
	var async bool

	c := &cobra.Command{
		Use:   "ingest <path>",
		Short: "Ingest a file or directory into a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sourceID == "" {
				return engineerrors.InvalidInput("--source is required", nil)
			}

			docs, err := collectDocs(args[0])
			if err != nil {
				return err
			}

			e, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			w := output.New(cmd.OutOrStdout())

			if async {
				jobID, err := e.IngestAsync(cmd.Context(), sourceID, docs)
				if err != nil {
					return err
				}
				w.Successf("queued %d document(s), job_id=%s", len(docs), jobID)
				return nil
			}

			report, err := e.IngestSync(cmd.Context(), sourceID, docs)
			if err != nil {
				return err
			}
			w.Successf("indexed=%d deduplicated=%d failed=%d", report.Indexed, report.Deduplicated, report.Failed)
			for _, r := range report.Results {
				if r.Status == ingest.DocFailed {
					w.Warningf("%s: %s", r.Title, r.Error)
				}
			}
			return nil
		},
	}

	c.Flags().StringVarP(&sourceID, "source", "s", "", "source_id to ingest into (required)")
	c.Flags().BoolVar(&async, "async", false, "queue the batch and return a job_id immediately")
	return c
}

func collectDocs(path string) ([]*ingest.DocInput, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, engineerrors.InvalidInput("path does not exist: "+path, err)
	}

	var paths []string
	if info.IsDir() {
		err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				paths = append(paths, p)
			}
			return nil
		})
		if err != nil {
			return nil, engineerrors.InvalidInput("walk "+path, err)
		}
	} else {
		paths = []string{path}
	}

	docs := make([]*ingest.DocInput, 0, len(paths))
	for _, p := range paths {
		doc, err := readDoc(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func readDoc(path string) (*ingest.DocInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, engineerrors.InvalidInput("read "+path, err)
	}

	title := filepath.Base(path)
	if strings.ToLower(filepath.Ext(path)) == ".pdf" {
		return &ingest.DocInput{Title: title, PDFBytes: data, MimeHint: "application/pdf"}, nil
	}
	return &ingest.DocInput{Title: title, Content: string(data)}, nil
}
