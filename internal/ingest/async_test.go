package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engineerrors "github.com/nans28/eywa/internal/errors"
	"github.com/nans28/eywa/internal/registry"
)

func waitForTerminal(t *testing.T, jobs *registry.JobRegistry, jobID string) registry.Job {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		job, ok := jobs.Get(jobID)
		require.True(t, ok)
		if job.Status == registry.JobDone || job.Status == registry.JobFailed {
			return job
		}
		select {
		case <-deadline:
			t.Fatal("job did not reach a terminal state in time")
		case <-time.After(time.Millisecond):
		}
	}
}

// TS01: Queue runs ingestion in the background and the job reaches done
// with the right completed count.
func TestAsyncRunner_Queue_CompletesJob(t *testing.T) {
	p := newTestPipeline(t)
	jobs := registry.NewJobRegistry(time.Hour)
	t.Cleanup(jobs.Stop)
	runner := NewAsyncRunner(p, jobs)

	jobID, err := runner.Queue(context.Background(), "docs", []*DocInput{
		{Title: "One", Content: "first async document body", MimeHint: "text/plain"},
		{Title: "Two", Content: "second async document body", MimeHint: "text/plain"},
	})
	require.NoError(t, err)

	job := waitForTerminal(t, jobs, jobID)
	assert.Equal(t, registry.JobDone, job.Status)
	assert.Equal(t, 2, job.Completed)
	assert.Equal(t, 0, job.Failed)
}

// TS02: Cancel stops the run before later documents are processed.
func TestAsyncRunner_Cancel_StopsBeforeNextDocument(t *testing.T) {
	p := newTestPipeline(t)
	jobs := registry.NewJobRegistry(time.Hour)
	t.Cleanup(jobs.Stop)
	runner := NewAsyncRunner(p, jobs)

	docs := make([]*DocInput, 0, 20)
	for i := 0; i < 20; i++ {
		docs = append(docs, &DocInput{Title: "doc", Content: "distinct body text number padding here", MimeHint: "text/plain"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancelled before the background run ever starts its loop

	jobID, err := runner.Queue(ctx, "docs", docs)
	require.NoError(t, err)

	job := waitForTerminal(t, jobs, jobID)
	assert.Equal(t, registry.JobFailed, job.Status)
	assert.Equal(t, "cancelled", job.Error)
}

// TS03: Queue rejects a batch that would exceed the runner's pending
// capacity with a Busy error, and does not create a job for it.
func TestAsyncRunner_Queue_RejectsOverCapacityBatch(t *testing.T) {
	p := newTestPipeline(t)
	jobs := registry.NewJobRegistry(time.Hour)
	t.Cleanup(jobs.Stop)
	runner := NewAsyncRunnerWithCapacity(p, jobs, 1)

	docs := []*DocInput{
		{Title: "One", Content: "first document body", MimeHint: "text/plain"},
		{Title: "Two", Content: "second document body", MimeHint: "text/plain"},
	}

	jobID, err := runner.Queue(context.Background(), "docs", docs)
	require.Error(t, err)
	assert.Empty(t, jobID)
	assert.Equal(t, engineerrors.CodeBusy, engineerrors.GetCode(err))
}
