package ingest

import (
	"context"
	"fmt"
	"sync"

	engineerrors "github.com/nans28/eywa/internal/errors"
	"github.com/nans28/eywa/internal/registry"
)

// DefaultQueueCapacity bounds the number of pending documents an
// AsyncRunner holds across every in-flight job at once (spec.md §5:
// "Ingest queues have a bounded capacity (default 1,024 pending
// documents)").
const DefaultQueueCapacity = 1024

// AsyncRunner runs Pipeline.Ingest in a background goroutine per job,
// tracking progress in a registry.JobRegistry and supporting cooperative
// cancellation checked between documents only (spec.md §4.6), the way
// the teacher's async.BackgroundIndexer runs one IndexFunc in a goroutine
// behind a stop channel, generalized here to a keyed set of jobs.
type AsyncRunner struct {
	pipeline *Pipeline
	jobs     *registry.JobRegistry
	capacity int

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	pending int
}

// NewAsyncRunner wires a Pipeline and the Job Registry it reports to,
// using DefaultQueueCapacity.
func NewAsyncRunner(pipeline *Pipeline, jobs *registry.JobRegistry) *AsyncRunner {
	return NewAsyncRunnerWithCapacity(pipeline, jobs, DefaultQueueCapacity)
}

// NewAsyncRunnerWithCapacity wires a Pipeline and Job Registry with an
// explicit pending-document capacity, for tests that need to exercise
// the Busy path without queueing 1,024 real documents.
func NewAsyncRunnerWithCapacity(pipeline *Pipeline, jobs *registry.JobRegistry, capacity int) *AsyncRunner {
	return &AsyncRunner{pipeline: pipeline, jobs: jobs, capacity: capacity, cancels: make(map[string]context.CancelFunc)}
}

// Queue creates a job, starts ingesting docs in the background, and
// returns the job_id immediately (spec.md §4.6: "queue(source_id, docs)
// -> JobId"). It returns a Busy error without creating a job if docs
// would push the number of pending documents across every in-flight job
// past the runner's capacity.
func (a *AsyncRunner) Queue(ctx context.Context, sourceID string, docs []*DocInput) (string, error) {
	a.mu.Lock()
	if a.pending+len(docs) > a.capacity {
		a.mu.Unlock()
		return "", engineerrors.Busy(fmt.Sprintf("ingest queue is full: %d pending, capacity %d", a.pending, a.capacity), nil)
	}
	a.pending += len(docs)
	a.mu.Unlock()

	job := a.jobs.Create(sourceID, len(docs))

	runCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancels[job.JobID] = cancel
	a.mu.Unlock()

	go a.run(runCtx, job.JobID, sourceID, docs)
	return job.JobID, nil
}

// Cancel requests cancellation of a running job. The pipeline finishes
// whichever document is in flight and stops before starting the next one.
func (a *AsyncRunner) Cancel(jobID string) {
	a.mu.Lock()
	cancel, ok := a.cancels[jobID]
	a.mu.Unlock()
	if ok {
		cancel()
	}
}

func (a *AsyncRunner) run(ctx context.Context, jobID, sourceID string, docs []*DocInput) {
	defer func() {
		a.mu.Lock()
		delete(a.cancels, jobID)
		a.pending -= len(docs)
		a.mu.Unlock()
	}()

	a.jobs.SetRunning(jobID)

	var completed, failed int
	for _, in := range docs {
		select {
		case <-ctx.Done():
			a.jobs.Finish(jobID, "cancelled")
			return
		default:
		}

		a.jobs.UpdateProgress(jobID, completed, failed, in.Title)
		result := a.pipeline.ingestOne(ctx, sourceID, in)
		if result.Status == DocFailed {
			failed++
		} else {
			completed++
		}
		a.jobs.UpdateProgress(jobID, completed, failed, in.Title)
	}

	a.jobs.Finish(jobID, "")
}
