package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultReapInterval is how often the reaper goroutine sweeps for expired
// terminal jobs.
const defaultReapInterval = 1 * time.Minute

// JobRegistry tracks async ingest jobs in memory, keyed by job_id. Terminal
// jobs (done/failed) are evicted a bounded TTL after they finish (spec.md
// §3: "retained for a bounded TTL"), mirroring the lock-file lifecycle of
// the teacher's BackgroundIndexer generalized from one in-flight job to a
// keyed set with a periodic reaper.
type JobRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	ttl  time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewJobRegistry creates a registry retaining terminal jobs for ttl and
// starts its reaper goroutine. Call Stop to release it.
func NewJobRegistry(ttl time.Duration) *JobRegistry {
	r := &JobRegistry{
		jobs:   make(map[string]*Job),
		ttl:    ttl,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go r.reap()
	return r
}

// Create registers a new pending job for sourceID with the given document
// total and returns it.
func (r *JobRegistry) Create(sourceID string, total int) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	job := &Job{
		JobID:     uuid.NewString(),
		SourceID:  sourceID,
		Status:    JobPending,
		Total:     total,
		StartedAt: time.Now().UTC(),
	}
	r.jobs[job.JobID] = job
	return job
}

// Get returns a copy of the job for jobID, or false if it is unknown
// (never created, or already reaped past its TTL).
func (r *JobRegistry) Get(jobID string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// SetRunning transitions a job to running.
func (r *JobRegistry) SetRunning(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[jobID]; ok {
		j.Status = JobRunning
	}
}

// UpdateProgress records progress at a document boundary (spec.md §4.6:
// "updates completed, failed, current_doc at each document boundary").
func (r *JobRegistry) UpdateProgress(jobID string, completed, failed int, currentDoc string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[jobID]; ok {
		j.Completed = completed
		j.Failed = failed
		j.CurrentDoc = currentDoc
	}
}

// Finish marks a job done (errMsg == "") or failed, recording FinishedAt.
func (r *JobRegistry) Finish(jobID string, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return
	}
	j.FinishedAt = time.Now().UTC()
	if errMsg != "" {
		j.Status = JobFailed
		j.Error = errMsg
		return
	}
	j.Status = JobDone
}

// reap evicts terminal jobs past their TTL on a fixed interval, the way
// embed.DownloadWithRetry loops on a timer guarded by a cancellation
// channel, generalized here from a one-shot backoff to a recurring sweep.
func (r *JobRegistry) reap() {
	defer close(r.doneCh)

	ticker := time.NewTicker(defaultReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *JobRegistry) sweep() {
	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, j := range r.jobs {
		if j.terminal() && now.Sub(j.FinishedAt) > r.ttl {
			delete(r.jobs, id)
		}
	}
}

// Stop halts the reaper goroutine. Safe to call multiple times.
func (r *JobRegistry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		<-r.doneCh
	})
}
