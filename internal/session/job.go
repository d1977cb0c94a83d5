package session

import (
	"context"
	"sync"
	"time"

	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// Status is the lifecycle state of a run.
type Status string

// Run states.
const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Snapshot is a point-in-time copy of a job's state.
type Snapshot struct {
	ID         string         `json:"id"`
	Status     Status         `json:"status"`
	Current    int            `json:"current"`
	Total      int            `json:"total"`
	Error      string         `json:"error,omitempty"`
	Kind       core.ErrorKind `json:"kind,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at,omitzero"`
}

// Done reports whether the run has stopped.
func (s Snapshot) Done() bool { return s.Status != StatusRunning }

// Job is one background analysis run. The session id of a successful run
// is its cache key.
type Job struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	snap Snapshot
}

func newJob(id string, cancel context.CancelFunc) *Job {
	return &Job{
		id:     id,
		cancel: cancel,
		done:   make(chan struct{}),
		snap:   Snapshot{ID: id, Status: StatusRunning, StartedAt: time.Now()},
	}
}

// ID returns the session id.
func (j *Job) ID() string { return j.id }

// Snapshot returns the current state.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snap
}

// Done is closed once the run has stopped.
func (j *Job) Done() <-chan struct{} { return j.done }

// Cancel requests the run to stop. It is a no-op once the run is done.
func (j *Job) Cancel() { j.cancel() }

func (j *Job) progress(current, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.snap.Current = current
	j.snap.Total = total
}

func (j *Job) finish(err error) {
	j.mu.Lock()
	switch kind := core.Kind(err); kind {
	case "":
		j.snap.Status = StatusSucceeded
		j.snap.Current = j.snap.Total
	case core.KindCancelled:
		j.snap.Status = StatusCancelled
		j.snap.Kind = kind
	default:
		j.snap.Status = StatusFailed
		j.snap.Kind = kind
		j.snap.Error = err.Error()
	}
	j.snap.FinishedAt = time.Now()
	j.mu.Unlock()
	close(j.done)
}
