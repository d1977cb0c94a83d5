// Package session runs analyses in the background and keeps the state a
// browser session accumulates: its validated upload, its runs and the last
// neighborhood it looked at.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dysregnet/dysregnet-explorer/internal/analysis"
	"github.com/dysregnet/dysregnet-explorer/internal/neighborhood"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

// DefaultJobTTL is how long finished jobs stay queryable.
const DefaultJobTTL = time.Hour

// cachePutTimeout bounds the cache write of a finished run.
const cachePutTimeout = 30 * time.Second

// ErrUnknownJob is returned for session ids with no job.
var ErrUnknownJob = errors.New("unknown run")

// Runner executes one analysis.
type Runner interface {
	Run(ctx context.Context, in analysis.Inputs, params core.Parameters, progress analysis.ProgressFunc) (*core.Result, error)
}

// Cache stores finished results.
type Cache interface {
	Put(ctx context.Context, sessionID string, result *core.Result, params core.Parameters) error
}

// Publisher is told whenever the job with the given session id changes.
type Publisher interface {
	Broadcast(topic string)
}

// Config configures a Manager.
type Config struct {
	Runner    Runner
	Cache     Cache
	Publisher Publisher
	JobTTL    time.Duration
	Logger    *slog.Logger
	// NewID generates session ids. Defaults to random UUIDs.
	NewID func() string
}

// Manager owns every background run and per-browser state.
type Manager struct {
	runner    Runner
	cache     Cache
	publisher Publisher
	ttl       time.Duration
	logger    *slog.Logger
	newID     func() string

	base   context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	closed bool

	mu      sync.Mutex
	jobs    map[string]*Job
	uploads map[string]*Upload
	views   map[string]*neighborhood.View
}

// NewManager creates a Manager.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ttl := cfg.JobTTL
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	newID := cfg.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	base, stop := context.WithCancel(context.Background())
	return &Manager{
		runner:    cfg.Runner,
		cache:     cfg.Cache,
		publisher: cfg.Publisher,
		ttl:       ttl,
		logger:    logger,
		newID:     newID,
		base:      base,
		stop:      stop,
		jobs:      make(map[string]*Job),
		uploads:   make(map[string]*Upload),
		views:     make(map[string]*neighborhood.View),
	}
}

// Start launches a run in its own goroutine and returns immediately. The
// result is cached under the job's id on success only.
func (m *Manager) Start(in analysis.Inputs, params core.Parameters) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, errors.New("session manager is closed")
	}
	m.pruneLocked(time.Now())

	ctx, cancel := context.WithCancel(m.base)
	job := newJob(m.newID(), cancel)
	m.jobs[job.id] = job

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		m.run(ctx, job, in, params)
	}()

	m.logger.Info("run started", "session", job.id)
	return job, nil
}

func (m *Manager) run(ctx context.Context, job *Job, in analysis.Inputs, params core.Parameters) {
	result, err := m.runner.Run(ctx, in, params, func(current, total int) {
		job.progress(current, total)
		m.publish(job.id)
	})

	// Cancellation is decided here. Once the cache write starts it runs to
	// completion so a successful run is never half stored.
	if err == nil && ctx.Err() != nil {
		err = core.ErrCancelled
	}
	if err == nil {
		putCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cachePutTimeout)
		if perr := m.cache.Put(putCtx, job.id, result, params.WithDefaults()); perr != nil {
			err = fmt.Errorf("failed to cache result: %w", perr)
		}
		cancel()
	}

	job.finish(err)
	m.publish(job.id)
	snap := job.Snapshot()
	m.logger.Info("run finished", "session", job.id, "status", snap.Status, "kind", snap.Kind)
}

func (m *Manager) publish(id string) {
	if m.publisher != nil {
		m.publisher.Broadcast(id)
	}
}

// pruneLocked forgets jobs that finished more than ttl ago.
func (m *Manager) pruneLocked(now time.Time) {
	for id, j := range m.jobs {
		snap := j.Snapshot()
		if snap.Done() && now.Sub(snap.FinishedAt) > m.ttl {
			delete(m.jobs, id)
		}
	}
}

// Job returns the job with the given session id.
func (m *Manager) Job(id string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrUnknownJob
	}
	return j, nil
}

// Cancel stops the job with the given session id.
func (m *Manager) Cancel(id string) error {
	j, err := m.Job(id)
	if err != nil {
		return err
	}
	j.Cancel()
	return nil
}

// SetUpload replaces the pending upload of owner.
func (m *Manager) SetUpload(owner string, u *Upload) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads[owner] = u
}

// Upload returns the pending upload of owner, or nil.
func (m *Manager) Upload(owner string) *Upload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads[owner]
}

// View returns the last neighborhood owner assembled, or nil.
func (m *Manager) View(owner string) *neighborhood.View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.views[owner]
}

// SetView records the last neighborhood owner assembled.
func (m *Manager) SetView(owner string, v *neighborhood.View) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views[owner] = v
}

// Close cancels every running job and waits for them to stop.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.stop()
	m.wg.Wait()
}
