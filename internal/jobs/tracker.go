package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/whatfix/ticket-analyzer/backend/internal/models"
)

// ErrNotFound is returned for polls and cleanups against unknown or
// already-cleaned job ids.
var ErrNotFound = errors.New("analysis job not found")

const janitorInterval = time.Minute

// RunFunc is one background analysis. It receives its assigned job id,
// reports per-ticket progress through report, and returns the compiled
// results or a terminal error.
type RunFunc func(ctx context.Context, jobID string, report func(current int)) (models.AnalysisResults, error)

type job struct {
	snapshot   models.AnalysisJob
	cancel     context.CancelFunc
	finishedAt time.Time
}

// Tracker owns the process-wide table of analysis jobs. It is the only
// shared mutable state between the HTTP boundary and the pipelines.
type Tracker struct {
	mu     sync.RWMutex
	jobs   map[string]*job
	ttl    time.Duration
	logger zerolog.Logger
	done   chan struct{}
	wg     sync.WaitGroup
}

// New creates a tracker and starts the TTL janitor. Terminal jobs that
// are never cleaned up are swept once they are older than ttl; a ttl of
// zero disables sweeping.
func New(ttl time.Duration, logger zerolog.Logger) *Tracker {
	t := &Tracker{
		jobs:   map[string]*job{},
		ttl:    ttl,
		logger: logger,
		done:   make(chan struct{}),
	}
	if ttl > 0 {
		t.wg.Add(1)
		go t.janitor()
	}
	return t
}

// Close stops the janitor. Running jobs keep their goroutines until
// they observe cancellation or finish.
func (t *Tracker) Close() {
	close(t.done)
	t.wg.Wait()
}

// Submit registers a new job over total tickets and launches run in its
// own goroutine. The returned id is immediately pollable with
// status=processing and current_ticket=0.
func (t *Tracker) Submit(total int, run RunFunc) (string, error) {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	t.mu.Lock()
	if _, exists := t.jobs[id]; exists {
		t.mu.Unlock()
		cancel()
		return "", fmt.Errorf("job id collision: %s", id)
	}
	t.jobs[id] = &job{
		snapshot: models.AnalysisJob{
			JobID:        id,
			Status:       models.JobStatusProcessing,
			TotalTickets: total,
		},
		cancel: cancel,
	}
	t.mu.Unlock()

	go t.execute(ctx, id, run)
	return id, nil
}

// Poll returns a snapshot copy of the job. After completion it keeps
// serving the cached results until cleanup or the TTL sweep.
func (t *Tracker) Poll(id string) (models.AnalysisJob, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	j, ok := t.jobs[id]
	if !ok {
		return models.AnalysisJob{}, ErrNotFound
	}
	return j.snapshot, nil
}

// Cleanup cancels the job's context and removes its record. Cancellation
// is cooperative: an in-flight pipeline stops at its next checkpoint and
// its results are discarded. Repeated cleanups fail with ErrNotFound.
func (t *Tracker) Cleanup(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[id]
	if !ok {
		return ErrNotFound
	}
	j.cancel()
	delete(t.jobs, id)
	return nil
}

func (t *Tracker) execute(ctx context.Context, id string, run RunFunc) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error().Str("job_id", id).Any("panic", r).Msg("analysis pipeline panicked")
			t.finish(id, models.AnalysisJob{
				Status: models.JobStatusError,
				Error:  fmt.Sprintf("internal error: %v", r),
			})
		}
	}()

	report := func(current int) {
		t.progress(id, current)
	}

	results, err := run(ctx, id, report)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Cleaned up mid-flight; the record is already gone.
			return
		}
		t.finish(id, models.AnalysisJob{
			Status: models.JobStatusError,
			Error:  err.Error(),
		})
		return
	}

	t.finish(id, models.AnalysisJob{
		Status:  models.JobStatusCompleted,
		Results: &results,
	})
}

func (t *Tracker) progress(id string, current int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[id]
	if !ok || j.snapshot.Status != models.JobStatusProcessing {
		return
	}
	if current < j.snapshot.CurrentTicket {
		return
	}
	j.snapshot.CurrentTicket = current
	if j.snapshot.TotalTickets > 0 {
		j.snapshot.ProgressPercentage = float64(current) / float64(j.snapshot.TotalTickets) * 100
	}
}

func (t *Tracker) finish(id string, terminal models.AnalysisJob) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[id]
	if !ok {
		return
	}
	j.snapshot.Status = terminal.Status
	j.snapshot.Error = terminal.Error
	j.snapshot.Results = terminal.Results
	if terminal.Status == models.JobStatusCompleted {
		j.snapshot.CurrentTicket = j.snapshot.TotalTickets
		j.snapshot.ProgressPercentage = 100
	}
	j.finishedAt = time.Now()
}

func (t *Tracker) janitor() {
	defer t.wg.Done()
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.sweep(time.Now())
		}
	}
}

// sweep removes terminal jobs older than the TTL. In-flight jobs are
// never swept.
func (t *Tracker) sweep(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, j := range t.jobs {
		if j.snapshot.Status == models.JobStatusProcessing {
			continue
		}
		if now.Sub(j.finishedAt) > t.ttl {
			j.cancel()
			delete(t.jobs, id)
			t.logger.Info().Str("job_id", id).Msg("expired analysis job swept")
		}
	}
}
