package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/genbridge/genbridge/internal/core/backend"
	"github.com/genbridge/genbridge/internal/core/job"
	"github.com/genbridge/genbridge/internal/core/state"
)

// Backend is the slice of the REST client the scheduler uses.
type Backend interface {
	ActiveJobs(ctx context.Context) ([]backend.JobRecord, error)
	LegacyActiveJobs(ctx context.Context) ([]backend.JobRecord, error)
	SystemStatus(ctx context.Context) (map[string]any, error)
}

// Scheduler is the pull fallback for the push channel. Each tick it
// fetches the system status, and the active-jobs snapshot while at
// least one job is tracked. A tick that arrives while the previous
// cycle is still outstanding is skipped, not queued.
type Scheduler struct {
	backend Backend
	queue   *state.Queue
	conn    *state.Connection

	mu     sync.Mutex
	cancel context.CancelFunc

	inFlight       atomic.Bool
	legacyDisabled atomic.Bool
}

func NewScheduler(b Backend, queue *state.Queue, conn *state.Connection) *Scheduler {
	return &Scheduler{backend: b, queue: queue, conn: conn}
}

// Start launches the poll loop. Idempotent.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx)
}

// Stop halts the loop and clears the in-flight guard. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.inFlight.Store(false)
}

func (s *Scheduler) run(ctx context.Context) {
	interval := s.conn.PollInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if next := s.conn.PollInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
			if !s.inFlight.CompareAndSwap(false, true) {
				continue
			}
			go func() {
				defer s.inFlight.Store(false)
				s.cycle(ctx)
			}()
		}
	}
}

// cycle runs one poll pass.
func (s *Scheduler) cycle(ctx context.Context) {
	if fields, err := s.backend.SystemStatus(ctx); err != nil {
		log.Debug().Err(err).Msg("system status poll failed")
	} else if ctx.Err() == nil {
		// A response racing Stop is dropped rather than merged after
		// teardown.
		s.conn.MergeSystem(fields)
	}

	if ctx.Err() != nil || s.queue.Len() == 0 {
		return
	}
	s.pollJobs(ctx)
}

func (s *Scheduler) pollJobs(ctx context.Context) {
	records, err := s.backend.ActiveJobs(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("active jobs poll failed")
		if s.legacyDisabled.Load() {
			return
		}
		records, err = s.backend.LegacyActiveJobs(ctx)
		if errors.Is(err, backend.ErrNotFound) {
			// The backend does not implement the legacy endpoint.
			// Latch it off for the rest of the session and rely on
			// the push channel alone.
			s.legacyDisabled.Store(true)
			log.Info().Msg("legacy job-status endpoint unavailable, disabling fallback")
			return
		}
		if err != nil {
			log.Debug().Err(err).Msg("legacy jobs poll failed")
			return
		}
	}

	if ctx.Err() != nil {
		return
	}
	jobs := make([]job.Job, 0, len(records))
	for _, rec := range records {
		jobs = append(jobs, rec.Canonical())
	}
	s.queue.Replace(jobs)
}

// LegacyDisabled reports whether the legacy fallback has been latched
// off for this session.
func (s *Scheduler) LegacyDisabled() bool {
	return s.legacyDisabled.Load()
}
