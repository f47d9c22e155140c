package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/genbridge/genbridge/internal/core/backend"
	"github.com/genbridge/genbridge/internal/core/event"
	"github.com/genbridge/genbridge/internal/core/job"
	"github.com/genbridge/genbridge/internal/core/state"
)

var (
	// ErrEmptyPrompt rejects a submission before any network call.
	ErrEmptyPrompt = errors.New("prompt must not be empty")
	// ErrCancelFailed means neither cancel endpoint reported success.
	ErrCancelFailed = errors.New("cancel failed")
)

// Backend is the slice of the REST client the service uses.
type Backend interface {
	Generate(ctx context.Context, req backend.GenerateRequest) (*backend.GenerateResponse, error)
	Cancel(ctx context.Context, id string) (bool, error)
	LegacyCancel(ctx context.Context, id string) (bool, error)
	DeleteResult(ctx context.Context, id string) error
	ActiveJobs(ctx context.Context) ([]backend.JobRecord, error)
	Results(ctx context.Context, limit int) ([]backend.ResultRecord, error)
	SystemStatus(ctx context.Context) (map[string]any, error)
	SetBaseURL(base string)
	WebsocketURL() string
}

// Transport is the push channel as the service sees it.
type Transport interface {
	Connect(ctx context.Context, url string) error
}

// GenerationService is the façade callers use: every operation
// combines a backend call, a local state mutation, and a user-facing
// notification.
type GenerationService struct {
	backend   Backend
	transport Transport
	queue     *state.Queue
	results   *state.Results
	conn      *state.Connection
	bus       event.Bus
}

func NewGenerationService(b Backend, t Transport, queue *state.Queue, results *state.Results, conn *state.Connection, bus event.Bus) *GenerationService {
	return &GenerationService{
		backend:   b,
		transport: t,
		queue:     queue,
		results:   results,
		conn:      conn,
		bus:       bus,
	}
}

// Start submits a generation request and optimistically inserts the
// job into the queue using the server-returned id. Nothing is
// inserted when the backend call fails.
func (s *GenerationService) Start(ctx context.Context, params job.Params) (string, error) {
	params.Prompt = strings.TrimSpace(params.Prompt)
	if params.Prompt == "" {
		s.notify(ctx, event.LevelError, "Prompt must not be empty")
		return "", ErrEmptyPrompt
	}

	resp, err := s.backend.Generate(ctx, backend.GenerateRequest{
		Prompt:         params.Prompt,
		NegativePrompt: params.NegativePrompt,
		Width:          params.Width,
		Height:         params.Height,
		Steps:          params.Steps,
		CfgScale:       params.CfgScale,
		Seed:           params.Seed,
	})
	if err != nil {
		s.notify(ctx, event.LevelError, "Failed to start generation")
		return "", fmt.Errorf("start generation: %w", err)
	}

	status := job.ParseStatus(resp.Status)
	if status == job.StatusUnknown {
		status = job.StatusQueued
	}
	s.queue.Insert(job.Job{
		ID:        resp.JobID,
		BackendID: resp.JobID,
		Status:    status,
		Progress:  job.NormalizeProgress(resp.Progress),
		Params:    params,
		CreatedAt: time.Now(),
	})

	log.Info().Str("job_id", resp.JobID).Msg("generation started")
	s.bus.Publish(ctx, event.Event{
		Type:    event.TypeGenerationQueued,
		Payload: event.GenerationEvent{JobID: resp.JobID, Prompt: params.Prompt},
	})
	s.notify(ctx, event.LevelSuccess, "Generation queued")
	return resp.JobID, nil
}

// Cancel asks the backend to cancel a job, falling back to the legacy
// endpoint. The job is removed locally only when one of the two
// endpoints reports success.
func (s *GenerationService) Cancel(ctx context.Context, id string) error {
	backendID := id
	if j, ok := s.queue.Get(id); ok && j.BackendID != "" {
		backendID = j.BackendID
	}

	ok, err := s.backend.Cancel(ctx, backendID)
	if err != nil || !ok {
		if err != nil {
			log.Debug().Err(err).Str("job_id", id).Msg("primary cancel failed, trying legacy")
		}
		ok, err = s.backend.LegacyCancel(ctx, backendID)
	}
	if err != nil || !ok {
		s.notify(ctx, event.LevelError, "Failed to cancel job")
		if err != nil {
			return fmt.Errorf("cancel %s: %w", id, err)
		}
		return fmt.Errorf("cancel %s: %w", id, ErrCancelFailed)
	}

	s.queue.Remove(id)
	log.Info().Str("job_id", id).Msg("job cancelled")
	return nil
}

// ClearQueue cancels every cancellable job concurrently, best effort.
// Individual failures do not abort the others. Returns the number of
// jobs removed.
func (s *GenerationService) ClearQueue(ctx context.Context) int {
	jobs := s.queue.Cancellable()
	if len(jobs) == 0 {
		return 0
	}

	var wg sync.WaitGroup
	var removed atomic.Int32
	for _, j := range jobs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := s.Cancel(ctx, id); err == nil {
				removed.Add(1)
			}
		}(j.ID)
	}
	wg.Wait()
	return int(removed.Load())
}

// DeleteResult removes an artifact from the backend, then locally.
func (s *GenerationService) DeleteResult(ctx context.Context, id string) error {
	if err := s.backend.DeleteResult(ctx, id); err != nil {
		s.notify(ctx, event.LevelError, "Failed to delete result")
		return fmt.Errorf("delete result %s: %w", id, err)
	}
	s.results.Remove(id)
	return nil
}

// Refresh re-hydrates the queue, results, and system status from the
// backend. Used at startup and after a base-URL change.
func (s *GenerationService) Refresh(ctx context.Context) error {
	var firstErr error

	if records, err := s.backend.ActiveJobs(ctx); err != nil {
		firstErr = err
	} else {
		jobs := make([]job.Job, 0, len(records))
		for _, rec := range records {
			jobs = append(jobs, rec.Canonical())
		}
		s.queue.Replace(jobs)
	}

	if records, err := s.backend.Results(ctx, s.results.Limit()); err != nil {
		if firstErr == nil {
			firstErr = err
		}
	} else {
		results := make([]job.Result, 0, len(records))
		for _, rec := range records {
			results = append(results, rec.Canonical())
		}
		s.results.SetAll(results)
	}

	if fields, err := s.backend.SystemStatus(ctx); err != nil {
		if firstErr == nil {
			firstErr = err
		}
	} else {
		s.conn.MergeSystem(fields)
	}

	if firstErr != nil {
		return fmt.Errorf("refresh: %w", firstErr)
	}
	return nil
}

// SetBackendURL points the client at a new backend, reconnects the
// push channel to the re-derived websocket endpoint, and refreshes all
// local state.
func (s *GenerationService) SetBackendURL(ctx context.Context, base string) error {
	s.backend.SetBaseURL(base)
	if err := s.transport.Connect(ctx, s.backend.WebsocketURL()); err != nil {
		log.Warn().Err(err).Msg("reconnect after base URL change failed")
	}
	return s.Refresh(ctx)
}

// SetPollInterval changes the effective poll cadence.
func (s *GenerationService) SetPollInterval(d time.Duration) {
	s.conn.SetPollInterval(d)
}

func (s *GenerationService) notify(ctx context.Context, level event.Level, msg string) {
	s.bus.Publish(ctx, event.Event{
		Type:    event.TypeNotification,
		Payload: event.Notification{Level: level, Message: msg},
	})
}
