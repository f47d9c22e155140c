package api

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/genbridge/genbridge/internal/core/job"
	"github.com/genbridge/genbridge/internal/core/service"
	"github.com/genbridge/genbridge/internal/core/state"
)

type Handler struct {
	svc     *service.GenerationService
	queue   *state.Queue
	results *state.Results
	conn    *state.Connection
}

func NewHandler(svc *service.GenerationService, queue *state.Queue, results *state.Results, conn *state.Connection) *Handler {
	return &Handler{svc: svc, queue: queue, results: results, conn: conn}
}

type QueueOutput struct {
	Body []job.Job
}

func (h *Handler) ListQueue(ctx context.Context, _ *struct{}) (*QueueOutput, error) {
	return &QueueOutput{Body: h.queue.Sorted()}, nil
}

type ResultsOutput struct {
	Body []job.Result
}

func (h *Handler) ListResults(ctx context.Context, _ *struct{}) (*ResultsOutput, error) {
	return &ResultsOutput{Body: h.results.List()}, nil
}

type StatusBody struct {
	Connected      bool           `json:"connected" doc:"Whether the push channel is open"`
	PollIntervalMs int64          `json:"poll_interval_ms" doc:"Effective poll interval"`
	System         map[string]any `json:"system" doc:"Merged backend system status"`
}

type StatusOutput struct {
	Body StatusBody
}

func (h *Handler) GetStatus(ctx context.Context, _ *struct{}) (*StatusOutput, error) {
	return &StatusOutput{Body: StatusBody{
		Connected:      h.conn.Connected(),
		PollIntervalMs: h.conn.PollInterval().Milliseconds(),
		System:         h.conn.System(),
	}}, nil
}

type GenerateInput struct {
	Body job.Params
}

type GenerateBody struct {
	JobID string `json:"job_id" doc:"Server-assigned job ID"`
}

type GenerateOutput struct {
	Body GenerateBody
}

func (h *Handler) Generate(ctx context.Context, in *GenerateInput) (*GenerateOutput, error) {
	id, err := h.svc.Start(ctx, in.Body)
	if err != nil {
		if errors.Is(err, service.ErrEmptyPrompt) {
			return nil, huma.Error422UnprocessableEntity("prompt must not be empty")
		}
		return nil, huma.Error502BadGateway("backend rejected generation", err)
	}
	return &GenerateOutput{Body: GenerateBody{JobID: id}}, nil
}

type JobIDInput struct {
	ID string `path:"id" doc:"Job ID"`
}

func (h *Handler) CancelJob(ctx context.Context, in *JobIDInput) (*struct{}, error) {
	if err := h.svc.Cancel(ctx, in.ID); err != nil {
		return nil, huma.Error502BadGateway("cancel failed", err)
	}
	return &struct{}{}, nil
}

type ClearQueueBody struct {
	Removed int `json:"removed" doc:"Number of jobs cancelled and removed"`
}

type ClearQueueOutput struct {
	Body ClearQueueBody
}

func (h *Handler) ClearQueue(ctx context.Context, _ *struct{}) (*ClearQueueOutput, error) {
	removed := h.svc.ClearQueue(ctx)
	return &ClearQueueOutput{Body: ClearQueueBody{Removed: removed}}, nil
}

type ResultIDInput struct {
	ID string `path:"id" doc:"Result ID"`
}

func (h *Handler) DeleteResult(ctx context.Context, in *ResultIDInput) (*struct{}, error) {
	if err := h.svc.DeleteResult(ctx, in.ID); err != nil {
		return nil, huma.Error502BadGateway("delete failed", err)
	}
	return &struct{}{}, nil
}

type ConfigureInput struct {
	Body struct {
		BackendURL     string `json:"backend_url,omitempty" doc:"New backend base URL; triggers reconnect and refresh"`
		PollIntervalMs int    `json:"poll_interval_ms,omitempty" minimum:"0" doc:"New poll interval in milliseconds"`
	}
}

func (h *Handler) Configure(ctx context.Context, in *ConfigureInput) (*struct{}, error) {
	if in.Body.PollIntervalMs > 0 {
		h.svc.SetPollInterval(time.Duration(in.Body.PollIntervalMs) * time.Millisecond)
	}
	if in.Body.BackendURL != "" {
		if err := h.svc.SetBackendURL(ctx, in.Body.BackendURL); err != nil {
			return nil, huma.Error502BadGateway("refresh against new backend failed", err)
		}
	}
	return &struct{}{}, nil
}
