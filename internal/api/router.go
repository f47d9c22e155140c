package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/genbridge/genbridge/internal/core/service"
	"github.com/genbridge/genbridge/internal/core/state"
)

type RouterConfig struct {
	Svc     *service.GenerationService
	Queue   *state.Queue
	Results *state.Results
	Conn    *state.Connection
}

func SetupRouter(e *echo.Echo, cfg RouterConfig) {
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	v1 := e.Group("/api/v1")
	config := huma.DefaultConfig("genbridge API", "1.0.0")
	config.Servers = []*huma.Server{{URL: "/api/v1"}}
	config.Info.Description = "Local mirror of a generation backend's queue and results"

	hAPI := humaecho.NewWithGroup(e, v1, config)
	h := NewHandler(cfg.Svc, cfg.Queue, cfg.Results, cfg.Conn)

	huma.Register(hAPI, huma.Operation{
		OperationID: "list-queue",
		Method:      http.MethodGet,
		Path:        "/queue",
		Summary:     "List tracked jobs, sorted",
		Tags:        []string{"Queue"},
	}, h.ListQueue)

	huma.Register(hAPI, huma.Operation{
		OperationID: "clear-queue",
		Method:      http.MethodPost,
		Path:        "/queue/clear",
		Summary:     "Cancel all cancellable jobs",
		Tags:        []string{"Queue"},
	}, h.ClearQueue)

	huma.Register(hAPI, huma.Operation{
		OperationID: "cancel-job",
		Method:      http.MethodPost,
		Path:        "/jobs/{id}/cancel",
		Summary:     "Cancel one job",
		Tags:        []string{"Queue"},
	}, h.CancelJob)

	huma.Register(hAPI, huma.Operation{
		OperationID:   "generate",
		Method:        http.MethodPost,
		Path:          "/generate",
		Summary:       "Submit a generation request",
		Tags:          []string{"Generation"},
		DefaultStatus: http.StatusCreated,
	}, h.Generate)

	huma.Register(hAPI, huma.Operation{
		OperationID: "list-results",
		Method:      http.MethodGet,
		Path:        "/results",
		Summary:     "List finished artifacts, newest first",
		Tags:        []string{"Results"},
	}, h.ListResults)

	huma.Register(hAPI, huma.Operation{
		OperationID: "delete-result",
		Method:      http.MethodDelete,
		Path:        "/results/{id}",
		Summary:     "Delete a finished artifact",
		Tags:        []string{"Results"},
	}, h.DeleteResult)

	huma.Register(hAPI, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/status",
		Summary:     "Connection and system status",
		Tags:        []string{"Status"},
	}, h.GetStatus)

	huma.Register(hAPI, huma.Operation{
		OperationID: "configure",
		Method:      http.MethodPost,
		Path:        "/config",
		Summary:     "Change backend URL or poll interval at runtime",
		Tags:        []string{"Status"},
	}, h.Configure)
}
