package bridge

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/genbridge/genbridge/internal/api"
	"github.com/genbridge/genbridge/internal/config"
	"github.com/genbridge/genbridge/internal/core/backend"
	"github.com/genbridge/genbridge/internal/core/event"
	"github.com/genbridge/genbridge/internal/core/poller"
	"github.com/genbridge/genbridge/internal/core/service"
	"github.com/genbridge/genbridge/internal/core/state"
	"github.com/genbridge/genbridge/internal/core/transport"
)

// Run wires the sync engine together and serves the local API until
// SIGINT/SIGTERM.
func Run(ctx context.Context, cfg *config.Config) error {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	bus := event.NewBus()
	queue := state.NewQueue()
	results := state.NewResults(cfg.HistoryLimit())
	conn := state.NewConnection(cfg.PollInterval())

	client := backend.NewClient(cfg.Backend.URL)
	channel := transport.NewChannel(nil, cfg.ReconnectDelay(), queue, results, conn, bus)
	scheduler := poller.NewScheduler(client, queue, conn)
	svc := service.NewGenerationService(client, channel, queue, results, conn, bus)

	// Surface notifications and lifecycle events in the daemon log;
	// this is the toast layer of a UI process.
	bus.Subscribe(event.TypeNotification, func(_ context.Context, e event.Event) error {
		n, ok := e.Payload.(event.Notification)
		if !ok {
			return nil
		}
		if n.Level == event.LevelError {
			log.Warn().Str("notification", n.Message).Msg("notify")
		} else {
			log.Info().Str("notification", n.Message).Msg("notify")
		}
		return nil
	})
	bus.Subscribe(event.TypeConnectionChanged, func(_ context.Context, e event.Event) error {
		p, ok := e.Payload.(event.ConnectionEvent)
		if !ok {
			return nil
		}
		log.Info().Bool("connected", p.Connected).Msg("push channel state")
		return nil
	})
	bus.Subscribe(event.TypeGenerationCompleted, func(_ context.Context, e event.Event) error {
		p, ok := e.Payload.(event.GenerationEvent)
		if !ok {
			return nil
		}
		log.Info().Str("job_id", p.JobID).Str("result_id", p.ResultID).Msg("generation completed")
		return nil
	})
	bus.Subscribe(event.TypeGenerationFailed, func(_ context.Context, e event.Event) error {
		p, ok := e.Payload.(event.GenerationEvent)
		if !ok {
			return nil
		}
		log.Warn().Str("job_id", p.JobID).Str("error", p.Error).Msg("generation failed")
		return nil
	})

	// Hydrate before serving so the API never starts empty when the
	// backend is reachable.
	if err := svc.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial refresh failed, continuing with empty state")
	}

	if err := channel.Connect(ctx, client.WebsocketURL()); err != nil {
		log.Warn().Err(err).Msg("initial push connect failed, reconnect scheduled")
	}
	scheduler.Start()

	e := echo.New()
	e.HideBanner = true
	api.SetupRouter(e, api.RouterConfig{
		Svc:     svc,
		Queue:   queue,
		Results: results,
		Conn:    conn,
	})

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	log.Info().
		Str("backend", cfg.Backend.URL).
		Str("listen", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Msg("genbridge running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	scheduler.Stop()
	channel.Close()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	return nil
}
