package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"booking-escalator/internal/auth"
	"booking-escalator/internal/config"
	"booking-escalator/internal/engine"
	"booking-escalator/internal/instrument"
	"booking-escalator/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the function as an HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.serve(cmd.Context())
		},
	}
}

func (rt *runtimeState) serve(ctx context.Context) error {
	cfg, zl, guard, err := rt.setup()
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	log := zl.Sugar()

	// The function variables are read per invocation; a gap here is only a warning.
	if _, err := rt.opts.LoadFunction(); err != nil {
		log.Warnw("Function configuration incomplete; invocations will fail until it is set", "error", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(reg)

	var buffer *instrument.EventBuffer
	if cfg.Instrumentation.Enabled {
		buffer = instrument.NewEventBuffer(log.Named("trace"), cfg.Instrumentation.BufferSize, cfg.Instrumentation.FlushIntervalMs)
		defer buffer.Stop()
	}

	esc := engine.NewEscalator(rt.opts.LoadFunction, rt.opts.NewUpdater,
		engine.WithGuard(guard),
		engine.WithMetrics(recorder),
		engine.WithLogger(log),
	)
	app := newApp(cfg, log, esc, buffer, reg)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Infow("Starting server", "addr", addr, "invoker_auth", cfg.AuthEnabled(), "trigger_condition", guard.String())
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newApp(cfg *config.Config, log *zap.SugaredLogger, esc *engine.Escalator, buffer *instrument.EventBuffer, gatherer prometheus.Gatherer) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          errorHandler(log),
		DisableStartupMessage: true,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(instrument.Middleware(buffer))

	app.Get("/metrics", metrics.Handler(gatherer))
	engine.RegisterRoutes(app, engine.NewHandler(esc, log), auth.InvokerMiddleware(cfg.InvokerJWTSecret))
	return app
}

// errorHandler keeps the {success, message} shape for routing errors and
// recovered panics.
func errorHandler(log *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "Internal server error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			msg = fiberErr.Message
		} else {
			log.Errorw("Unhandled error", "path", c.Path(), "error", err)
		}
		return c.Status(code).JSON(engine.Response{Success: false, Message: msg})
	}
}
