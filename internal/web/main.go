// Package web wires the fiber application: middleware, routes and the
// JSON error envelope.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/catalog"
	"github.com/taskvault/taskvault/internal/config"
	fiberlogger "github.com/taskvault/taskvault/internal/logger/adapter/fiber"
	"github.com/taskvault/taskvault/internal/web/handler"
	authhandler "github.com/taskvault/taskvault/internal/web/handler/auth"
	taskhandler "github.com/taskvault/taskvault/internal/web/handler/task"
	userhandler "github.com/taskvault/taskvault/internal/web/handler/user"
)

// Service represents the web service.
type Service struct {
	App   *fiber.App
	cfg   *config.Config
	alive atomic.Bool
	db    *gorm.DB
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for SIGINT/SIGTERM and shuts the server down
// gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Fail the liveness probe first so load balancers drain this instance.
	log.Info().Msgf(
		"graceful shutdown: return 503 for %d seconds to let LB remove this instance from active targets",
		s.cfg.Webserver.ShutDownTime,
	)

	s.alive.Store(false)
	time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		if err := s.App.Shutdown(); err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// errorHandler renders every unhandled error as a JSON error envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	detail := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
		detail = fiberErr.Message
	}

	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	return handler.RespondError(c, status, http.StatusText(status), detail)
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB, cat *catalog.Catalog, authority *auth.TokenAuthority) *Service {
	if cfg == nil || db == nil || cat == nil || authority == nil {
		panic("cfg, db, catalog and authority cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			ErrorHandler:   errorHandler,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(fiberlogger.New(fiberlogger.Config{Config: cfg.Log}))

	service := &Service{
		cfg: cfg,
		App: app,
		db:  db,
	}
	service.alive.Store(true)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return handler.RespondError(c, fiber.StatusServiceUnavailable,
				"shutting_down", "service is shutting down")
		}

		return handler.Respond(c, fiber.StatusOK, "health", fiber.Map{"alive": true})
	})

	authService := auth.NewService(db)
	provider := auth.NewLocalProvider(db)

	// Handlers register their own routes and permission checks.
	authhandler.Handler.Init(app, cfg, provider, authService, authority, cat)
	userhandler.Handler.Init(app, cfg, provider, authService, authority)
	taskhandler.Handler.Init(app, cfg, db, authService, authority)

	return service
}
