// Пакет server — HTTP-сервер File Metadata Service: маршрутизация,
// middleware и graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/gofilemeta/internal/api/handlers"
	"github.com/bigkaa/gofilemeta/internal/api/middleware"
	"github.com/bigkaa/gofilemeta/internal/config"
)

// Server — HTTP-сервер сервиса.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// New создаёт HTTP-сервер с настроенной маршрутизацией.
// jwtAuth == nil отключает аутентификацию (все endpoints публичные).
func New(cfg *config.Config, files *handlers.FilesHandler, events *handlers.EventsHandler, health *handlers.HealthHandler, jwtAuth *middleware.JWTAuth, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.RequestLogger(logger))

	// Публичные endpoints: без JWT
	r.Get("/health", health.Health)
	r.Handle("/metrics", promhttp.Handler())
	// Webhook хранилища защищён собственным статическим токеном
	r.Post("/events/storage", events.HandleStorageEvent)

	// Операции с файлами: JWT, если настроен
	r.Group(func(r chi.Router) {
		if jwtAuth != nil {
			r.Use(jwtAuth.Middleware())
		}
		r.Post("/upload", files.Upload)
		r.Get("/metadata/{fileId}", files.GetMetadata)
		r.Get("/download/{fileId}", files.GetDownloadURL)
		r.Delete("/files/{fileId}", files.Delete)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      r,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger.With(slog.String("component", "server")),
	}
}

// Run запускает сервер и блокируется до сигнала завершения
// или фатальной ошибки. SIGINT/SIGTERM запускают graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("ошибка HTTP-сервера: %w", err)
	case sig := <-sigCh:
		s.logger.Info("получен сигнал завершения", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
