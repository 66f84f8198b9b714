// health.go — хендлер проверки работоспособности сервиса.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bigkaa/gofilemeta/internal/config"
)

// ReadinessChecker — проверка готовности зависимости сервиса.
type ReadinessChecker interface {
	CheckReady(ctx context.Context) (bool, string)
}

// HealthHandler — хендлер /health.
type HealthHandler struct {
	checkers map[string]ReadinessChecker
	logger   *slog.Logger
}

// NewHealthHandler создаёт хендлер проверки работоспособности.
// checkers — именованные проверки зависимостей (база, хранилище).
func NewHealthHandler(checkers map[string]ReadinessChecker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		checkers: checkers,
		logger:   logger.With(slog.String("component", "health_handler")),
	}
}

// Health обрабатывает GET /health.
// 200, если все зависимости готовы, 503 иначе.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	healthy := true
	checks := make(map[string]string, len(h.checkers))

	for name, checker := range h.checkers {
		ok, message := checker.CheckReady(r.Context())
		checks[name] = message
		if !ok {
			healthy = false
			h.logger.Warn("зависимость недоступна",
				slog.String("dependency", name),
				slog.String("message", message))
		}
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, map[string]any{
		"status":    status,
		"version":   config.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}
