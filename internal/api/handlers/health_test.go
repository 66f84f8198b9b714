package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// staticChecker — проверка готовности с фиксированным результатом.
type staticChecker struct {
	ready   bool
	message string
}

func (c staticChecker) CheckReady(context.Context) (bool, string) {
	return c.ready, c.message
}

func doHealth(t *testing.T, checkers map[string]ReadinessChecker) (int, map[string]any) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHealthHandler(checkers, logger)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("ответ не является JSON: %v", err)
	}
	return rec.Code, body
}

func TestHealthAllReady(t *testing.T) {
	code, body := doHealth(t, map[string]ReadinessChecker{
		"database": staticChecker{ready: true, message: "ok"},
		"storage":  staticChecker{ready: true, message: "ok"},
	})

	if code != http.StatusOK {
		t.Fatalf("статус = %d, ожидалось 200", code)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v", body["status"])
	}
	if body["version"] == nil {
		t.Errorf("version отсутствует")
	}
}

func TestHealthDependencyDown(t *testing.T) {
	code, body := doHealth(t, map[string]ReadinessChecker{
		"database": staticChecker{ready: true, message: "ok"},
		"storage":  staticChecker{ready: false, message: "хранилище недоступно"},
	})

	if code != http.StatusServiceUnavailable {
		t.Fatalf("статус = %d, ожидалось 503", code)
	}
	if body["status"] != "unhealthy" {
		t.Errorf("status = %v", body["status"])
	}

	checks, _ := body["checks"].(map[string]any)
	if checks["storage"] != "хранилище недоступно" {
		t.Errorf("checks = %v", checks)
	}
}
