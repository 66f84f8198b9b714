// events.go — webhook-приёмник уведомлений объектного хранилища
// (формат S3/MinIO bucket notification).
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	apierrors "github.com/bigkaa/gofilemeta/internal/api/errors"
	"github.com/bigkaa/gofilemeta/internal/service"
)

// storageEvent — тело уведомления в формате S3 bucket notification.
// Ключи объектов приходят URL-encoded.
type storageEvent struct {
	Records []struct {
		S3 struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// EventsHandler — приёмник уведомлений хранилища.
type EventsHandler struct {
	dispatcher *service.ExtractionDispatcher
	token      string
	logger     *slog.Logger
}

// NewEventsHandler создаёт приёмник уведомлений.
// token — статический bearer-токен для проверки отправителя;
// пустое значение отключает проверку.
func NewEventsHandler(dispatcher *service.ExtractionDispatcher, token string, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		dispatcher: dispatcher,
		token:      token,
		logger:     logger.With(slog.String("component", "events_handler")),
	}
}

// HandleStorageEvent обрабатывает POST /events/storage.
// Всегда отвечает 200 на разобранные уведомления: хранилище не должно
// ретраить из-за сбоев отдельных записей, изоляция сбоев — внутри
// диспетчера.
func (h *EventsHandler) HandleStorageEvent(w http.ResponseWriter, r *http.Request) {
	if h.token != "" {
		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] != h.token {
			apierrors.Unauthorized(w, r, "недопустимый токен уведомлений")
			return
		}
	}

	var event storageEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		apierrors.BadRequest(w, r, "некорректное тело уведомления")
		return
	}

	notifications := make([]service.Notification, 0, len(event.Records))
	for _, record := range event.Records {
		key := record.S3.Object.Key
		// MinIO/S3 кодируют ключ как в query-строке
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		notifications = append(notifications, service.Notification{
			Bucket: record.S3.Bucket.Name,
			Key:    key,
		})
	}

	h.logger.Debug("получено уведомление хранилища", slog.Int("records", len(notifications)))
	h.dispatcher.HandleNotifications(r.Context(), notifications)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"processed": len(notifications),
	})
}
