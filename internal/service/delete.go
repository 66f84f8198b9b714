// delete.go — удаление файла: blob из хранилища, затем запись из базы.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/gofilemeta/internal/repository"
)

var deletesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "fm_deletes_total",
	Help: "Количество удалённых файлов",
})

// DeletionFacade — сервис удаления файлов.
type DeletionFacade struct {
	repo   repository.FileRecordRepository
	blobs  BlobStore
	cache  *RecordCache
	logger *slog.Logger
}

// NewDeletionFacade создаёт сервис удаления.
func NewDeletionFacade(repo repository.FileRecordRepository, blobs BlobStore, cache *RecordCache, logger *slog.Logger) *DeletionFacade {
	return &DeletionFacade{
		repo:   repo,
		blobs:  blobs,
		cache:  cache,
		logger: logger.With(slog.String("component", "delete")),
	}
}

// Delete удаляет файл: сначала blob из хранилища, затем запись из базы.
// Операции не атомарны: сбой между ними оставляет запись без blob,
// повторный запрос удаления завершает уборку (удаление blob идемпотентно).
func (s *DeletionFacade) Delete(ctx context.Context, fileID string) error {
	if _, err := uuid.Parse(fileID); err != nil {
		return newRequestError(http.StatusBadRequest, "некорректный идентификатор файла")
	}

	rec, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newRequestError(http.StatusNotFound, "файл не найден")
		}
		s.logger.Error("ошибка чтения записи", slog.String("fileId", fileID), slog.Any("error", err))
		return newRequestError(http.StatusInternalServerError, "ошибка удаления файла")
	}

	if err := s.blobs.Delete(ctx, rec.StorageKey); err != nil {
		s.logger.Error("ошибка удаления blob",
			slog.String("fileId", fileID),
			slog.String("key", rec.StorageKey),
			slog.Any("error", err))
		return newRequestError(http.StatusInternalServerError, "ошибка удаления файла")
	}

	if err := s.repo.Delete(ctx, fileID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Конкурентное удаление: запись уже убрана
			s.cache.Invalidate(fileID)
			return nil
		}
		s.logger.Error("ошибка удаления записи, blob уже удалён",
			slog.String("fileId", fileID), slog.Any("error", err))
		return newRequestError(http.StatusInternalServerError, "ошибка удаления файла")
	}

	s.cache.Invalidate(fileID)
	deletesTotal.Inc()
	s.logger.Info("файл удалён", slog.String("fileId", fileID), slog.String("key", rec.StorageKey))
	return nil
}
