// query.go — выдача записей метаданных и подписанных ссылок на скачивание.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/gofilemeta/internal/domain/model"
	"github.com/bigkaa/gofilemeta/internal/repository"
)

var downloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "fm_downloads_total",
	Help: "Количество выданных ссылок на скачивание",
})

// QueryFacade — сервис чтения записей метаданных.
type QueryFacade struct {
	repo   repository.FileRecordRepository
	blobs  BlobStore
	cache  *RecordCache
	urlTTL time.Duration
	logger *slog.Logger
}

// NewQueryFacade создаёт сервис чтения.
func NewQueryFacade(repo repository.FileRecordRepository, blobs BlobStore, cache *RecordCache, urlTTL time.Duration, logger *slog.Logger) *QueryFacade {
	return &QueryFacade{
		repo:   repo,
		blobs:  blobs,
		cache:  cache,
		urlTTL: urlTTL,
		logger: logger.With(slog.String("component", "query")),
	}
}

// GetRecord возвращает запись метаданных по идентификатору.
// Синтаксически некорректный идентификатор отклоняется до обращения
// к базе: это ошибка запроса (400), а не отсутствие записи (404).
func (s *QueryFacade) GetRecord(ctx context.Context, fileID string) (*model.FileRecord, error) {
	if _, err := uuid.Parse(fileID); err != nil {
		return nil, newRequestError(http.StatusBadRequest, "некорректный идентификатор файла")
	}

	if rec, ok := s.cache.Get(fileID); ok {
		return rec, nil
	}

	rec, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newRequestError(http.StatusNotFound, "файл не найден")
		}
		s.logger.Error("ошибка чтения записи", slog.String("fileId", fileID), slog.Any("error", err))
		return nil, newRequestError(http.StatusInternalServerError, "ошибка чтения метаданных")
	}

	s.cache.Put(rec)
	return rec, nil
}

// DownloadLink — подписанная ссылка на скачивание файла.
type DownloadLink struct {
	// URL — подписанная ссылка
	URL string
	// ExpiresIn — время жизни ссылки в секундах
	ExpiresIn int
}

// GetDownloadURL выдаёт подписанную ссылку на скачивание файла.
// Ссылка действительна в течение настроенного TTL; выданная ссылка
// не отзывается и переживает удаление файла не дольше своего TTL.
func (s *QueryFacade) GetDownloadURL(ctx context.Context, fileID string) (*DownloadLink, error) {
	rec, err := s.GetRecord(ctx, fileID)
	if err != nil {
		return nil, err
	}

	url, err := s.blobs.PresignGet(ctx, rec.StorageKey, s.urlTTL)
	if err != nil {
		s.logger.Error("ошибка выдачи подписанной ссылки",
			slog.String("fileId", fileID), slog.Any("error", err))
		return nil, newRequestError(http.StatusInternalServerError, "ошибка формирования ссылки на скачивание")
	}

	downloadsTotal.Inc()
	return &DownloadLink{
		URL:       url,
		ExpiresIn: int(s.urlTTL.Seconds()),
	}, nil
}
