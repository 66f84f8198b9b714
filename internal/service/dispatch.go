// dispatch.go — диспетчер извлечения метаданных. Обрабатывает
// уведомления объектного хранилища о появлении новых объектов:
// восстанавливает идентификатор файла из ключа, читает blob,
// извлекает метаданные и одним обновлением записывает результат.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/gofilemeta/internal/extract"
	"github.com/bigkaa/gofilemeta/internal/repository"
	"github.com/bigkaa/gofilemeta/internal/storage/objectstore"
)

var extractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fm_extractions_total",
	Help: "Количество обработанных уведомлений хранилища по результату",
}, []string{"status"})

// Notification — одно уведомление хранилища о появлении объекта.
type Notification struct {
	// Bucket — имя bucket, в котором появился объект
	Bucket string
	// Key — ключ объекта
	Key string
}

// ExtractionDispatcher — обработчик уведомлений хранилища.
type ExtractionDispatcher struct {
	repo   repository.FileRecordRepository
	blobs  BlobStore
	cache  *RecordCache
	logger *slog.Logger
}

// NewExtractionDispatcher создаёт диспетчер извлечения.
func NewExtractionDispatcher(repo repository.FileRecordRepository, blobs BlobStore, cache *RecordCache, logger *slog.Logger) *ExtractionDispatcher {
	return &ExtractionDispatcher{
		repo:   repo,
		blobs:  blobs,
		cache:  cache,
		logger: logger.With(slog.String("component", "dispatcher")),
	}
}

// HandleNotifications обрабатывает пакет уведомлений. Каждое уведомление
// изолировано: сбой одного не прерывает обработку остальных.
func (d *ExtractionDispatcher) HandleNotifications(ctx context.Context, notifications []Notification) {
	for _, n := range notifications {
		d.handleOne(ctx, n)
	}
}

// handleOne обрабатывает одно уведомление.
func (d *ExtractionDispatcher) handleOne(ctx context.Context, n Notification) {
	// Ключи вне соглашения uploads/{date}/{id}/{name} принадлежат
	// чужим объектам: пропуск, не ошибка
	fileID, ok := objectstore.ParseFileID(n.Key)
	if !ok {
		d.logger.Debug("ключ вне соглашения, пропуск", slog.String("key", n.Key))
		extractionsTotal.WithLabelValues("skipped").Inc()
		return
	}

	logger := d.logger.With(slog.String("fileId", fileID), slog.String("key", n.Key))

	// Запись читается до blob: если она удалена между уведомлением и
	// обработкой, уведомление устарело и blob читать незачем
	rec, err := d.repo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("запись не найдена, уведомление устарело")
			extractionsTotal.WithLabelValues("skipped").Inc()
			return
		}
		logger.Error("ошибка чтения записи", slog.Any("error", err))
		extractionsTotal.WithLabelValues("error").Inc()
		return
	}

	data, err := d.blobs.Get(ctx, n.Key)
	if err != nil {
		logger.Error("ошибка чтения blob", slog.Any("error", err))
		extractionsTotal.WithLabelValues("error").Inc()
		return
	}

	// Извлечение никогда не падает: сбой становится extractionError
	result := extract.Dispatch(rec.MimeType, data)
	if result.IsDegraded() {
		logger.Warn("извлечение деградировало", slog.String("extractionError", result.ExtractionError))
	}

	// Единственное частичное обновление: результат + status=processed
	if err := d.repo.SetExtracted(ctx, fileID, &result); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("запись удалена во время извлечения")
			extractionsTotal.WithLabelValues("skipped").Inc()
			return
		}
		logger.Error("ошибка записи извлечённых метаданных", slog.Any("error", err))
		extractionsTotal.WithLabelValues("error").Inc()
		return
	}

	d.cache.Invalidate(fileID)
	extractionsTotal.WithLabelValues("success").Inc()
	logger.Info("метаданные извлечены", slog.String("mimeType", rec.MimeType))
}
