// upload.go — приём загрузки: валидация, запись blob в объектное
// хранилище и создание записи метаданных.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/gofilemeta/internal/domain/model"
	"github.com/bigkaa/gofilemeta/internal/repository"
	"github.com/bigkaa/gofilemeta/internal/storage/objectstore"
)

var uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fm_uploads_total",
	Help: "Количество загрузок файлов по результату",
}, []string{"status"})

// allowedMimeTypes — допустимые MIME-типы загружаемых файлов.
var allowedMimeTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"image/webp":      {},
	"text/plain":      {},

	// Word-документы принимаются, но извлечения для них нет (pass-through)
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// UploadParams — параметры принимаемой загрузки.
type UploadParams struct {
	// OriginalName — имя файла, заявленное клиентом
	OriginalName string
	// MimeType — MIME-тип, заявленный клиентом
	MimeType string
	// Size — размер файла в байтах
	Size int64
	// Body — содержимое файла
	Body io.Reader
	// UploadedBy — идентификатор пользователя (пусто без аутентификации)
	UploadedBy string
	// RawUserMetadata — JSON пользовательских метаданных (nil, если не переданы)
	RawUserMetadata []byte
}

// UploadIngest — сервис приёма загрузок.
type UploadIngest struct {
	repo        repository.FileRecordRepository
	blobs       BlobStore
	maxFileSize int64
	logger      *slog.Logger
}

// NewUploadIngest создаёт сервис приёма загрузок.
func NewUploadIngest(repo repository.FileRecordRepository, blobs BlobStore, maxFileSize int64, logger *slog.Logger) *UploadIngest {
	return &UploadIngest{
		repo:        repo,
		blobs:       blobs,
		maxFileSize: maxFileSize,
		logger:      logger.With(slog.String("component", "upload")),
	}
}

// Upload принимает файл: валидирует параметры, пишет blob в хранилище,
// создаёт запись метаданных и переводит её в статус processing.
// Ошибки валидации возвращаются как RequestError и не оставляют следов
// ни в хранилище, ни в базе.
func (s *UploadIngest) Upload(ctx context.Context, params *UploadParams) (*model.FileRecord, error) {
	// 1. Валидация параметров
	if params.OriginalName == "" {
		uploadsTotal.WithLabelValues("rejected").Inc()
		return nil, newRequestError(http.StatusBadRequest, "файл не передан")
	}
	if _, ok := allowedMimeTypes[params.MimeType]; !ok {
		uploadsTotal.WithLabelValues("rejected").Inc()
		return nil, newRequestError(http.StatusBadRequest,
			fmt.Sprintf("недопустимый тип файла: %s", params.MimeType))
	}
	// Пустой файл (0 байт) допустим, отклоняется только превышение лимита
	if params.Size < 0 || params.Size > s.maxFileSize {
		uploadsTotal.WithLabelValues("rejected").Inc()
		return nil, newRequestError(http.StatusBadRequest,
			fmt.Sprintf("недопустимый размер файла: %d байт (максимум %d)", params.Size, s.maxFileSize))
	}

	now := time.Now().UTC()

	// 2. Пользовательские метаданные валидируются до записи blob
	var userMeta *model.UserMetadata
	if len(params.RawUserMetadata) > 0 {
		var err error
		userMeta, err = model.ParseUserMetadata(params.RawUserMetadata, now)
		if err != nil {
			uploadsTotal.WithLabelValues("rejected").Inc()
			return nil, newRequestError(http.StatusBadRequest,
				fmt.Sprintf("некорректные пользовательские метаданные: %v", err))
		}
	}

	// 3. Идентификатор и ключ объекта
	fileID := uuid.NewString()
	key := objectstore.BuildKey(now, fileID, params.OriginalName)

	// 4. Запись blob в объектное хранилище
	objMeta := map[string]string{
		"file-id":       fileID,
		"original-name": objectstore.SanitizeFilename(params.OriginalName),
	}
	if params.UploadedBy != "" {
		objMeta["uploaded-by"] = params.UploadedBy
	}
	if err := s.blobs.Put(ctx, key, params.MimeType, params.Body, objMeta); err != nil {
		s.logger.Error("ошибка записи blob", slog.String("key", key), slog.Any("error", err))
		uploadsTotal.WithLabelValues("error").Inc()
		return nil, newRequestError(http.StatusInternalServerError, "ошибка записи файла в хранилище")
	}

	rec := &model.FileRecord{
		ID:               fileID,
		OriginalName:     params.OriginalName,
		MimeType:         params.MimeType,
		SizeBytes:        params.Size,
		StorageKey:       key,
		StorageContainer: s.blobs.Bucket(),
		UploadedBy:       params.UploadedBy,
		UploadedAt:       now,
		UserMetadata:     userMeta,
		Status:           model.StatusUploaded,
	}

	// 5. Создание записи метаданных.
	// Сбой здесь оставляет осиротевший blob в хранилище: транзакции
	// между хранилищем и базой нет, blob подлежит внешней уборке.
	if err := s.repo.Insert(ctx, rec); err != nil {
		s.logger.Error("ошибка создания записи, blob осиротел",
			slog.String("fileId", fileID),
			slog.String("key", key),
			slog.Any("error", err))
		uploadsTotal.WithLabelValues("error").Inc()
		return nil, newRequestError(http.StatusInternalServerError, "ошибка сохранения метаданных")
	}

	// 6. Переход uploaded -> processing: извлечение выполнится асинхронно
	// по уведомлению хранилища
	if err := s.repo.UpdateStatus(ctx, fileID, model.StatusProcessing); err != nil {
		s.logger.Error("ошибка перевода записи в processing",
			slog.String("fileId", fileID), slog.Any("error", err))
		uploadsTotal.WithLabelValues("error").Inc()
		return nil, newRequestError(http.StatusInternalServerError, "ошибка сохранения метаданных")
	}
	rec.Status = model.StatusProcessing

	s.logger.Info("файл загружен",
		slog.String("fileId", fileID),
		slog.String("key", key),
		slog.String("mimeType", params.MimeType),
		slog.Int64("sizeBytes", params.Size))
	uploadsTotal.WithLabelValues("success").Inc()

	return rec, nil
}
