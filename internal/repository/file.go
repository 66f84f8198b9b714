// file.go — репозиторий записей файлов (таблица file_records).
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/gofilemeta/internal/domain/model"
	"github.com/bigkaa/gofilemeta/internal/extract"
)

// fileColumns — список столбцов таблицы file_records для SELECT-запросов.
// DRY: одно место для всех SELECT'ов.
const fileColumns = `id, original_name, mime_type, size_bytes, storage_key,
	storage_container, uploaded_by, uploaded_at, user_metadata,
	extracted_metadata, status`

// FileRecordRepository — интерфейс доступа к записям файлов.
type FileRecordRepository interface {
	// Insert вставляет новую запись.
	Insert(ctx context.Context, rec *model.FileRecord) error
	// GetByID возвращает запись по UUID или ErrNotFound.
	GetByID(ctx context.Context, fileID string) (*model.FileRecord, error)
	// UpdateStatus обновляет только статус записи.
	UpdateStatus(ctx context.Context, fileID string, status model.FileStatus) error
	// SetExtracted записывает результат извлечения и переводит запись
	// в status=processed одним частичным обновлением.
	SetExtracted(ctx context.Context, fileID string, result *extract.Result) error
	// Delete удаляет запись. ErrNotFound, если записи нет.
	Delete(ctx context.Context, fileID string) error
}

// fileRepo — реализация FileRecordRepository через pgx.
type fileRepo struct {
	db DBTX
}

// NewFileRecordRepository создаёт репозиторий записей файлов.
func NewFileRecordRepository(db DBTX) FileRecordRepository {
	return &fileRepo{db: db}
}

// Insert вставляет новую запись файла.
func (r *fileRepo) Insert(ctx context.Context, rec *model.FileRecord) error {
	query := `
		INSERT INTO file_records (id, original_name, mime_type, size_bytes,
			storage_key, storage_container, uploaded_by, uploaded_at,
			user_metadata, extracted_metadata, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	// Типизированный nil сериализовался бы в jsonb 'null' — передаём SQL NULL
	var userMeta any
	if rec.UserMetadata != nil {
		userMeta = rec.UserMetadata
	}
	var extracted any
	if rec.ExtractedMetadata != nil {
		extracted = rec.ExtractedMetadata
	}

	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.OriginalName, rec.MimeType, rec.SizeBytes,
		rec.StorageKey, rec.StorageContainer, rec.UploadedBy, rec.UploadedAt,
		userMeta, extracted, rec.Status,
	)
	if err != nil {
		return fmt.Errorf("ошибка вставки записи файла: %w", err)
	}
	return nil
}

// GetByID возвращает запись по UUID или ErrNotFound.
func (r *fileRepo) GetByID(ctx context.Context, fileID string) (*model.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM file_records WHERE id = $1`, fileColumns)

	rec := &model.FileRecord{}
	err := r.db.QueryRow(ctx, query, fileID).Scan(
		&rec.ID, &rec.OriginalName, &rec.MimeType, &rec.SizeBytes, &rec.StorageKey,
		&rec.StorageContainer, &rec.UploadedBy, &rec.UploadedAt, &rec.UserMetadata,
		&rec.ExtractedMetadata, &rec.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи файла: %w", err)
	}
	return rec, nil
}

// UpdateStatus обновляет только статус записи.
func (r *fileRepo) UpdateStatus(ctx context.Context, fileID string, status model.FileStatus) error {
	query := `UPDATE file_records SET status = $2 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, fileID, status)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetExtracted записывает результат извлечения и статус processed
// одним частичным обновлением. Идемпотентен: повторное извлечение
// на тех же байтах перезаписывает эквивалентный результат.
func (r *fileRepo) SetExtracted(ctx context.Context, fileID string, result *extract.Result) error {
	query := `
		UPDATE file_records
		SET extracted_metadata = $2, status = $3
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, fileID, result, model.StatusProcessed)
	if err != nil {
		return fmt.Errorf("ошибка записи извлечённых метаданных: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет запись файла.
func (r *fileRepo) Delete(ctx context.Context, fileID string) error {
	query := `DELETE FROM file_records WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, fileID)
	if err != nil {
		return fmt.Errorf("ошибка удаления записи файла: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
