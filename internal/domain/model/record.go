// Пакет model — доменные модели File Metadata Service.
// FileRecord — единая запись метаданных файла, используется как
// in-memory представление и как формат строки в таблице file_records.
package model

import (
	"time"

	"github.com/bigkaa/gofilemeta/internal/extract"
)

// FileStatus — статус обработки файла.
type FileStatus string

const (
	// StatusUploading — запись инициализирована, файл ещё пишется
	StatusUploading FileStatus = "uploading"
	// StatusUploaded — файл записан в объектное хранилище
	StatusUploaded FileStatus = "uploaded"
	// StatusProcessing — ожидается асинхронное извлечение метаданных
	StatusProcessing FileStatus = "processing"
	// StatusProcessed — извлечение завершено (возможно, с extractionError)
	StatusProcessed FileStatus = "processed"
)

// FileRecord — запись метаданных файла. Первичный ключ — ID.
// Поля ID..UploadedAt фиксируются при загрузке и далее неизменяемы;
// ExtractedMetadata записывается единственный раз диспетчером извлечения.
type FileRecord struct {
	// ID — уникальный идентификатор файла (UUID v4)
	ID string `json:"id"`

	// OriginalName — оригинальное имя файла при загрузке
	OriginalName string `json:"originalName"`

	// MimeType — заявленный MIME-тип файла
	MimeType string `json:"mimeType"`

	// SizeBytes — размер файла в байтах
	SizeBytes int64 `json:"sizeBytes"`

	// StorageKey — ключ объекта в объектном хранилище.
	// Формат: uploads/{YYYY-MM-DD}/{id}/{sanitized-filename}.
	// ID всегда третий сегмент — диспетчер извлечения восстанавливает
	// его позиционным разбором ключа, другого пути поиска нет.
	StorageKey string `json:"storageKey"`

	// StorageContainer — имя bucket объектного хранилища
	StorageContainer string `json:"storageContainer"`

	// UploadedBy — идентификатор пользователя (sub из JWT)
	UploadedBy string `json:"uploadedBy,omitempty"`

	// UploadedAt — дата и время загрузки (UTC)
	UploadedAt time.Time `json:"uploadedAt"`

	// UserMetadata — пользовательские метаданные, хранятся как есть
	UserMetadata *UserMetadata `json:"userMetadata,omitempty"`

	// ExtractedMetadata — результат извлечения; отсутствует до завершения
	ExtractedMetadata *extract.Result `json:"extractedMetadata,omitempty"`

	// Status — текущий статус обработки
	Status FileStatus `json:"status"`
}

// IsProcessed проверяет, завершено ли извлечение метаданных.
func (r *FileRecord) IsProcessed() bool {
	return r.Status == StatusProcessed
}
