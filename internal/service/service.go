// Пакет service — бизнес-логика File Metadata Service: приём загрузок,
// выдача метаданных и ссылок на скачивание, удаление и асинхронное
// извлечение метаданных по уведомлениям хранилища.
package service

import (
	"context"
	"io"
	"time"
)

// BlobStore — операции объектного хранилища, используемые сервисами.
// Реализуется objectstore.Client.
type BlobStore interface {
	// Bucket возвращает имя bucket.
	Bucket() string
	// Put записывает объект.
	Put(ctx context.Context, key, contentType string, body io.Reader, metadata map[string]string) error
	// Get читает объект целиком.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete удаляет объект (идемпотентно).
	Delete(ctx context.Context, key string) error
	// PresignGet выдаёт подписанную ссылку на чтение.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// RequestError — ошибка обработки запроса с HTTP-статусом.
// Сервисы возвращают её для ошибок, вызванных самим запросом
// (валидация, отсутствие записи); хендлеры переносят статус и
// сообщение в конверт ошибки без интерпретации.
type RequestError struct {
	// StatusCode — HTTP-статус ответа
	StatusCode int
	// Message — сообщение для клиента
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// newRequestError создаёт RequestError.
func newRequestError(statusCode int, message string) *RequestError {
	return &RequestError{StatusCode: statusCode, Message: message}
}
