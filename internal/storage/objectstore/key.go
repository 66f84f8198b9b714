// key.go — соглашение о ключах объектов.
// Формат: uploads/{YYYY-MM-DD}/{id}/{sanitized-filename}.
// Идентификатор файла всегда третий сегмент: диспетчер извлечения
// восстанавливает его позиционным разбором ключа из уведомления
// хранилища, другого пути поиска записи у него нет.
package objectstore

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// keyPrefix — фиксированный префикс всех ключей, создаваемых сервисом.
const keyPrefix = "uploads"

// fileIDSegment — позиция сегмента с идентификатором файла.
const fileIDSegment = 2

// BuildKey формирует ключ объекта из даты загрузки, идентификатора
// и оригинального имени файла.
func BuildKey(uploadedAt time.Time, fileID, originalName string) string {
	return fmt.Sprintf("%s/%s/%s/%s",
		keyPrefix,
		uploadedAt.UTC().Format("2006-01-02"),
		fileID,
		SanitizeFilename(originalName),
	)
}

// ParseFileID извлекает идентификатор файла из ключа объекта.
// Возвращает ok=false для ключей, не соответствующих соглашению:
// чужой префикс, слишком мало сегментов или сегмент не является UUID.
// Такие ключи — чужие объекты, не ошибки.
func ParseFileID(key string) (fileID string, ok bool) {
	segments := strings.Split(key, "/")
	if len(segments) <= fileIDSegment {
		return "", false
	}
	if segments[0] != keyPrefix {
		return "", false
	}

	fileID = segments[fileIDSegment]
	if _, err := uuid.Parse(fileID); err != nil {
		return "", false
	}
	return fileID, true
}

// SanitizeFilename приводит имя файла к безопасному для ключа виду:
// отбрасывает путь, заменяет недопустимые символы на подчёркивание.
func SanitizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "file"
	}

	var sb strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}

	sanitized := strings.Trim(sb.String(), ".")
	if sanitized == "" {
		return "file"
	}
	return sanitized
}
