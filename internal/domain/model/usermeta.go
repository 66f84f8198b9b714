// usermeta.go — пользовательские метаданные файла.
// Известные поля вынесены в структуру, нераспознанные ключи сохраняются
// в Extra без интерпретации и возвращаются клиенту в исходном виде.
package model

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

// Ограничения на известные поля пользовательских метаданных.
const (
	maxAuthorLen      = 255
	maxDescriptionLen = 1000
	maxTags           = 10
	maxTagLen         = 50
)

// UserMetadata — произвольные метаданные, переданные клиентом при загрузке.
// Сервис не интерпретирует их содержимое, но ограничивает размеры
// известных полей.
type UserMetadata struct {
	// Author — автор файла (опционально, до 255 символов)
	Author string
	// Description — описание (опционально, до 1000 символов)
	Description string
	// Tags — теги (опционально, до 10 тегов по 50 символов)
	Tags []string
	// ExpirationDate — дата истечения (опционально, ISO-8601, строго в будущем)
	ExpirationDate *time.Time
	// Extra — нераспознанные ключи, сохраняются как есть
	Extra map[string]any
}

// ParseUserMetadata разбирает JSON-объект пользовательских метаданных
// и валидирует ограничения известных полей. now — момент валидации
// expirationDate. Любая ошибка означает отклонение всего запроса.
func ParseUserMetadata(data []byte, now time.Time) (*UserMetadata, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("некорректный JSON метаданных: %w", err)
	}

	meta := &UserMetadata{}

	if v, ok := raw["author"]; ok {
		if err := json.Unmarshal(v, &meta.Author); err != nil {
			return nil, fmt.Errorf("поле author должно быть строкой")
		}
		if utf8.RuneCountInString(meta.Author) > maxAuthorLen {
			return nil, fmt.Errorf("поле author превышает %d символов", maxAuthorLen)
		}
		delete(raw, "author")
	}

	if v, ok := raw["description"]; ok {
		if err := json.Unmarshal(v, &meta.Description); err != nil {
			return nil, fmt.Errorf("поле description должно быть строкой")
		}
		if utf8.RuneCountInString(meta.Description) > maxDescriptionLen {
			return nil, fmt.Errorf("поле description превышает %d символов", maxDescriptionLen)
		}
		delete(raw, "description")
	}

	if v, ok := raw["tags"]; ok {
		if err := json.Unmarshal(v, &meta.Tags); err != nil {
			return nil, fmt.Errorf("поле tags должно быть массивом строк")
		}
		if len(meta.Tags) > maxTags {
			return nil, fmt.Errorf("количество тегов превышает %d", maxTags)
		}
		for _, tag := range meta.Tags {
			if utf8.RuneCountInString(tag) > maxTagLen {
				return nil, fmt.Errorf("тег превышает %d символов", maxTagLen)
			}
		}
		delete(raw, "tags")
	}

	if v, ok := raw["expirationDate"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, fmt.Errorf("поле expirationDate должно быть строкой ISO-8601")
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("поле expirationDate не является датой ISO-8601: %q", s)
		}
		if !t.After(now) {
			return nil, fmt.Errorf("поле expirationDate должно быть строго в будущем")
		}
		meta.ExpirationDate = &t
		delete(raw, "expirationDate")
	}

	// Нераспознанные ключи сохраняем без интерпретации
	if len(raw) > 0 {
		meta.Extra = make(map[string]any, len(raw))
		for k, v := range raw {
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return nil, fmt.Errorf("некорректное значение поля %q", k)
			}
			meta.Extra[k] = val
		}
	}

	return meta, nil
}

// MarshalJSON сериализует метаданные в плоский объект: известные поля
// и нераспознанные ключи на одном уровне.
func (m UserMetadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+4)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.Author != "" {
		out["author"] = m.Author
	}
	if m.Description != "" {
		out["description"] = m.Description
	}
	if len(m.Tags) > 0 {
		out["tags"] = m.Tags
	}
	if m.ExpirationDate != nil {
		out["expirationDate"] = m.ExpirationDate.UTC().Format(time.RFC3339)
	}
	return json.Marshal(out)
}

// UnmarshalJSON восстанавливает метаданные из плоского объекта.
// Валидация ограничений здесь не выполняется: данные из хранилища
// уже прошли её при загрузке.
func (m *UserMetadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["author"]; ok {
		if err := json.Unmarshal(v, &m.Author); err == nil {
			delete(raw, "author")
		}
	}
	if v, ok := raw["description"]; ok {
		if err := json.Unmarshal(v, &m.Description); err == nil {
			delete(raw, "description")
		}
	}
	if v, ok := raw["tags"]; ok {
		if err := json.Unmarshal(v, &m.Tags); err == nil {
			delete(raw, "tags")
		}
	}
	if v, ok := raw["expirationDate"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				m.ExpirationDate = &t
				delete(raw, "expirationDate")
			}
		}
	}

	if len(raw) > 0 {
		m.Extra = make(map[string]any, len(raw))
		for k, v := range raw {
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return fmt.Errorf("некорректное значение поля %q: %w", k, err)
			}
			m.Extra[k] = val
		}
	}

	return nil
}
