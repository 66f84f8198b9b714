// pdf.go — извлечение метаданных PDF: количество страниц, текстовое
// содержимое, даты создания/изменения из Info-словаря.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// extractPDF разбирает PDF-документ. Библиотека паникует на повреждённых
// файлах, поэтому паника перехватывается и превращается в ошибку.
func extractPDF(data []byte) (meta *PDFMetadata, err error) {
	defer func() {
		if p := recover(); p != nil {
			meta = nil
			err = fmt.Errorf("повреждённый PDF: %v", p)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("разбор PDF: %w", err)
	}

	meta = &PDFMetadata{
		Pages: reader.NumPage(),
	}

	// Текст извлекается best-effort: PDF без текстового слоя — не ошибка
	if textReader, textErr := reader.GetPlainText(); textErr == nil {
		// Запас в 4 байта на символ покрывает любую UTF-8 руну
		raw, copyErr := io.ReadAll(io.LimitReader(textReader, maxTextContent*4))
		if copyErr == nil {
			// Байтовый лимит может разрезать многобайтовую руну на границе
			meta.TextContent = truncateRunes(string(trimPartialRune(raw)), maxTextContent)
		}
	}

	// Даты из Info-словаря (опциональны)
	info := reader.Trailer().Key("Info")
	if info.Kind() == pdf.Dict {
		if t, ok := parsePDFDate(info.Key("CreationDate")); ok {
			meta.CreatedDate = &t
		}
		if t, ok := parsePDFDate(info.Key("ModDate")); ok {
			meta.ModifiedDate = &t
		}
	}

	return meta, nil
}

// parsePDFDate разбирает дату PDF вида D:YYYYMMDDHHmmSS±HH'mm'.
// Компоненты после года опциональны; смещение зоны — Z, +HH'mm' или -HH'mm'.
func parsePDFDate(v pdf.Value) (time.Time, bool) {
	if v.Kind() != pdf.String {
		return time.Time{}, false
	}

	s := strings.TrimPrefix(v.RawString(), "D:")
	if len(s) < 4 {
		return time.Time{}, false
	}

	// Отделяем зону от цифровой части
	digits := s
	zone := time.UTC
	if idx := strings.IndexAny(s, "Z+-"); idx != -1 {
		digits = s[:idx]
		if s[idx] != 'Z' {
			offset, ok := parsePDFZone(s[idx:])
			if !ok {
				return time.Time{}, false
			}
			zone = time.FixedZone("", offset)
		}
	}

	// Дополняем опциональные компоненты значениями по умолчанию:
	// месяц/день = 01, время = 00:00:00
	if len(digits) > 14 {
		digits = digits[:14]
	}
	padded := digits + "0101000000"[max(0, len(digits)-4):]
	if len(padded) < 14 {
		return time.Time{}, false
	}

	year, err1 := strconv.Atoi(padded[0:4])
	month, err2 := strconv.Atoi(padded[4:6])
	day, err3 := strconv.Atoi(padded[6:8])
	hour, err4 := strconv.Atoi(padded[8:10])
	minute, err5 := strconv.Atoi(padded[10:12])
	sec, err6 := strconv.Atoi(padded[12:14])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, hour, minute, sec, 0, zone), true
}

// parsePDFZone разбирает смещение зоны вида +HH'mm' или -HH.
// Возвращает смещение в секундах.
func parsePDFZone(s string) (int, bool) {
	sign := 1
	if s[0] == '-' {
		sign = -1
	}

	rest := strings.ReplaceAll(s[1:], "'", "")
	if len(rest) < 2 {
		return 0, false
	}

	hours, err := strconv.Atoi(rest[0:2])
	if err != nil {
		return 0, false
	}
	minutes := 0
	if len(rest) >= 4 {
		if minutes, err = strconv.Atoi(rest[2:4]); err != nil {
			return 0, false
		}
	}

	return sign * (hours*3600 + minutes*60), true
}
