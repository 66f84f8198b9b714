// text.go — извлечение метаданных текстовых файлов: усечённое содержимое
// и статистика (строки, слова, символы) по полному тексту.
package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// extractText декодирует содержимое как UTF-8 и считает статистику.
// Статистика вычисляется по полному тексту, а не по усечённому фрагменту.
func extractText(data []byte) (*TextMetadata, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("содержимое не является корректным UTF-8")
	}

	text := string(data)

	return &TextMetadata{
		TextContent: truncateRunes(text, maxTextContent),
		Encoding:    "utf8",
		Analysis: TextAnalysis{
			Lines:      countLines(text),
			Words:      len(strings.Fields(text)),
			Characters: utf8.RuneCountInString(text),
		},
	}, nil
}

// countLines возвращает количество сегментов, разделённых \n.
// Завершающий перевод строки не порождает фантомный пустой сегмент:
// файл из 10 строк даёт 10 независимо от наличия \n в конце.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	return len(strings.Split(strings.TrimSuffix(text, "\n"), "\n"))
}
