// Пакет extract — извлечение типо-специфичных метаданных из содержимого файла.
// Dispatch выбирает извлекатель по MIME-типу (PDF, изображение, текст) и никогда
// не возвращает ошибку: любой сбой извлечения превращается в деградированный
// результат с полем extractionError (политика degrade-not-fail).
package extract

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

// maxTextContent — максимальная длина сохраняемого текстового содержимого
// (в символах).
const maxTextContent = 5000

// Result — результат извлечения метаданных. Ровно один из вариантов
// PDF/Image/Text заполнен; для прочих типов файлов все три пусты.
// Сериализуется в плоский JSON-объект: поля варианта поднимаются на
// верхний уровень рядом с fileType и fileSizeBytes.
type Result struct {
	// FileType — заявленный MIME-тип файла
	FileType string
	// FileSizeBytes — размер файла в байтах
	FileSizeBytes int64

	// PDF — метаданные PDF-документа
	PDF *PDFMetadata
	// Image — метаданные изображения
	Image *ImageMetadata
	// Text — метаданные текстового файла
	Text *TextMetadata

	// ExtractionError — сообщение об ошибке деградированного извлечения.
	// Непустое значение означает, что типо-специфичные поля отсутствуют.
	ExtractionError string
}

// PDFMetadata — метаданные PDF-документа.
type PDFMetadata struct {
	// Pages — количество страниц
	Pages int
	// TextContent — извлечённый текст (усечён до maxTextContent символов)
	TextContent string
	// CreatedDate — дата создания из Info-словаря (если указана)
	CreatedDate *time.Time
	// ModifiedDate — дата изменения из Info-словаря (если указана)
	ModifiedDate *time.Time
}

// ImageMetadata — метаданные изображения.
type ImageMetadata struct {
	// Dimensions — размеры в пикселях
	Dimensions Dimensions
	// Encoding — формат кодирования (png, jpeg, gif, webp)
	Encoding string
	// Exif — дополнительные данные; nil, если исходник их не содержит
	Exif *ExifData
}

// Dimensions — размеры изображения в пикселях.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ExifData — дополнительные данные изображения.
type ExifData struct {
	// Density — плотность пикселей (DPI), если задана в файле
	Density *int `json:"density,omitempty"`
	// HasProfile — присутствует ли встроенный цветовой профиль (ICC)
	HasProfile bool `json:"hasProfile"`
	// HasAlpha — есть ли альфа-канал
	HasAlpha bool `json:"hasAlpha"`
}

// TextMetadata — метаданные текстового файла.
type TextMetadata struct {
	// TextContent — содержимое (усечено до maxTextContent символов)
	TextContent string
	// Encoding — кодировка текста (всегда "utf8")
	Encoding string
	// Analysis — статистика по полному тексту, не по усечённому фрагменту
	Analysis TextAnalysis
}

// TextAnalysis — статистика текстового содержимого.
type TextAnalysis struct {
	Lines      int `json:"lines"`
	Words      int `json:"words"`
	Characters int `json:"characters"`
}

// Dispatch извлекает метаданные из содержимого файла по заявленному MIME-типу.
// Никогда не возвращает ошибку: сбой извлечения (битый файл, неподдерживаемый
// под-формат, паника декодера) даёт деградированный результат с extractionError.
// Для типов вне тройки PDF/изображение/текст типо-специфичное извлечение
// не выполняется — результат содержит только fileType и fileSizeBytes.
// Детерминирован: повторный вызов на тех же байтах даёт эквивалентный результат.
func Dispatch(mimeType string, data []byte) Result {
	res := Result{
		FileType:      mimeType,
		FileSizeBytes: int64(len(data)),
	}

	var err error
	switch {
	case mimeType == "application/pdf":
		res.PDF, err = extractPDF(data)
	case strings.HasPrefix(mimeType, "image/"):
		res.Image, err = extractImage(data)
	case mimeType == "text/plain":
		res.Text, err = extractText(data)
	default:
		// Нет извлекателя для этого типа — pass-through
		return res
	}

	if err != nil {
		// Degrade-not-fail: ошибка становится данными
		return Result{
			FileType:        mimeType,
			FileSizeBytes:   int64(len(data)),
			ExtractionError: err.Error(),
		}
	}

	return res
}

// IsDegraded сообщает, что извлечение завершилось деградацией.
func (r *Result) IsDegraded() bool {
	return r.ExtractionError != ""
}

// MarshalJSON сериализует результат в плоский объект: поля активного
// варианта поднимаются на верхний уровень.
func (r Result) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"fileType":      r.FileType,
		"fileSizeBytes": r.FileSizeBytes,
	}

	switch {
	case r.PDF != nil:
		out["pages"] = r.PDF.Pages
		out["textContent"] = r.PDF.TextContent
		if r.PDF.CreatedDate != nil {
			out["createdDate"] = r.PDF.CreatedDate.UTC().Format(time.RFC3339)
		}
		if r.PDF.ModifiedDate != nil {
			out["modifiedDate"] = r.PDF.ModifiedDate.UTC().Format(time.RFC3339)
		}
	case r.Image != nil:
		out["dimensions"] = r.Image.Dimensions
		out["encoding"] = r.Image.Encoding
		if r.Image.Exif != nil {
			out["exifData"] = r.Image.Exif
		}
	case r.Text != nil:
		out["textContent"] = r.Text.TextContent
		out["encoding"] = r.Text.Encoding
		out["textAnalysis"] = r.Text.Analysis
	}

	if r.ExtractionError != "" {
		out["extractionError"] = r.ExtractionError
	}

	return json.Marshal(out)
}

// UnmarshalJSON восстанавливает вариант из плоского объекта по
// дискриминирующим полям: pages → PDF, dimensions → Image,
// textAnalysis → Text.
func (r *Result) UnmarshalJSON(data []byte) error {
	var flat struct {
		FileType        string        `json:"fileType"`
		FileSizeBytes   int64         `json:"fileSizeBytes"`
		ExtractionError string        `json:"extractionError"`
		Pages           *int          `json:"pages"`
		TextContent     string        `json:"textContent"`
		CreatedDate     *time.Time    `json:"createdDate"`
		ModifiedDate    *time.Time    `json:"modifiedDate"`
		Dimensions      *Dimensions   `json:"dimensions"`
		Encoding        string        `json:"encoding"`
		ExifData        *ExifData     `json:"exifData"`
		TextAnalysis    *TextAnalysis `json:"textAnalysis"`
	}
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	r.FileType = flat.FileType
	r.FileSizeBytes = flat.FileSizeBytes
	r.ExtractionError = flat.ExtractionError
	r.PDF = nil
	r.Image = nil
	r.Text = nil

	switch {
	case flat.Pages != nil:
		r.PDF = &PDFMetadata{
			Pages:        *flat.Pages,
			TextContent:  flat.TextContent,
			CreatedDate:  flat.CreatedDate,
			ModifiedDate: flat.ModifiedDate,
		}
	case flat.Dimensions != nil:
		r.Image = &ImageMetadata{
			Dimensions: *flat.Dimensions,
			Encoding:   flat.Encoding,
			Exif:       flat.ExifData,
		}
	case flat.TextAnalysis != nil:
		r.Text = &TextMetadata{
			TextContent: flat.TextContent,
			Encoding:    flat.Encoding,
			Analysis:    *flat.TextAnalysis,
		}
	}

	return nil
}

// truncateRunes усекает строку до limit символов (не байт).
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// trimPartialRune отбрасывает неполную UTF-8 руну в конце среза,
// оставшуюся после обрезания текста по байтовой границе.
func trimPartialRune(b []byte) []byte {
	for len(b) > 0 {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size != 1 {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}
