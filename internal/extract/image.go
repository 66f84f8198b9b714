// image.go — извлечение метаданных изображений без полного декодирования:
// размеры и формат через image.DecodeConfig, плотность пикселей и наличие
// ICC-профиля — сканированием маркеров JPEG и чанков PNG.
package extract

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"

	// Регистрация декодеров для image.DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// extractImage читает только заголовок изображения (DecodeConfig),
// пиксели не декодируются.
func extractImage(data []byte) (*ImageMetadata, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("декодирование изображения: %w", err)
	}

	meta := &ImageMetadata{
		Dimensions: Dimensions{Width: cfg.Width, Height: cfg.Height},
		Encoding:   format,
	}

	density, hasProfile := scanImageExtras(format, data)
	hasAlpha := colorModelHasAlpha(cfg.ColorModel)

	// Блок exifData присутствует только если исходник несёт такие данные
	if density != nil || hasProfile || hasAlpha {
		meta.Exif = &ExifData{
			Density:    density,
			HasProfile: hasProfile,
			HasAlpha:   hasAlpha,
		}
	}

	return meta, nil
}

// colorModelHasAlpha определяет наличие альфа-канала по цветовой модели
// заголовка. PNG truecolor без альфы декодируется в RGBAModel, поэтому
// признаком альфа-канала служат только модели с явной альфой.
// Прозрачность палитровых изображений здесь не видна.
func colorModelHasAlpha(m color.Model) bool {
	switch m {
	case color.NRGBAModel, color.NRGBA64Model,
		color.AlphaModel, color.Alpha16Model,
		color.NYCbCrAModel:
		return true
	}
	return false
}

// scanImageExtras ищет плотность пикселей (DPI) и ICC-профиль
// в служебных сегментах файла. Для форматов без таких сегментов
// (gif, webp) возвращает (nil, false).
func scanImageExtras(format string, data []byte) (density *int, hasProfile bool) {
	switch format {
	case "jpeg":
		return scanJPEG(data)
	case "png":
		return scanPNG(data)
	}
	return nil, false
}

// scanJPEG перебирает сегменты JPEG до начала данных скана (SOS).
// APP0/JFIF несёт плотность, APP2/ICC_PROFILE — цветовой профиль.
func scanJPEG(data []byte) (density *int, hasProfile bool) {
	const (
		markerAPP0 = 0xE0
		markerAPP2 = 0xE2
		markerSOS  = 0xDA
	)

	// Сигнатура SOI
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, false
	}

	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			break
		}
		marker := data[pos+1]
		if marker == markerSOS {
			break
		}

		segLen := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		if segLen < 2 || pos+2+segLen > len(data) {
			break
		}
		seg := data[pos+4 : pos+2+segLen]

		switch marker {
		case markerAPP0:
			// JFIF: identifier(5) version(2) units(1) xdensity(2) ydensity(2)
			if len(seg) >= 12 && bytes.HasPrefix(seg, []byte("JFIF\x00")) {
				units := seg[7]
				xDensity := int(binary.BigEndian.Uint16(seg[8:10]))
				if xDensity > 0 {
					switch units {
					case 1: // точек на дюйм
						density = &xDensity
					case 2: // точек на сантиметр
						dpi := int(math.Round(float64(xDensity) * 2.54))
						density = &dpi
					}
				}
			}
		case markerAPP2:
			if bytes.HasPrefix(seg, []byte("ICC_PROFILE\x00")) {
				hasProfile = true
			}
		}

		pos += 2 + segLen
	}

	return density, hasProfile
}

// pngSignature — восьмибайтовая сигнатура PNG.
var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

// scanPNG перебирает чанки PNG: pHYs несёт плотность, iCCP — профиль.
func scanPNG(data []byte) (density *int, hasProfile bool) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, false
	}

	pos := len(pngSignature)
	for pos+8 <= len(data) {
		chunkLen := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		chunkType := string(data[pos+4 : pos+8])
		chunkEnd := pos + 8 + chunkLen
		if chunkLen < 0 || chunkEnd+4 > len(data) {
			break
		}
		chunk := data[pos+8 : chunkEnd]

		switch chunkType {
		case "pHYs":
			// ppuX(4) ppuY(4) unit(1); unit=1 — пиксели на метр
			if len(chunk) >= 9 && chunk[8] == 1 {
				ppm := binary.BigEndian.Uint32(chunk[0:4])
				if ppm > 0 {
					dpi := int(math.Round(float64(ppm) * 0.0254))
					density = &dpi
				}
			}
		case "iCCP":
			hasProfile = true
		case "IDAT", "IEND":
			// Служебные чанки идут до данных изображения
			return density, hasProfile
		}

		pos = chunkEnd + 4 // +CRC
	}

	return density, hasProfile
}
