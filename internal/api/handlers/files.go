// files.go — HTTP-хендлеры операций с файлами: загрузка, выдача
// метаданных, ссылка на скачивание, удаление.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/gofilemeta/internal/api/errors"
	"github.com/bigkaa/gofilemeta/internal/api/middleware"
	"github.com/bigkaa/gofilemeta/internal/service"
)

// FilesHandler — хендлеры операций с файлами.
type FilesHandler struct {
	upload      *service.UploadIngest
	query       *service.QueryFacade
	deletion    *service.DeletionFacade
	maxFileSize int64
	logger      *slog.Logger
}

// NewFilesHandler создаёт хендлеры операций с файлами.
func NewFilesHandler(upload *service.UploadIngest, query *service.QueryFacade, deletion *service.DeletionFacade, maxFileSize int64, logger *slog.Logger) *FilesHandler {
	return &FilesHandler{
		upload:      upload,
		query:       query,
		deletion:    deletion,
		maxFileSize: maxFileSize,
		logger:      logger.With(slog.String("component", "files_handler")),
	}
}

// writeJSON записывает успешный JSON-ответ.
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// writeRequestError переносит RequestError в конверт ошибки;
// прочие ошибки отдаются как 500 без деталей.
func writeRequestError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *service.RequestError
	if errors.As(err, &reqErr) {
		apierrors.WriteError(w, r, reqErr.StatusCode, reqErr.Message)
		return
	}
	apierrors.InternalError(w, r, "внутренняя ошибка сервиса")
}

// Upload обрабатывает POST /upload.
// multipart/form-data: часть file — содержимое, часть userMetadata —
// необязательный JSON пользовательских метаданных.
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Лимит на размер тела: запас поверх файла для служебных частей
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		apierrors.BadRequest(w, r, "некорректный multipart-запрос")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.BadRequest(w, r, "файл не передан")
		return
	}
	defer file.Close()

	params := &service.UploadParams{
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
		Body:         file,
		UploadedBy:   middleware.SubjectFromContext(r.Context()),
	}
	if raw := r.FormValue("userMetadata"); raw != "" {
		params.RawUserMetadata = []byte(raw)
	}

	rec, err := h.upload.Upload(r.Context(), params)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"fileId":  rec.ID,
		"status":  rec.Status,
	})
}

// GetMetadata обрабатывает GET /metadata/{fileId}.
func (h *FilesHandler) GetMetadata(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileId")

	rec, err := h.query.GetRecord(r.Context(), fileID)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    rec,
	})
}

// GetDownloadURL обрабатывает GET /download/{fileId}.
func (h *FilesHandler) GetDownloadURL(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileId")

	link, err := h.query.GetDownloadURL(r.Context(), fileID)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"downloadUrl": link.URL,
		"expiresIn":   link.ExpiresIn,
	})
}

// Delete обрабатывает DELETE /files/{fileId}.
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileId")

	if err := h.deletion.Delete(r.Context(), fileID); err != nil {
		writeRequestError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "файл удалён",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
