// logging.go — журналирование HTTP-запросов. Каждый запрос даёт одну
// запись по завершении обработки: метод, путь, статус, длительность,
// объём ответа. Обращения к служебным endpoints (/health, /metrics)
// пишутся на уровне DEBUG, чтобы health-зонды оркестратора не засоряли журнал.
package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// loggingResponseWriter перехватывает статус-код и объём ответа.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (lw *loggingResponseWriter) WriteHeader(code int) {
	lw.status = code
	lw.ResponseWriter.WriteHeader(code)
}

func (lw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lw.ResponseWriter.Write(b)
	lw.bytes += int64(n)
	return n, err
}

// Unwrap открывает http.ResponseController доступ к исходному ResponseWriter.
func (lw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return lw.ResponseWriter
}

// servicePaths — endpoints, опрашиваемые оркестратором и сборщиком метрик.
var servicePaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// RequestLogger возвращает middleware журналирования запросов.
// Уровень записи: ERROR для 5xx, WARN для 4xx, DEBUG для служебных путей,
// иначе INFO.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "http"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lw := &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(lw, r)

			level := slog.LevelInfo
			switch {
			case lw.status >= 500:
				level = slog.LevelError
			case lw.status >= 400:
				level = slog.LevelWarn
			default:
				if _, svc := servicePaths[r.URL.Path]; svc {
					level = slog.LevelDebug
				}
			}

			log.LogAttrs(r.Context(), level, "запрос обработан",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", lw.status),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.Int64("bytes", lw.bytes),
				slog.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
