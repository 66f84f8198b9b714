// Пакет config — загрузка и валидация конфигурации File Metadata Service
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации сервиса.
type Config struct {
	// Порт HTTP-сервера
	Port int

	// Endpoint S3-совместимого хранилища (пусто = AWS S3)
	S3Endpoint string
	// Регион S3
	S3Region string
	// Ключ доступа S3
	S3AccessKeyID string
	// Секретный ключ S3
	S3SecretAccessKey string
	// Имя bucket для загружаемых файлов
	S3Bucket string

	// Параметры подключения к PostgreSQL
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Максимальный размер загружаемого файла в байтах
	MaxFileSize int64
	// Время жизни подписанной ссылки на скачивание
	DownloadURLTTL time.Duration

	// Максимальное количество записей в LRU-кэше метаданных
	CacheSize int
	// Время жизни записи в кэше
	CacheTTL time.Duration

	// URL JWKS endpoint для проверки JWT (пусто = без аутентификации)
	JWKSUrl string
	// Путь к CA-сертификату для проверки TLS JWKS endpoint (опционально)
	JWKSCACert string
	// Статический bearer-токен для webhook уведомлений хранилища (опционально)
	EventsToken string

	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}

	// FM_PORT — порт HTTP-сервера (по умолчанию 8080)
	port, err := getEnvInt("FM_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("FM_PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("FM_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	// FM_S3_ENDPOINT — endpoint S3-совместимого хранилища (опционально, для MinIO)
	cfg.S3Endpoint = getEnvDefault("FM_S3_ENDPOINT", "")

	// FM_S3_REGION — регион S3 (по умолчанию us-east-1)
	cfg.S3Region = getEnvDefault("FM_S3_REGION", "us-east-1")

	// FM_S3_ACCESS_KEY_ID — обязательный
	cfg.S3AccessKeyID, err = getEnvRequired("FM_S3_ACCESS_KEY_ID")
	if err != nil {
		return nil, err
	}

	// FM_S3_SECRET_ACCESS_KEY — обязательный
	cfg.S3SecretAccessKey, err = getEnvRequired("FM_S3_SECRET_ACCESS_KEY")
	if err != nil {
		return nil, err
	}

	// FM_S3_BUCKET — обязательный
	cfg.S3Bucket, err = getEnvRequired("FM_S3_BUCKET")
	if err != nil {
		return nil, err
	}

	// FM_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("FM_DB_HOST")
	if err != nil {
		return nil, err
	}

	// FM_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("FM_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("FM_DB_PORT: %w", err)
	}

	// FM_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("FM_DB_USER")
	if err != nil {
		return nil, err
	}

	// FM_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("FM_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// FM_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("FM_DB_NAME")
	if err != nil {
		return nil, err
	}

	// FM_DB_SSLMODE — режим SSL подключения к PostgreSQL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("FM_DB_SSLMODE", "disable")

	// FM_MAX_FILE_SIZE — максимальный размер файла (по умолчанию 50 MiB)
	maxFileSize, err := getEnvInt64("FM_MAX_FILE_SIZE", 50*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("FM_MAX_FILE_SIZE: %w", err)
	}
	if maxFileSize <= 0 {
		return nil, fmt.Errorf("FM_MAX_FILE_SIZE: значение должно быть положительным")
	}
	cfg.MaxFileSize = maxFileSize

	// FM_DOWNLOAD_URL_TTL — время жизни ссылки на скачивание (по умолчанию 1h)
	cfg.DownloadURLTTL, err = getEnvDuration("FM_DOWNLOAD_URL_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("FM_DOWNLOAD_URL_TTL: %w", err)
	}
	if cfg.DownloadURLTTL <= 0 {
		return nil, fmt.Errorf("FM_DOWNLOAD_URL_TTL: значение должно быть положительным")
	}

	// FM_CACHE_SIZE — размер LRU-кэша метаданных (по умолчанию 1000)
	cfg.CacheSize, err = getEnvInt("FM_CACHE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("FM_CACHE_SIZE: %w", err)
	}
	if cfg.CacheSize <= 0 {
		return nil, fmt.Errorf("FM_CACHE_SIZE: значение должно быть положительным")
	}

	// FM_CACHE_TTL — время жизни записи в кэше (по умолчанию 5m)
	cfg.CacheTTL, err = getEnvDuration("FM_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("FM_CACHE_TTL: %w", err)
	}

	// FM_JWKS_URL — URL JWKS endpoint (опционально; пусто = без аутентификации)
	cfg.JWKSUrl = getEnvDefault("FM_JWKS_URL", "")

	// FM_JWKS_CA_CERT — путь к CA-сертификату для JWKS endpoint (опционально)
	cfg.JWKSCACert = getEnvDefault("FM_JWKS_CA_CERT", "")

	// FM_EVENTS_TOKEN — bearer-токен для webhook уведомлений (опционально)
	cfg.EventsToken = getEnvDefault("FM_EVENTS_TOKEN", "")

	// FM_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("FM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("FM_LOG_LEVEL: %w", err)
	}

	// FM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("FM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("FM_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// FM_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("FM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FM_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel преобразует строку в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration значение переменной окружения
// или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q", val)
	}
	return d, nil
}
