// File Metadata Service: приём загрузок файлов, асинхронное извлечение
// типо-специфичных метаданных и выдача метаданных и ссылок на скачивание.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/bigkaa/gofilemeta/internal/api/handlers"
	"github.com/bigkaa/gofilemeta/internal/api/middleware"
	"github.com/bigkaa/gofilemeta/internal/config"
	"github.com/bigkaa/gofilemeta/internal/repository"
	"github.com/bigkaa/gofilemeta/internal/server"
	"github.com/bigkaa/gofilemeta/internal/service"
	"github.com/bigkaa/gofilemeta/internal/storage/objectstore"
)

func main() {
	// 1. Конфигурация
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.Any("error", err))
		os.Exit(1)
	}

	// 2. Логирование
	logger := config.SetupLogger(cfg)
	logger.Info("File Metadata Service запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port))

	ctx := context.Background()

	// 3. База данных: подключение и миграции
	pool, err := repository.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к базе данных", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций", slog.Any("error", err))
		os.Exit(1)
	}

	repo := repository.NewFileRecordRepository(pool)

	// 4. Объектное хранилище
	blobs := objectstore.New(cfg, logger)

	// 5. Кэш записей
	cache := service.NewRecordCache(cfg.CacheSize, cfg.CacheTTL)

	// 6. Сервисы
	upload := service.NewUploadIngest(repo, blobs, cfg.MaxFileSize, logger)
	query := service.NewQueryFacade(repo, blobs, cache, cfg.DownloadURLTTL, logger)
	deletion := service.NewDeletionFacade(repo, blobs, cache, logger)
	dispatcher := service.NewExtractionDispatcher(repo, blobs, cache, logger)

	// 7. Хендлеры
	files := handlers.NewFilesHandler(upload, query, deletion, cfg.MaxFileSize, logger)
	events := handlers.NewEventsHandler(dispatcher, cfg.EventsToken, logger)
	health := handlers.NewHealthHandler(map[string]handlers.ReadinessChecker{
		"database": repository.NewReadinessChecker(pool),
		"storage":  blobs,
	}, logger)

	// 8. JWT-аутентификация (опционально)
	var jwtAuth *middleware.JWTAuth
	if cfg.JWKSUrl != "" {
		jwtAuth, err = middleware.NewJWTAuth(middleware.JWTAuthConfig{
			JWKSURL:         cfg.JWKSUrl,
			CACertPath:      cfg.JWKSCACert,
			ClientTimeout:   10 * time.Second,
			RefreshInterval: time.Hour,
			JWTLeeway:       time.Minute,
		}, logger)
		if err != nil {
			logger.Error("Ошибка инициализации JWT-аутентификации", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("JWT-аутентификация включена", slog.String("jwksUrl", cfg.JWKSUrl))
	} else {
		logger.Warn("FM_JWKS_URL не задан, аутентификация отключена")
	}

	// 9. HTTP-сервер
	srv := server.New(cfg, files, events, health, jwtAuth, logger)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.Any("error", err))
		os.Exit(1)
	}
}
