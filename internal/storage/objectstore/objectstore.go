// Пакет objectstore — клиент S3-совместимого объектного хранилища.
// Поддерживает запись, чтение, удаление и выдачу подписанных ссылок
// на скачивание. Работает как с AWS S3, так и с MinIO (кастомный
// endpoint + path-style адресация).
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/bigkaa/gofilemeta/internal/config"
)

// ErrObjectNotFound — объект с указанным ключом отсутствует в хранилище.
var ErrObjectNotFound = errors.New("объект не найден в хранилище")

// Client — клиент объектного хранилища для одного bucket.
type Client struct {
	s3Client *s3.Client
	uploader *manager.Uploader
	presign  *s3.PresignClient
	bucket   string
	logger   *slog.Logger
}

// New создаёт клиент объектного хранилища из конфигурации.
func New(cfg *config.Config, logger *slog.Logger) *Client {
	s3Opts := []func(*s3.Options){}

	// Кастомный endpoint — для MinIO и прочих S3-совместимых хранилищ
	if cfg.S3Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true // обязательно для MinIO
		})
	}

	awsCfg := aws.Config{
		Region: cfg.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		),
	}

	s3Client := s3.NewFromConfig(awsCfg, s3Opts...)

	return &Client{
		s3Client: s3Client,
		uploader: manager.NewUploader(s3Client),
		presign:  s3.NewPresignClient(s3Client),
		bucket:   cfg.S3Bucket,
		logger:   logger.With(slog.String("component", "objectstore")),
	}
}

// Bucket возвращает имя bucket, с которым работает клиент.
func (c *Client) Bucket() string {
	return c.bucket
}

// Put записывает объект под указанным ключом. metadata — произвольные
// строковые пары, сохраняемые хранилищем вместе с объектом.
func (c *Client) Put(ctx context.Context, key, contentType string, body io.Reader, metadata map[string]string) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return fmt.Errorf("запись объекта %s: %w", key, err)
	}
	return nil
}

// Get читает объект целиком в память.
// Возвращает ErrObjectNotFound, если объект отсутствует.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("чтение объекта %s: %w", key, err)
	}
	defer out.Body.Close()

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, fmt.Errorf("чтение содержимого объекта %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

// Delete удаляет объект. Удаление отсутствующего объекта — не ошибка
// (S3 DeleteObject идемпотентен).
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("удаление объекта %s: %w", key, err)
	}
	return nil
}

// PresignGet выдаёт подписанную ссылку на чтение объекта, действительную
// в течение ttl. Ссылка даёт доступ любому её обладателю до истечения;
// отзыв выданных ссылок не поддерживается.
func (c *Client) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("выдача подписанной ссылки для %s: %w", key, err)
	}
	return req.URL, nil
}

// HealthCheck проверяет доступность хранилища HEAD-запросом к bucket.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err != nil {
		return fmt.Errorf("хранилище недоступно: %w", err)
	}
	return nil
}

// CheckReady — проверка готовности хранилища для health-эндпоинта.
func (c *Client) CheckReady(ctx context.Context) (bool, string) {
	if err := c.HealthCheck(ctx); err != nil {
		return false, err.Error()
	}
	return true, "ok"
}
