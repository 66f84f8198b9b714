package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/bigkaa/gofilemeta/internal/domain/model"
	"github.com/bigkaa/gofilemeta/internal/storage/objectstore"
)

const testMaxFileSize = 10 * 1024 * 1024

func newUploadIngest(repo *fakeRepo, blobs *fakeBlobStore) *UploadIngest {
	return NewUploadIngest(repo, blobs, testMaxFileSize, discardLogger())
}

func textUploadParams(content string) *UploadParams {
	return &UploadParams{
		OriginalName: "notes.txt",
		MimeType:     "text/plain",
		Size:         int64(len(content)),
		Body:         strings.NewReader(content),
		UploadedBy:   "user-42",
	}
}

func TestUploadSuccess(t *testing.T) {
	repo := newFakeRepo()
	blobs := newFakeBlobStore()
	ingest := newUploadIngest(repo, blobs)

	rec, err := ingest.Upload(context.Background(), textUploadParams("привет"))
	if err != nil {
		t.Fatalf("Upload вернул ошибку: %v", err)
	}

	if _, err := uuid.Parse(rec.ID); err != nil {
		t.Errorf("ID не является UUID: %q", rec.ID)
	}
	if rec.Status != model.StatusProcessing {
		t.Errorf("Status = %q, ожидалось processing", rec.Status)
	}
	if rec.StorageContainer != "test-bucket" {
		t.Errorf("StorageContainer = %q", rec.StorageContainer)
	}
	if rec.UploadedBy != "user-42" {
		t.Errorf("UploadedBy = %q", rec.UploadedBy)
	}

	// Ключ соответствует соглашению и ведёт обратно к ID
	gotID, ok := objectstore.ParseFileID(rec.StorageKey)
	if !ok || gotID != rec.ID {
		t.Errorf("StorageKey %q не разбирается обратно в ID %q", rec.StorageKey, rec.ID)
	}

	// Blob записан под этим ключом
	data, err := blobs.Get(context.Background(), rec.StorageKey)
	if err != nil {
		t.Fatalf("blob не найден: %v", err)
	}
	if !bytes.Equal(data, []byte("привет")) {
		t.Errorf("содержимое blob = %q", data)
	}

	// Запись в репозитории со статусом processing
	stored, err := repo.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("запись не найдена: %v", err)
	}
	if stored.Status != model.StatusProcessing {
		t.Errorf("статус в репозитории = %q, ожидалось processing", stored.Status)
	}
	if stored.ExtractedMetadata != nil {
		t.Errorf("ExtractedMetadata заполнен до извлечения")
	}
}

func TestUploadWithUserMetadata(t *testing.T) {
	repo := newFakeRepo()
	blobs := newFakeBlobStore()
	ingest := newUploadIngest(repo, blobs)

	params := textUploadParams("data")
	params.RawUserMetadata = []byte(`{"author": "Иван", "project": "alpha"}`)

	rec, err := ingest.Upload(context.Background(), params)
	if err != nil {
		t.Fatalf("Upload вернул ошибку: %v", err)
	}

	if rec.UserMetadata == nil {
		t.Fatal("UserMetadata = nil")
	}
	if rec.UserMetadata.Author != "Иван" {
		t.Errorf("Author = %q", rec.UserMetadata.Author)
	}
	if rec.UserMetadata.Extra["project"] != "alpha" {
		t.Errorf("Extra = %v", rec.UserMetadata.Extra)
	}
}

func TestUploadValidationRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*UploadParams)
	}{
		{"без имени файла", func(p *UploadParams) { p.OriginalName = "" }},
		{"недопустимый MIME", func(p *UploadParams) { p.MimeType = "application/x-executable" }},
		{"отрицательный размер", func(p *UploadParams) { p.Size = -1 }},
		{"превышение размера", func(p *UploadParams) { p.Size = testMaxFileSize + 1 }},
		{"битые метаданные", func(p *UploadParams) { p.RawUserMetadata = []byte("{не json") }},
		{"метаданные с истёкшей датой", func(p *UploadParams) {
			p.RawUserMetadata = []byte(`{"expirationDate": "2020-01-01T00:00:00Z"}`)
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeRepo()
			blobs := newFakeBlobStore()
			ingest := newUploadIngest(repo, blobs)

			params := textUploadParams("data")
			tc.mutate(params)

			_, err := ingest.Upload(context.Background(), params)
			requireRequestError(t, err, http.StatusBadRequest)

			// Отклонённая загрузка не оставляет следов
			if len(repo.records) != 0 {
				t.Errorf("в репозитории %d записей, ожидалось 0", len(repo.records))
			}
			if blobs.blobCount() != 0 {
				t.Errorf("в хранилище %d объектов, ожидалось 0", blobs.blobCount())
			}
		})
	}
}

func TestUploadEmptyFileAccepted(t *testing.T) {
	repo := newFakeRepo()
	blobs := newFakeBlobStore()
	ingest := newUploadIngest(repo, blobs)

	rec, err := ingest.Upload(context.Background(), textUploadParams(""))
	if err != nil {
		t.Fatalf("Upload пустого файла вернул ошибку: %v", err)
	}

	if rec.SizeBytes != 0 {
		t.Errorf("SizeBytes = %d, ожидалось 0", rec.SizeBytes)
	}
	data, err := blobs.Get(context.Background(), rec.StorageKey)
	if err != nil {
		t.Fatalf("blob не найден: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("содержимое blob = %q, ожидался пустой объект", data)
	}
}

func TestUploadBlobFailureLeavesNoRecord(t *testing.T) {
	repo := newFakeRepo()
	blobs := newFakeBlobStore()
	blobs.putErr = errors.New("хранилище недоступно")
	ingest := newUploadIngest(repo, blobs)

	_, err := ingest.Upload(context.Background(), textUploadParams("data"))
	requireRequestError(t, err, http.StatusInternalServerError)

	if len(repo.records) != 0 {
		t.Errorf("в репозитории %d записей после сбоя хранилища", len(repo.records))
	}
}

func TestUploadInsertFailureLeavesOrphanedBlob(t *testing.T) {
	repo := newFakeRepo()
	repo.insertErr = errors.New("база недоступна")
	blobs := newFakeBlobStore()
	ingest := newUploadIngest(repo, blobs)

	_, err := ingest.Upload(context.Background(), textUploadParams("data"))
	requireRequestError(t, err, http.StatusInternalServerError)

	// Известный разрыв: blob уже записан, записи нет
	if blobs.blobCount() != 1 {
		t.Errorf("в хранилище %d объектов, ожидался 1 осиротевший blob", blobs.blobCount())
	}
}

func TestUploadUniqueIDs(t *testing.T) {
	repo := newFakeRepo()
	blobs := newFakeBlobStore()
	ingest := newUploadIngest(repo, blobs)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		rec, err := ingest.Upload(context.Background(), textUploadParams("data"))
		if err != nil {
			t.Fatalf("Upload вернул ошибку: %v", err)
		}
		if seen[rec.ID] {
			t.Fatalf("повторный ID %q", rec.ID)
		}
		seen[rec.ID] = true
	}
}
