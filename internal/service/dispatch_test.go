package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/bigkaa/gofilemeta/internal/domain/model"
)

func newDispatcher(repo *fakeRepo, blobs *fakeBlobStore, cache *RecordCache) *ExtractionDispatcher {
	return NewExtractionDispatcher(repo, blobs, cache, discardLogger())
}

func notificationFor(rec *model.FileRecord) Notification {
	return Notification{Bucket: rec.StorageContainer, Key: rec.StorageKey}
}

func TestDispatcherProcessesUpload(t *testing.T) {
	repo := newFakeRepo()
	blobs := newFakeBlobStore()
	rec := seedRecord(t, repo, blobs, "раз два\nтри\n")
	dispatcher := newDispatcher(repo, blobs, testCache())

	dispatcher.HandleNotifications(context.Background(), []Notification{notificationFor(rec)})

	stored, err := repo.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("запись не найдена: %v", err)
	}
	if !stored.IsProcessed() {
		t.Errorf("Status = %q, ожидалось processed", stored.Status)
	}
	if stored.ExtractedMetadata == nil {
		t.Fatal("ExtractedMetadata = nil после извлечения")
	}
	if stored.ExtractedMetadata.Text == nil {
		t.Fatalf("Text = nil для text/plain: %+v", stored.ExtractedMetadata)
	}
	if stored.ExtractedMetadata.Text.Analysis.Lines != 2 {
		t.Errorf("Lines = %d, ожидалось 2", stored.ExtractedMetadata.Text.Analysis.Lines)
	}
}

func TestDispatcherDegradesOnCorruptContent(t *testing.T) {
	repo := newFakeRepo()
	blobs := newFakeBlobStore()

	ingest := newUploadIngest(repo, blobs)
	params := textUploadParams("мусор вместо PDF")
	params.OriginalName = "broken.pdf"
	params.MimeType = "application/pdf"
	rec, err := ingest.Upload(context.Background(), params)
	if err != nil {
		t.Fatalf("Upload вернул ошибку: %v", err)
	}

	dispatcher := newDispatcher(repo, blobs, testCache())
	dispatcher.HandleNotifications(context.Background(), []Notification{notificationFor(rec)})

	stored, err := repo.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("запись не найдена: %v", err)
	}

	// Degrade-not-fail: запись обработана, ошибка стала данными
	if stored.Status != model.StatusProcessed {
		t.Errorf("Status = %q, ожидалось processed даже при деградации", stored.Status)
	}
	if stored.ExtractedMetadata == nil || !stored.ExtractedMetadata.IsDegraded() {
		t.Errorf("ожидался деградированный результат: %+v", stored.ExtractedMetadata)
	}
}

func TestDispatcherReplayIdempotent(t *testing.T) {
	repo := newFakeRepo()
	blobs := newFakeBlobStore()
	rec := seedRecord(t, repo, blobs, "раз два\nтри\n")
	dispatcher := newDispatcher(repo, blobs, testCache())
	n := []Notification{notificationFor(rec)}

	dispatcher.HandleNotifications(context.Background(), n)
	first, err := repo.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("запись не найдена: %v", err)
	}

	// Хранилище может доставить уведомление повторно
	dispatcher.HandleNotifications(context.Background(), n)
	second, err := repo.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("запись не найдена после повтора: %v", err)
	}

	if second.Status != model.StatusProcessed {
		t.Errorf("Status после повтора = %q, ожидалось processed", second.Status)
	}
	if !reflect.DeepEqual(first.ExtractedMetadata, second.ExtractedMetadata) {
		t.Errorf("повторная обработка изменила результат:\nбыло  %+v\nстало %+v",
			first.ExtractedMetadata, second.ExtractedMetadata)
	}
}

func TestDispatcherSkipsForeignKeys(t *testing.T) {
	repo := newFakeRepo()
	blobs := newFakeBlobStore()
	dispatcher := newDispatcher(repo, blobs, testCache())

	// Ключи вне соглашения игнорируются без ошибок
	dispatcher.HandleNotifications(context.Background(), []Notification{
		{Bucket: "test-bucket", Key: "backups/dump.sql"},
		{Bucket: "test-bucket", Key: "uploads/2026-08-23/not-a-uuid/f.txt"},
		{Bucket: "test-bucket", Key: ""},
	})

	if len(repo.records) != 0 {
		t.Errorf("обработка чужих ключей изменила репозиторий")
	}
}

func TestDispatcherSkipsDeletedRecord(t *testing.T) {
	repo := newFakeRepo()
	blobs := newFakeBlobStore()
	rec := seedRecord(t, repo, blobs, "data")

	// Запись удалена между уведомлением и обработкой
	if err := repo.Delete(context.Background(), rec.ID); err != nil {
		t.Fatalf("подготовка: %v", err)
	}

	dispatcher := newDispatcher(repo, blobs, testCache())
	dispatcher.HandleNotifications(context.Background(), []Notification{notificationFor(rec)})

	if len(repo.records) != 0 {
		t.Errorf("обработка устаревшего уведомления создала запись")
	}
}

func TestDispatcherIsolatesFailures(t *testing.T) {
	repo := newFakeRepo()
	blobs := newFakeBlobStore()
	first := seedRecord(t, repo, blobs, "первый\n")
	second := seedRecord(t, repo, blobs, "второй\n")

	// Blob первой записи удалён из хранилища: её обработка падает,
	// вторая должна обработаться
	if err := blobs.Delete(context.Background(), first.StorageKey); err != nil {
		t.Fatalf("подготовка: %v", err)
	}

	dispatcher := newDispatcher(repo, blobs, testCache())
	dispatcher.HandleNotifications(context.Background(), []Notification{
		notificationFor(first),
		notificationFor(second),
	})

	firstStored, _ := repo.GetByID(context.Background(), first.ID)
	if firstStored.Status != model.StatusProcessing {
		t.Errorf("статус первой записи = %q, ожидалось processing (сбой чтения blob)", firstStored.Status)
	}

	secondStored, _ := repo.GetByID(context.Background(), second.ID)
	if secondStored.Status != model.StatusProcessed {
		t.Errorf("статус второй записи = %q, ожидалось processed", secondStored.Status)
	}
}

func TestDispatcherInvalidatesCache(t *testing.T) {
	repo := newFakeRepo()
	blobs := newFakeBlobStore()
	rec := seedRecord(t, repo, blobs, "data")
	cache := testCache()
	query := newQueryFacade(repo, blobs, cache)
	dispatcher := newDispatcher(repo, blobs, cache)

	// Прогреваем кэш записью в статусе processing
	if _, err := query.GetRecord(context.Background(), rec.ID); err != nil {
		t.Fatalf("GetRecord: %v", err)
	}

	dispatcher.HandleNotifications(context.Background(), []Notification{notificationFor(rec)})

	got, err := query.GetRecord(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("GetRecord после извлечения: %v", err)
	}
	if got.Status != model.StatusProcessed {
		t.Errorf("кэш отдал устаревший статус %q", got.Status)
	}
}

func TestDispatcherRepoFailure(t *testing.T) {
	repo := newFakeRepo()
	blobs := newFakeBlobStore()
	rec := seedRecord(t, repo, blobs, "data")
	repo.getErr = errors.New("база недоступна")
	dispatcher := newDispatcher(repo, blobs, testCache())

	// Сбой базы не должен паниковать, запись остаётся в processing
	dispatcher.HandleNotifications(context.Background(), []Notification{notificationFor(rec)})

	repo.getErr = nil
	stored, _ := repo.GetByID(context.Background(), rec.ID)
	if stored.Status != model.StatusProcessing {
		t.Errorf("Status = %q, ожидалось processing", stored.Status)
	}
}
