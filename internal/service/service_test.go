package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bigkaa/gofilemeta/internal/domain/model"
	"github.com/bigkaa/gofilemeta/internal/extract"
	"github.com/bigkaa/gofilemeta/internal/repository"
)

// discardLogger — логгер для тестов, вывод отбрасывается.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRepo — in-memory реализация FileRecordRepository с инъекцией ошибок.
type fakeRepo struct {
	mu      sync.Mutex
	records map[string]*model.FileRecord

	insertErr error
	getErr    error
	updateErr error
	deleteErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[string]*model.FileRecord)}
}

func (f *fakeRepo) Insert(_ context.Context, rec *model.FileRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	cp := *rec
	f.records[rec.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, fileID string) (*model.FileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[fileID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, fileID string, status model.FileStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	rec, ok := f.records[fileID]
	if !ok {
		return repository.ErrNotFound
	}
	rec.Status = status
	return nil
}

func (f *fakeRepo) SetExtracted(_ context.Context, fileID string, result *extract.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	rec, ok := f.records[fileID]
	if !ok {
		return repository.ErrNotFound
	}
	rec.ExtractedMetadata = result
	rec.Status = model.StatusProcessed
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.records[fileID]; !ok {
		return repository.ErrNotFound
	}
	delete(f.records, fileID)
	return nil
}

// fakeBlobStore — in-memory реализация BlobStore с инъекцией ошибок.
type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	putErr     error
	getErr     error
	deleteErr  error
	presignErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Bucket() string {
	return "test-bucket"
}

func (f *fakeBlobStore) Put(_ context.Context, key, _ string, body io.Reader, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, body); err != nil {
		return err
	}
	f.objects[key] = buf.Bytes()
	return nil
}

func (f *fakeBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("объект не найден в хранилище")
	}
	return data, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://storage.example.com/presigned/" + key, nil
}

// blobCount возвращает количество объектов в фейковом хранилище.
func (f *fakeBlobStore) blobCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// testCache создаёт кэш стандартного для тестов размера.
func testCache() *RecordCache {
	return NewRecordCache(100, time.Minute)
}

// requireRequestError проверяет, что ошибка — RequestError с указанным статусом.
func requireRequestError(t *testing.T, err error, wantStatus int) {
	t.Helper()
	if err == nil {
		t.Fatal("ожидалась ошибка")
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("ожидался RequestError, получено: %v", err)
	}
	if reqErr.StatusCode != wantStatus {
		t.Fatalf("StatusCode = %d, ожидалось %d (%s)", reqErr.StatusCode, wantStatus, reqErr.Message)
	}
}
