// cache.go — LRU-кэш записей файлов с TTL для разгрузки базы данных
// на повторных запросах метаданных.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/gofilemeta/internal/domain/model"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fm_cache_hits_total",
		Help: "Количество попаданий в кэш записей файлов",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fm_cache_misses_total",
		Help: "Количество промахов кэша записей файлов",
	})
)

// RecordCache — LRU-кэш записей файлов с истечением по TTL.
type RecordCache struct {
	lru *expirable.LRU[string, *model.FileRecord]
}

// NewRecordCache создаёт кэш на size записей с временем жизни ttl.
func NewRecordCache(size int, ttl time.Duration) *RecordCache {
	return &RecordCache{
		lru: expirable.NewLRU[string, *model.FileRecord](size, nil, ttl),
	}
}

// Get возвращает запись из кэша, если она есть и не истекла.
func (c *RecordCache) Get(fileID string) (*model.FileRecord, bool) {
	rec, ok := c.lru.Get(fileID)
	if ok {
		cacheHits.Inc()
	} else {
		cacheMisses.Inc()
	}
	return rec, ok
}

// Put помещает запись в кэш.
func (c *RecordCache) Put(rec *model.FileRecord) {
	c.lru.Add(rec.ID, rec)
}

// Invalidate удаляет запись из кэша. Вызывается при любом изменении
// записи, чтобы кэш не отдавал устаревший статус.
func (c *RecordCache) Invalidate(fileID string) {
	c.lru.Remove(fileID)
}
