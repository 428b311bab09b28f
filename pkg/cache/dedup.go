package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DedupCache специализированный кэш для дедупликации экспортов.
// Хранит ссылку на уже сгенерированный отчёт для эквивалентных запросов.
type DedupCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// CachedExport кэшированная ссылка на готовый отчёт
type CachedExport struct {
	ReportID   string    `json:"report_id"`
	FileID     string    `json:"file_id"`
	StorageKey string    `json:"storage_key"`
	Format     string    `json:"format"`
	SizeBytes  int64     `json:"size_bytes"`
	ComputedAt time.Time `json:"computed_at"`
}

// NewDedupCache создаёт кэш дедупликации экспортов
func NewDedupCache(cache Cache, defaultTTL time.Duration) *DedupCache {
	if defaultTTL <= 0 {
		defaultTTL = 1 * time.Hour
	}
	return &DedupCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Get получает уже сгенерированный отчёт для эквивалентного запроса
func (dc *DedupCache) Get(ctx context.Context, ownerID string, params *ExportParams) (*CachedExport, bool, error) {
	key := BuildExportKeyForOwner(ownerID, params.Format, ExportHash(params))

	data, err := dc.cache.Get(ctx, key)
	if err != nil {
		if err == ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var entry CachedExport
	if err := json.Unmarshal(data, &entry); err != nil {
		// Повреждённый кэш — удаляем, ошибку удаления игнорируем намеренно
		_ = dc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}

	return &entry, true, nil
}

// Set сохраняет ссылку на готовый отчёт
func (dc *DedupCache) Set(ctx context.Context, ownerID string, params *ExportParams, entry *CachedExport, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = dc.defaultTTL
	}

	key := BuildExportKeyForOwner(ownerID, params.Format, ExportHash(params))

	entry.ComputedAt = time.Now()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return dc.cache.Set(ctx, key, data, ttl)
}

// Invalidate удаляет кэш всех форматов для владельца
func (dc *DedupCache) Invalidate(ctx context.Context, ownerID string) error {
	pattern := fmt.Sprintf("export:%s:*", ownerID)
	_, err := dc.cache.DeleteByPattern(ctx, pattern)
	return err
}

// InvalidateAll удаляет весь кэш дедупликации
func (dc *DedupCache) InvalidateAll(ctx context.Context) (int64, error) {
	return dc.cache.DeleteByPattern(ctx, "export:*")
}
