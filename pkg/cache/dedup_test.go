package cache

import (
	"context"
	"testing"
	"time"
)

func newTestDedupCache(t *testing.T) (*DedupCache, Cache) {
	t.Helper()
	backing := NewMemoryCache(&Options{
		DefaultTTL: time.Minute,
		MaxEntries: 100,
	})
	t.Cleanup(func() { backing.Close() })
	return NewDedupCache(backing, time.Hour), backing
}

func testParams() *ExportParams {
	return &ExportParams{
		ReportType: "asset_inventory",
		Format:     "xlsx",
		Columns:    []string{"name", "status"},
		Filters:    map[string]string{"status": "active"},
		SortKey:    "created_at",
		SortDesc:   true,
	}
}

func TestDedupCache_Miss(t *testing.T) {
	dc, _ := newTestDedupCache(t)

	entry, found, err := dc.Get(context.Background(), "user-1", testParams())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("expected miss for empty cache")
	}
	if entry != nil {
		t.Errorf("expected nil entry, got %+v", entry)
	}
}

func TestDedupCache_SetGet(t *testing.T) {
	dc, _ := newTestDedupCache(t)
	ctx := context.Background()
	params := testParams()

	in := &CachedExport{
		ReportID:   "rep-1",
		FileID:     "file-1",
		StorageKey: "reports/rep-1.xlsx",
		Format:     "xlsx",
		SizeBytes:  2048,
	}

	if err := dc.Set(ctx, "user-1", params, in, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, found, err := dc.Get(ctx, "user-1", params)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("expected hit after Set")
	}
	if got.ReportID != "rep-1" || got.FileID != "file-1" {
		t.Errorf("unexpected entry: %+v", got)
	}
	if got.ComputedAt.IsZero() {
		t.Error("ComputedAt should be set")
	}
}

func TestDedupCache_OwnerIsolation(t *testing.T) {
	dc, _ := newTestDedupCache(t)
	ctx := context.Background()
	params := testParams()

	entry := &CachedExport{ReportID: "rep-1", FileID: "file-1", Format: "xlsx"}
	if err := dc.Set(ctx, "user-1", params, entry, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Другой пользователь не видит чужой отчёт
	_, found, err := dc.Get(ctx, "user-2", params)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("entry should not leak between owners")
	}
}

func TestDedupCache_CorruptedEntry(t *testing.T) {
	dc, backing := newTestDedupCache(t)
	ctx := context.Background()
	params := testParams()

	key := BuildExportKeyForOwner("user-1", params.Format, ExportHash(params))
	if err := backing.Set(ctx, key, []byte("{not json"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Повреждённая запись трактуется как промах и удаляется
	_, found, err := dc.Get(ctx, "user-1", params)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("corrupted entry should be treated as a miss")
	}

	exists, _ := backing.Exists(ctx, key)
	if exists {
		t.Error("corrupted entry should be deleted")
	}
}

func TestDedupCache_Invalidate(t *testing.T) {
	dc, _ := newTestDedupCache(t)
	ctx := context.Background()

	p1 := testParams()
	p2 := testParams()
	p2.Format = "csv"

	entry := &CachedExport{ReportID: "rep-1", FileID: "file-1"}
	dc.Set(ctx, "user-1", p1, entry, 0)
	dc.Set(ctx, "user-1", p2, entry, 0)
	dc.Set(ctx, "user-2", p1, entry, 0)

	if err := dc.Invalidate(ctx, "user-1"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}

	_, found, _ := dc.Get(ctx, "user-1", p1)
	if found {
		t.Error("user-1 xlsx entry should be invalidated")
	}
	_, found, _ = dc.Get(ctx, "user-1", p2)
	if found {
		t.Error("user-1 csv entry should be invalidated")
	}
	_, found, _ = dc.Get(ctx, "user-2", p1)
	if !found {
		t.Error("user-2 entry should survive")
	}
}

func TestDedupCache_InvalidateAll(t *testing.T) {
	dc, _ := newTestDedupCache(t)
	ctx := context.Background()

	entry := &CachedExport{ReportID: "rep-1"}
	dc.Set(ctx, "user-1", testParams(), entry, 0)
	dc.Set(ctx, "user-2", testParams(), entry, 0)

	count, err := dc.InvalidateAll(ctx)
	if err != nil {
		t.Fatalf("InvalidateAll() error = %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 invalidated, got %d", count)
	}
}
