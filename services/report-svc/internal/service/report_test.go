// services/report-svc/internal/service/report_test.go
package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assethub/pkg/apperror"
	"assethub/pkg/cache"
	"assethub/pkg/logger"
	"assethub/pkg/queue"
	"assethub/pkg/storage"
	"assethub/services/report-svc/internal/access"
	"assethub/services/report-svc/internal/domain"
	"assethub/services/report-svc/internal/renderer"
	"assethub/services/report-svc/internal/repository"
	"assethub/services/report-svc/internal/rowsource"
)

func init() {
	logger.Init("error")
}

// recordingNotifier запоминает уведомления для проверок
type recordingNotifier struct {
	mu        sync.Mutex
	completed []string
	failed    []string
}

func (n *recordingNotifier) NotifyCompleted(ctx context.Context, report *domain.Report, downloadURL string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, report.ID)
	return nil
}

func (n *recordingNotifier) NotifyFailed(ctx context.Context, report *domain.Report, errorMessage string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, report.ID)
	return nil
}

func (n *recordingNotifier) completedIDs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.completed...)
}

func (n *recordingNotifier) failedIDs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.failed...)
}

type testEnv struct {
	svc      *ReportService
	repo     *repository.MemoryRepository
	store    storage.Store
	queue    queue.Queue
	notifier *recordingNotifier
	rows     *rowsource.StaticSource
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	q, err := queue.New(&queue.Options{
		Backend:      queue.BackendMemory,
		PollInterval: 50 * time.Millisecond,
		BufferSize:   16,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })

	rows := &rowsource.StaticSource{Data: []rowsource.Row{
		{"id": "a-1", "name": "Laptop"},
		{"id": "a-2", "name": "Monitor"},
	}}

	notifier := &recordingNotifier{}
	repo := repository.NewMemoryRepository()

	cfg := Config{
		Version:       "test",
		BaseURL:       "http://localhost:8080",
		DedupEnabled:  true,
		DedupTTL:      time.Minute,
		RenderTimeout: 5 * time.Second,
		MaxRows:       1000,
		InlineExport:  true,
		DefaultExpiry: time.Hour,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	svc := NewReportService(cfg, Deps{
		Repo:      repo,
		Rows:      rows,
		Renderers: renderer.NewRegistry(renderer.PDFOptions{}),
		Store:     store,
		Queue:     q,
		Dedup:     cache.NewDedupCache(cache.NewMemoryCache(nil), time.Minute),
		Notifier:  notifier,
	})

	return &testEnv{svc: svc, repo: repo, store: store, queue: q, notifier: notifier, rows: rows}
}

func testIdentity() *access.Identity {
	return &access.Identity{UserID: "user-1", Username: "tester", Role: "user"}
}

func testDefinition() *repository.CreateParams {
	return &repository.CreateParams{
		Name:   "Asset Inventory",
		Type:   domain.ReportTypeAsset,
		Format: domain.FormatCSV,
		Columns: []domain.ColumnSpec{
			{Key: "id", Label: "ID"},
			{Key: "name", Label: "Name"},
		},
	}
}

func TestCreateReport(t *testing.T) {
	env := newTestEnv(t, nil)

	report, err := env.svc.CreateReport(context.Background(), testIdentity(), *testDefinition())
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, domain.StatusPending, report.Status)
	assert.Equal(t, "user-1", report.CreatedBy)
}

func TestCreateReport_Anonymous(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.svc.CreateReport(context.Background(), nil, *testDefinition())
	require.Error(t, err)
	assert.Equal(t, apperror.CodeUnauthenticated, apperror.Code(err))
}

func TestCreateReport_InvalidColumns(t *testing.T) {
	env := newTestEnv(t, nil)

	def := testDefinition()
	def.Columns = nil
	_, err := env.svc.CreateReport(context.Background(), testIdentity(), *def)
	require.Error(t, err)
}

func TestCreateReport_DuplicateName(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.svc.CreateReport(ctx, testIdentity(), *testDefinition())
	require.NoError(t, err)

	_, err = env.svc.CreateReport(ctx, testIdentity(), *testDefinition())
	require.Error(t, err)
	assert.Equal(t, apperror.CodeConflict, apperror.Code(err))
}

func TestGetReport_ForeignDenied(t *testing.T) {
	env := newTestEnv(t, nil)

	report, err := env.svc.CreateReport(context.Background(), testIdentity(), *testDefinition())
	require.NoError(t, err)

	stranger := &access.Identity{UserID: "user-2", Role: "user"}
	_, err = env.svc.GetReport(context.Background(), stranger, report.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.CodePermissionDenied, apperror.Code(err))
}

func TestUpdateReport_TypeImmutable(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	report, err := env.svc.CreateReport(ctx, testIdentity(), *testDefinition())
	require.NoError(t, err)

	name := "Renamed Inventory"
	updated, err := env.svc.UpdateReport(ctx, testIdentity(), report.ID, repository.UpdateParams{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Inventory", updated.Name)
	assert.Equal(t, report.Type, updated.Type)
}

func TestDeleteReport_OnlyOwner(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	report, err := env.svc.CreateReport(ctx, testIdentity(), *testDefinition())
	require.NoError(t, err)

	stranger := &access.Identity{UserID: "user-2", Role: "user"}
	err = env.svc.DeleteReport(ctx, stranger, report.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.CodePermissionDenied, apperror.Code(err))

	require.NoError(t, env.svc.DeleteReport(ctx, testIdentity(), report.ID))

	_, err = env.svc.GetReport(ctx, testIdentity(), report.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeNotFound, apperror.Code(err))
}

func TestExport_InlineCompletes(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	result, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: testDefinition()})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, result.Status)
	assert.False(t, result.Deduplicated)
	assert.Contains(t, result.DownloadURL, result.ReportID)

	report, err := env.repo.Get(ctx, result.ReportID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, report.Status)
	assert.Equal(t, 100, report.Progress)

	file, err := env.repo.LatestFile(ctx, result.ReportID)
	require.NoError(t, err)
	assert.Greater(t, file.FileSize, int64(0))
	assert.Equal(t, "text/csv", file.MimeType)
	require.NotNil(t, file.Metadata)
	assert.Equal(t, 2, file.Metadata.RowCount)

	assert.Equal(t, []string{result.ReportID}, env.notifier.completedIDs())
}

func TestExport_Deduplicated(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	first, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: testDefinition()})
	require.NoError(t, err)

	def := testDefinition()
	def.Name = "Asset Inventory Copy"
	second, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: def})
	require.NoError(t, err)
	assert.True(t, second.Deduplicated)
	assert.Equal(t, first.ReportID, second.ReportID)
}

func TestExport_ColumnOrderDeduplicated(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	first, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: testDefinition()})
	require.NoError(t, err)

	def := testDefinition()
	def.Columns = []domain.ColumnSpec{
		{Key: "name", Label: "Name"},
		{Key: "id", Label: "ID"},
	}
	second, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: def})
	require.NoError(t, err)
	assert.True(t, second.Deduplicated)
	assert.Equal(t, first.ReportID, second.ReportID)
}

func TestExport_DedupIsPerOwner(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	first, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: testDefinition()})
	require.NoError(t, err)

	other := &access.Identity{UserID: "user-2", Role: "user"}
	second, err := env.svc.Export(ctx, other, ExportRequest{Definition: testDefinition()})
	require.NoError(t, err)
	assert.False(t, second.Deduplicated)
	assert.NotEqual(t, first.ReportID, second.ReportID)
}

func TestExport_DifferentFormatNotDeduplicated(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: testDefinition()})
	require.NoError(t, err)

	def := testDefinition()
	def.Name = "Asset Inventory XLSX"
	def.Format = domain.FormatXLSX
	second, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: def})
	require.NoError(t, err)
	assert.False(t, second.Deduplicated)
}

func TestExport_ExistingReportNotPending(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	result, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: testDefinition()})
	require.NoError(t, err)

	_, err = env.svc.Export(ctx, testIdentity(), ExportRequest{ReportID: result.ReportID})
	require.Error(t, err)
	assert.Equal(t, apperror.CodeConflict, apperror.Code(err))
}

func TestExport_Enqueued(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) { cfg.InlineExport = false })
	ctx := context.Background()

	result, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: testDefinition()})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, result.Status)

	job, err := env.queue.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.ReportID, job.ReportID)
	assert.Equal(t, "csv", job.Format)
}

func TestExport_InlineRequested(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) { cfg.InlineExport = false })
	ctx := context.Background()

	result, err := env.svc.Export(ctx, testIdentity(), ExportRequest{
		Definition: testDefinition(),
		Inline:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, result.Status)
	assert.NotEmpty(t, result.DownloadURL)

	depth, err := env.queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, depth)
}

// claimRacingRepo имитирует воркера, перехватывающего захват отчёта
type claimRacingRepo struct {
	*repository.MemoryRepository
}

func (r *claimRacingRepo) ClaimProcessing(ctx context.Context, id string) (bool, error) {
	if _, err := r.MemoryRepository.ClaimProcessing(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func TestExport_InlineClaimLostReportsProcessing(t *testing.T) {
	repo := &claimRacingRepo{MemoryRepository: repository.NewMemoryRepository()}
	svc := NewReportService(Config{
		Version:      "test",
		BaseURL:      "http://localhost:8080",
		InlineExport: true,
	}, Deps{
		Repo:      repo,
		Rows:      &rowsource.StaticSource{},
		Renderers: renderer.NewRegistry(renderer.PDFOptions{}),
	})

	result, err := svc.Export(context.Background(), testIdentity(), ExportRequest{Definition: testDefinition()})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, result.Status)
	assert.Empty(t, result.DownloadURL)
}

func TestExport_NoDefinitionNoID(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.svc.Export(context.Background(), testIdentity(), ExportRequest{})
	require.Error(t, err)
	assert.Equal(t, apperror.CodeInvalidArgument, apperror.Code(err))
}

func TestRunExport_SkipsAlreadyClaimed(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	report, err := env.svc.CreateReport(ctx, testIdentity(), *testDefinition())
	require.NoError(t, err)

	claimed, err := env.repo.ClaimProcessing(ctx, report.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	// Повторная доставка того же задания не перезапускает генерацию
	require.NoError(t, env.svc.runExport(ctx, report.ID))

	got, err := env.repo.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, got.Status)
	assert.Empty(t, env.notifier.completedIDs())
}

func TestRunExport_RowSourceFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.rows.Err = assert.AnError
	report, err := env.svc.CreateReport(ctx, testIdentity(), *testDefinition())
	require.NoError(t, err)

	err = env.svc.runExport(ctx, report.ID)
	require.Error(t, err)

	got, err := env.repo.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.NotEmpty(t, got.ErrorMessage)
	assert.Equal(t, []string{report.ID}, env.notifier.failedIDs())
}

func TestRunExport_MissingReportDropped(t *testing.T) {
	env := newTestEnv(t, nil)

	require.NoError(t, env.svc.runExport(context.Background(), uuid.New().String()))
}

func TestGetStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	result, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: testDefinition()})
	require.NoError(t, err)

	status, err := env.svc.GetStatus(ctx, testIdentity(), result.ReportID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, status.Status)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.File)
	assert.True(t, strings.HasSuffix(status.File.FileName, ".csv"))
	assert.NotEmpty(t, status.DownloadURL)
}

func TestGetStatus_Failed(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.rows.Err = assert.AnError
	report, err := env.svc.CreateReport(ctx, testIdentity(), *testDefinition())
	require.NoError(t, err)
	require.Error(t, env.svc.runExport(ctx, report.ID))

	status, err := env.svc.GetStatus(ctx, testIdentity(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, status.Status)
	assert.NotEmpty(t, status.ErrorMessage)
	assert.Nil(t, status.File)
}

func TestDownload(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	result, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: testDefinition()})
	require.NoError(t, err)

	dl, err := env.svc.Download(ctx, testIdentity(), result.ReportID)
	require.NoError(t, err)
	defer dl.Content.Close()

	assert.Equal(t, "text/csv", dl.MimeType)
	assert.Greater(t, dl.SizeBytes, int64(0))

	file, err := env.repo.LatestFile(ctx, result.ReportID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), file.DownloadCount)
}

func TestDownload_NotCompleted(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	report, err := env.svc.CreateReport(ctx, testIdentity(), *testDefinition())
	require.NoError(t, err)

	_, err = env.svc.Download(ctx, testIdentity(), report.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeNotFound, apperror.Code(err))
}

func TestDownload_Expired(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) { cfg.DefaultExpiry = -time.Minute })
	ctx := context.Background()

	result, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: testDefinition()})
	require.NoError(t, err)

	_, err = env.svc.Download(ctx, testIdentity(), result.ReportID)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeReportExpired, apperror.Code(err))
}

func TestDownload_StorageDrift(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	result, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: testDefinition()})
	require.NoError(t, err)

	file, err := env.repo.LatestFile(ctx, result.ReportID)
	require.NoError(t, err)
	require.NoError(t, env.store.Delete(ctx, file.FilePath))

	_, err = env.svc.Download(ctx, testIdentity(), result.ReportID)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeNotFound, apperror.Code(err))
}

func TestDownload_ForeignReport(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	result, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: testDefinition()})
	require.NoError(t, err)

	stranger := &access.Identity{UserID: "user-2", Role: "user"}
	_, err = env.svc.Download(ctx, stranger, result.ReportID)
	require.Error(t, err)
	assert.Equal(t, apperror.CodePermissionDenied, apperror.Code(err))
}

func TestDownload_PublicReport(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	def := testDefinition()
	def.IsPublic = true
	result, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: def})
	require.NoError(t, err)

	stranger := &access.Identity{UserID: "user-2", Role: "user"}
	dl, err := env.svc.Download(ctx, stranger, result.ReportID)
	require.NoError(t, err)
	dl.Content.Close()
}

func TestCleanupExpired(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) { cfg.DefaultExpiry = -time.Minute })
	ctx := context.Background()

	result, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: testDefinition()})
	require.NoError(t, err)

	file, err := env.repo.LatestFile(ctx, result.ReportID)
	require.NoError(t, err)

	removed, err := env.svc.CleanupExpired(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = env.repo.LatestFile(ctx, result.ReportID)
	assert.ErrorIs(t, err, repository.ErrFileNotFound)

	exists, err := env.store.Exists(ctx, file.FilePath)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCleanupExpired_KeepsLiveFiles(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	result, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: testDefinition()})
	require.NoError(t, err)

	removed, err := env.svc.CleanupExpired(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, err = env.repo.LatestFile(ctx, result.ReportID)
	require.NoError(t, err)
}

func TestWorkerPool_ProcessesJob(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) { cfg.InlineExport = false })
	ctx := context.Background()

	result, err := env.svc.Export(ctx, testIdentity(), ExportRequest{Definition: testDefinition()})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, result.Status)

	pool := NewWorkerPool(env.svc, env.queue, 1)
	pool.Start(ctx)

	require.Eventually(t, func() bool {
		report, err := env.repo.Get(ctx, result.ReportID)
		return err == nil && report.Status == domain.StatusCompleted
	}, 3*time.Second, 20*time.Millisecond)

	pool.Stop()
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	info := env.svc.Health(context.Background())
	assert.Equal(t, "test", info.Version)
	assert.True(t, info.DatabaseOK)
}
