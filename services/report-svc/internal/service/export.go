// services/report-svc/internal/service/export.go
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"assethub/pkg/apperror"
	"assethub/pkg/cache"
	"assethub/pkg/logger"
	"assethub/pkg/metrics"
	"assethub/pkg/queue"
	"assethub/pkg/storage"
	"assethub/pkg/telemetry"
	"assethub/services/report-svc/internal/access"
	"assethub/services/report-svc/internal/domain"
	"assethub/services/report-svc/internal/repository"
)

// ExportRequest запрос на экспорт: либо существующий отчёт в статусе
// pending, либо inline-определение, создаваемое на лету. Inline
// отключает очередь для этого запроса, генерация идёт синхронно
type ExportRequest struct {
	ReportID   string
	Definition *repository.CreateParams
	Inline     bool
}

// ExportResult результат постановки экспорта
type ExportResult struct {
	ReportID     string        `json:"report_id"`
	Status       domain.Status `json:"status"`
	Deduplicated bool          `json:"deduplicated"`
	DownloadURL  string        `json:"download_url,omitempty"`
}

// Export ставит генерацию отчёта в очередь. Эквивалентный недавний
// экспорт того же пользователя переиспользуется через кэш дедупликации.
func (s *ReportService) Export(ctx context.Context, id *access.Identity, req ExportRequest) (*ExportResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "ReportService.Export",
		trace.WithAttributes(attribute.String("report.id", req.ReportID)))
	defer span.End()

	if id.Anonymous() {
		return nil, apperror.New(apperror.CodeUnauthenticated, "authentication required")
	}

	var report *domain.Report
	switch {
	case req.ReportID != "":
		existing, err := s.GetReport(ctx, id, req.ReportID)
		if err != nil {
			return nil, err
		}
		if existing.Status != domain.StatusPending {
			return nil, apperror.New(apperror.CodeConflict,
				fmt.Sprintf("report is already %s", existing.Status)).
				WithDetails("status", string(existing.Status))
		}
		report = existing

	case req.Definition != nil:
		if hit, err := s.dedupLookup(ctx, id.UserID, req.Definition); err == nil && hit != nil {
			return hit, nil
		}
		created, err := s.CreateReport(ctx, id, *req.Definition)
		if err != nil {
			return nil, err
		}
		report = created

	default:
		return nil, apperror.New(apperror.CodeInvalidArgument, "either report_id or a report definition is required")
	}

	if s.cfg.InlineExport || req.Inline {
		if err := s.runExport(ctx, report.ID); err != nil {
			return nil, err
		}
		// runExport без ошибки мог оказаться no-op: захват ушёл
		// конкурентному воркеру. Статус берём из отчёта
		result := &ExportResult{ReportID: report.ID, Status: domain.StatusProcessing}
		if current, err := s.loadReport(ctx, report.ID); err == nil {
			result.Status = current.Status
		}
		if result.Status == domain.StatusCompleted {
			result.DownloadURL = s.downloadURL(report.ID)
		}
		return result, nil
	}

	job := &queue.Job{
		ReportID:   report.ID,
		OwnerID:    report.CreatedBy,
		Format:     string(report.Format),
		EnqueuedAt: time.Now(),
		Attempt:    1,
	}
	if err := s.deps.Queue.Enqueue(ctx, job); err != nil {
		telemetry.SetError(ctx, err)
		return nil, apperror.Wrap(err, apperror.CodeQueueFailed, "failed to enqueue export job")
	}

	logger.Info("export enqueued",
		"report_id", report.ID,
		"format", report.Format,
		"user_id", id.UserID)

	return &ExportResult{ReportID: report.ID, Status: domain.StatusPending}, nil
}

// dedupLookup ищет готовый эквивалентный экспорт. Ошибки кэша не
// фатальны: промах дороже, чем лишняя генерация.
func (s *ReportService) dedupLookup(ctx context.Context, ownerID string, def *repository.CreateParams) (*ExportResult, error) {
	if !s.cfg.DedupEnabled || s.deps.Dedup == nil {
		return nil, nil
	}

	params := exportParams(def.Type, def.Format, def.Columns, def.Filters, def.Sorting)
	entry, found, err := s.deps.Dedup.Get(ctx, ownerID, params)
	metrics.Get().RecordDedupLookup(found)
	if err != nil {
		logger.Warn("dedup lookup failed", "error", err)
		return nil, nil
	}
	if !found {
		return nil, nil
	}

	// Запись могла пережить файл, проверяем что отчёт ещё скачиваем
	file, err := s.deps.Repo.GetFile(ctx, entry.FileID)
	if err != nil || !file.IsDownloadable() {
		return nil, nil
	}

	logger.Info("export deduplicated",
		"report_id", entry.ReportID,
		"file_id", entry.FileID,
		"user_id", ownerID)

	return &ExportResult{
		ReportID:     entry.ReportID,
		Status:       domain.StatusCompleted,
		Deduplicated: true,
		DownloadURL:  s.downloadURL(entry.ReportID),
	}, nil
}

// exportParams строит канонический ключ дедупликации из определения отчёта
func exportParams(rt domain.ReportType, format domain.Format, columns []domain.ColumnSpec, filters []domain.Filter, sorting *domain.Sorting) *cache.ExportParams {
	keys := make([]string, 0, len(columns))
	for _, c := range columns {
		keys = append(keys, c.Key)
	}
	flat := make(map[string]string, len(filters))
	for _, f := range filters {
		flat[f.Field+":"+f.Operator] = f.Value
	}
	params := &cache.ExportParams{
		ReportType: string(rt),
		Format:     string(format),
		Columns:    keys,
		Filters:    flat,
	}
	if sorting != nil {
		params.SortKey = sorting.Field
		params.SortDesc = sorting.Direction == domain.SortDesc
	}
	return params
}

// StatusResult статус генерации отчёта
type StatusResult struct {
	ReportID     string        `json:"report_id"`
	Status       domain.Status `json:"status"`
	Progress     int           `json:"progress"`
	ErrorMessage string        `json:"error_message,omitempty"`
	File         *FileInfo     `json:"file,omitempty"`
	DownloadURL  string        `json:"download_url,omitempty"`
}

// FileInfo сведения о готовом файле
type FileInfo struct {
	FileID    string     `json:"file_id"`
	FileName  string     `json:"file_name"`
	SizeBytes int64      `json:"size_bytes"`
	MimeType  string     `json:"mime_type"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// GetStatus возвращает текущий статус генерации
func (s *ReportService) GetStatus(ctx context.Context, id *access.Identity, reportID string) (*StatusResult, error) {
	report, err := s.GetReport(ctx, id, reportID)
	if err != nil {
		return nil, err
	}

	result := &StatusResult{
		ReportID:     report.ID,
		Status:       report.Status,
		Progress:     report.Progress,
		ErrorMessage: report.ErrorMessage,
	}

	if report.Status == domain.StatusCompleted {
		file, err := s.deps.Repo.LatestFile(ctx, report.ID)
		if err == nil {
			result.File = &FileInfo{
				FileID:    file.ID,
				FileName:  file.FileName,
				SizeBytes: file.FileSize,
				MimeType:  file.MimeType,
				ExpiresAt: file.ExpiresAt,
				CreatedAt: file.CreatedAt,
			}
			if file.IsDownloadable() {
				result.DownloadURL = s.downloadURL(report.ID)
			}
		}
	}

	return result, nil
}

// DownloadResult поток готового файла для отдачи клиенту
type DownloadResult struct {
	FileName  string
	MimeType  string
	SizeBytes int64
	Content   io.ReadCloser
}

// Download отдаёт последний сгенерированный файл отчёта.
// Незавершённый отчёт и отчёт без файла отдаются как not found.
func (s *ReportService) Download(ctx context.Context, id *access.Identity, reportID string) (*DownloadResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "ReportService.Download",
		trace.WithAttributes(attribute.String("report.id", reportID)))
	defer span.End()

	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !s.deps.Policy.CanDownload(id, report) {
		return nil, apperror.New(apperror.CodePermissionDenied, "no access to this report")
	}
	if report.Status != domain.StatusCompleted {
		return nil, apperror.New(apperror.CodeNotFound, "report file not found")
	}

	file, err := s.deps.Repo.LatestFile(ctx, report.ID)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return nil, apperror.New(apperror.CodeNotFound, "report file not found")
		}
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to load report file")
	}
	if file.IsExpired() {
		return nil, apperror.New(apperror.CodeReportExpired, "report file has expired")
	}

	content, err := s.deps.Store.Open(ctx, file.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Запись в БД есть, файла нет: рассинхронизация хранилища
			logger.Warn("storage drift detected",
				"report_id", report.ID,
				"file_id", file.ID,
				"storage_key", file.FilePath)
			metrics.Get().RecordStorageDrift()
			return nil, apperror.New(apperror.CodeNotFound, "report file not found")
		}
		return nil, apperror.Wrap(err, apperror.CodeStorageFailed, "failed to open report file")
	}

	count, err := s.deps.Repo.IncrementDownloads(ctx, file.ID)
	if err != nil {
		logger.Warn("failed to increment download count", "file_id", file.ID, "error", err)
	}
	metrics.Get().RecordDownload(string(report.Format))

	logger.Info("report downloaded",
		"report_id", report.ID,
		"file_id", file.ID,
		"download_count", count,
		"user_id", id.UserID)

	return &DownloadResult{
		FileName:  file.FileName,
		MimeType:  file.MimeType,
		SizeBytes: file.FileSize,
		Content:   content,
	}, nil
}

// CleanupExpired удаляет устаревшие файлы из хранилища и БД одной
// пачкой. Возвращает число удалённых файлов.
func (s *ReportService) CleanupExpired(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	files, err := s.deps.Repo.ExpiredFiles(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("list expired files: %w", err)
	}

	removed := 0
	for _, file := range files {
		if err := s.deps.Store.Delete(ctx, file.FilePath); err != nil && !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("failed to delete expired blob", "storage_key", file.FilePath, "error", err)
			continue
		}
		if err := s.deps.Repo.DeleteFile(ctx, file.ID); err != nil {
			logger.Warn("failed to delete expired file record", "file_id", file.ID, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		metrics.Get().RecordExpired(int64(removed))
		logger.Info("expired report files removed", "count", removed)
	}
	return removed, nil
}
