// services/report-svc/internal/service/runner.go
package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"assethub/pkg/apperror"
	"assethub/pkg/cache"
	"assethub/pkg/logger"
	"assethub/pkg/metrics"
	"assethub/pkg/telemetry"
	"assethub/services/report-svc/internal/domain"
	"assethub/services/report-svc/internal/repository"
)

// runExport выполняет полный цикл генерации одного отчёта. Захват
// через атомарный CAS pending -> processing страхует от двойного
// выполнения при повторной доставке задания: уже захваченный отчёт
// молча пропускается.
func (s *ReportService) runExport(ctx context.Context, reportID string) error {
	ctx, span := telemetry.StartSpan(ctx, "ReportService.runExport",
		trace.WithAttributes(attribute.String("report.id", reportID)))
	defer span.End()

	report, err := s.deps.Repo.Get(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("export job for missing report dropped", "report_id", reportID)
			return nil
		}
		return fmt.Errorf("load report: %w", err)
	}

	claimed, err := s.deps.Repo.ClaimProcessing(ctx, reportID)
	if err != nil {
		return fmt.Errorf("claim report: %w", err)
	}
	if !claimed {
		logger.Info("report already claimed, skipping", "report_id", reportID)
		return nil
	}

	started := time.Now()
	log := logger.WithReport(reportID)

	if s.cfg.RenderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RenderTimeout)
		defer cancel()
	}

	artifact, rowCount, err := s.render(ctx, report)
	if err != nil {
		s.failExport(ctx, report, started, err)
		return err
	}

	storageKey := path.Join("reports", report.ID, artifact.FileName)
	info, err := s.deps.Store.Put(ctx, storageKey, artifact.Data)
	if err != nil {
		err = apperror.Wrap(err, apperror.CodeStorageFailed, "failed to store report file")
		s.failExport(ctx, report, started, err)
		return err
	}

	// Нулевой срок жизни означает бессрочный файл
	var expiresAt *time.Time
	if s.cfg.DefaultExpiry != 0 {
		t := time.Now().Add(s.cfg.DefaultExpiry)
		expiresAt = &t
	}

	// Запись о файле и переход в completed в одной транзакции
	params := exportParams(report.Type, report.Format, report.Columns, report.Filters, report.Sorting)
	file, err := s.deps.Repo.CompleteWithFile(ctx, &repository.CreateFileParams{
		ReportID:    report.ID,
		FileName:    artifact.FileName,
		FilePath:    storageKey,
		FileSize:    info.SizeBytes,
		MimeType:    artifact.MimeType,
		GeneratedBy: report.CreatedBy,
		Metadata: &domain.FileMetadata{
			ReportType: report.Type,
			Format:     report.Format,
			Filters:    report.Filters,
			Columns:    report.Columns,
			Sorting:    report.Sorting,
			RowCount:   rowCount,
			ExportHash: cache.ExportHash(params),
		},
		ExpiresAt: expiresAt,
	})
	if err != nil {
		err = fmt.Errorf("record report file: %w", err)
		s.failExport(ctx, report, started, err)
		return err
	}
	s.reportsGenerated.Add(1)

	if s.cfg.DedupEnabled && s.deps.Dedup != nil {
		entry := &cache.CachedExport{
			ReportID:   report.ID,
			FileID:     file.ID,
			StorageKey: storageKey,
			Format:     string(report.Format),
			SizeBytes:  info.SizeBytes,
			ComputedAt: time.Now(),
		}
		if err := s.deps.Dedup.Set(ctx, report.CreatedBy, params, entry, s.cfg.DedupTTL); err != nil {
			log.Warn("failed to cache export for dedup", "error", err)
		}
	}

	duration := time.Since(started)
	metrics.Get().RecordExport(string(report.Format), true, duration, info.SizeBytes, rowCount)

	log.Info("report generated",
		"format", report.Format,
		"rows", rowCount,
		"size_bytes", info.SizeBytes,
		"duration_ms", duration.Milliseconds())

	s.notifyCompleted(report)
	return nil
}

// render выгружает строки и прогоняет их через рендерер формата
func (s *ReportService) render(ctx context.Context, report *domain.Report) (*renderArtifact, int, error) {
	rend, err := s.deps.Renderers.Get(report.Format)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.CodeInvalidFormat, "unsupported report format")
	}

	if err := s.deps.Repo.SetProgress(ctx, report.ID, 10); err != nil {
		logger.Warn("failed to set progress", "report_id", report.ID, "error", err)
	}

	rows, err := s.deps.Rows.Rows(ctx, report, s.cfg.MaxRows)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, apperror.Wrap(err, apperror.CodeTimeout, "report data query timed out")
		}
		return nil, 0, apperror.Wrap(err, apperror.CodeInternal, "failed to load report data")
	}

	if err := s.deps.Repo.SetProgress(ctx, report.ID, 60); err != nil {
		logger.Warn("failed to set progress", "report_id", report.ID, "error", err)
	}

	artifact, err := rend.Render(ctx, report, rows)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, apperror.Wrap(err, apperror.CodeTimeout, "report rendering timed out")
		}
		return nil, 0, apperror.Wrap(err, apperror.CodeRenderFailed, "failed to render report")
	}

	return &renderArtifact{Data: artifact.Data, MimeType: artifact.MimeType, FileName: artifact.FileName}, len(rows), nil
}

type renderArtifact struct {
	Data     []byte
	MimeType string
	FileName string
}

// failExport помечает отчёт проваленным и уведомляет владельца.
// Сама пометка best effort: отчёт, застрявший в processing, не
// страшнее отчёта без сообщения об ошибке.
func (s *ReportService) failExport(ctx context.Context, report *domain.Report, started time.Time, cause error) {
	telemetry.SetError(ctx, cause)
	metrics.Get().RecordExport(string(report.Format), false, time.Since(started), 0, 0)

	logger.Error("report generation failed",
		"report_id", report.ID,
		"format", report.Format,
		"error", cause)

	// Отдельный контекст: исходный мог истечь по таймауту рендера
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.deps.Repo.MarkFailed(markCtx, report.ID, cause.Error()); err != nil {
		logger.Error("failed to mark report as failed", "report_id", report.ID, "error", err)
	}

	if err := s.deps.Notifier.NotifyFailed(markCtx, report, cause.Error()); err != nil {
		logger.Warn("failure notification failed", "report_id", report.ID, "error", err)
	}
}

func (s *ReportService) notifyCompleted(report *domain.Report) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.deps.Notifier.NotifyCompleted(ctx, report, s.downloadURL(report.ID)); err != nil {
		logger.Warn("completion notification failed", "report_id", report.ID, "error", err)
	}
}
