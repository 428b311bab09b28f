// services/report-svc/internal/service/report.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"assethub/pkg/apperror"
	"assethub/pkg/cache"
	"assethub/pkg/logger"
	"assethub/pkg/queue"
	"assethub/pkg/storage"
	"assethub/pkg/telemetry"
	"assethub/services/report-svc/internal/access"
	"assethub/services/report-svc/internal/domain"
	"assethub/services/report-svc/internal/notify"
	"assethub/services/report-svc/internal/renderer"
	"assethub/services/report-svc/internal/repository"
	"assethub/services/report-svc/internal/rowsource"
)

var startTime = time.Now()

// Deps внешние зависимости сервиса отчётов
type Deps struct {
	Repo      repository.Repository
	Rows      rowsource.RowSource
	Renderers renderer.Registry
	Store     storage.Store
	Queue     queue.Queue
	Dedup     *cache.DedupCache
	Notifier  notify.Notifier
	Policy    access.AccessPolicy
}

// Config настройки сервиса отчётов
type Config struct {
	Version       string
	BaseURL       string
	DedupEnabled  bool
	DedupTTL      time.Duration
	RenderTimeout time.Duration
	MaxRows       int
	InlineExport  bool
	DefaultExpiry time.Duration
}

// ReportService логика управления отчётами и экспортом
type ReportService struct {
	cfg  Config
	deps Deps

	reportsGenerated atomic.Int64
}

// NewReportService создаёт новый сервис
func NewReportService(cfg Config, deps Deps) *ReportService {
	if deps.Policy == nil {
		deps.Policy = access.NewOwnerPolicy()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewLogNotifier()
	}
	return &ReportService{
		cfg:  cfg,
		deps: deps,
	}
}

// CreateReport создаёт определение отчёта в статусе pending
func (s *ReportService) CreateReport(ctx context.Context, id *access.Identity, params repository.CreateParams) (*domain.Report, error) {
	ctx, span := telemetry.StartSpan(ctx, "ReportService.CreateReport",
		trace.WithAttributes(attribute.String("report.type", string(params.Type))))
	defer span.End()

	if id.Anonymous() {
		return nil, apperror.New(apperror.CodeUnauthenticated, "authentication required")
	}

	params.CreatedBy = id.UserID
	draft := &domain.Report{
		Name:      params.Name,
		Type:      params.Type,
		Filters:   params.Filters,
		Columns:   params.Columns,
		Sorting:   params.Sorting,
		Format:    params.Format,
		CreatedBy: params.CreatedBy,
	}
	if err := draft.Validate(); err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	report, err := s.deps.Repo.Create(ctx, &params)
	if err != nil {
		telemetry.SetError(ctx, err)
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, apperror.Wrap(err, apperror.CodeConflict, "report with this name already exists")
		}
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to create report")
	}

	logger.Info("report created",
		"report_id", report.ID,
		"type", report.Type,
		"format", report.Format,
		"user_id", id.UserID)

	return report, nil
}

// GetReport возвращает отчёт с проверкой прав доступа
func (s *ReportService) GetReport(ctx context.Context, id *access.Identity, reportID string) (*domain.Report, error) {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !s.deps.Policy.CanView(id, report) {
		return nil, apperror.New(apperror.CodePermissionDenied, "no access to this report")
	}
	return report, nil
}

// ListReports возвращает страницу отчётов пользователя
func (s *ReportService) ListReports(ctx context.Context, id *access.Identity, params repository.ListParams) (*repository.ListResult, error) {
	if id.Anonymous() {
		return nil, apperror.New(apperror.CodeUnauthenticated, "authentication required")
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}
	if params.Limit > 100 {
		return nil, apperror.NewWithField(apperror.CodeInvalidPagination, "limit must not exceed 100", "limit")
	}
	if params.Offset < 0 {
		return nil, apperror.NewWithField(apperror.CodeInvalidPagination, "offset must not be negative", "offset")
	}

	if !id.IsAdmin() {
		params.CreatedBy = id.UserID
		params.IncludePublic = true
	}

	result, err := s.deps.Repo.List(ctx, &params)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to list reports")
	}
	return result, nil
}

// UpdateReport изменяет определение отчёта. Тип отчёта неизменяем.
func (s *ReportService) UpdateReport(ctx context.Context, id *access.Identity, reportID string, params repository.UpdateParams) (*domain.Report, error) {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !s.deps.Policy.CanModify(id, report) {
		return nil, apperror.New(apperror.CodePermissionDenied, "only the owner can modify a report")
	}
	if report.Status == domain.StatusProcessing {
		return nil, apperror.New(apperror.CodeConflict, "report is being generated")
	}

	patched := *report
	if params.Name != nil {
		patched.Name = *params.Name
	}
	if params.Columns != nil {
		patched.Columns = params.Columns
	}
	if params.Filters != nil {
		patched.Filters = params.Filters
	}
	if params.Sorting != nil {
		patched.Sorting = params.Sorting
	}
	if params.Format != nil {
		patched.Format = *params.Format
	}
	if err := patched.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.deps.Repo.Update(ctx, reportID, &params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.New(apperror.CodeNotFound, "report not found")
		}
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to update report")
	}
	return updated, nil
}

// DeleteReport мягко удаляет отчёт владельца
func (s *ReportService) DeleteReport(ctx context.Context, id *access.Identity, reportID string) error {
	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return err
	}
	if !s.deps.Policy.CanModify(id, report) {
		return apperror.New(apperror.CodePermissionDenied, "only the owner can delete a report")
	}

	if err := s.deps.Repo.Delete(ctx, reportID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.New(apperror.CodeNotFound, "report not found")
		}
		return apperror.Wrap(err, apperror.CodeInternal, "failed to delete report")
	}

	logger.Info("report deleted", "report_id", reportID, "user_id", id.UserID)
	return nil
}

// HealthInfo состояние сервиса для health-эндпоинта
type HealthInfo struct {
	Version          string        `json:"version"`
	Uptime           time.Duration `json:"uptime"`
	ReportsGenerated int64         `json:"reports_generated"`
	QueueDepth       int64         `json:"queue_depth"`
	DatabaseOK       bool          `json:"database_ok"`
}

// Health возвращает сводку состояния сервиса
func (s *ReportService) Health(ctx context.Context) *HealthInfo {
	info := &HealthInfo{
		Version:          s.cfg.Version,
		Uptime:           time.Since(startTime).Round(time.Second),
		ReportsGenerated: s.reportsGenerated.Load(),
		DatabaseOK:       s.deps.Repo.Ping(ctx) == nil,
	}
	if s.deps.Queue != nil {
		if depth, err := s.deps.Queue.Len(ctx); err == nil {
			info.QueueDepth = depth
		}
	}
	return info
}

// Stats возвращает агрегаты по отчётам пользователя
func (s *ReportService) Stats(ctx context.Context, id *access.Identity) (*repository.Stats, error) {
	if id.Anonymous() {
		return nil, apperror.New(apperror.CodeUnauthenticated, "authentication required")
	}
	userID := id.UserID
	if id.IsAdmin() {
		userID = ""
	}
	stats, err := s.deps.Repo.Stats(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to collect stats")
	}
	return stats, nil
}

func (s *ReportService) loadReport(ctx context.Context, reportID string) (*domain.Report, error) {
	report, err := s.deps.Repo.Get(ctx, reportID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperror.New(apperror.CodeNotFound, "report not found")
		case errors.Is(err, repository.ErrInvalidID):
			return nil, apperror.NewWithField(apperror.CodeInvalidArgument, "invalid report id", "report_id")
		default:
			return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to load report")
		}
	}
	return report, nil
}

func (s *ReportService) downloadURL(reportID string) string {
	return fmt.Sprintf("%s/api/v1/reports/%s/download", s.cfg.BaseURL, reportID)
}
