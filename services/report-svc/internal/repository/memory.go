// services/report-svc/internal/repository/memory.go
package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"assethub/services/report-svc/internal/domain"
)

// MemoryRepository in-memory реализация Repository. Используется в
// тестах и в dev-режиме без PostgreSQL. Семантика переходов статусов
// та же, что и у PostgresRepository.
type MemoryRepository struct {
	mu      sync.RWMutex
	reports map[string]*domain.Report
	files   map[string]*domain.ReportFile
	byName  map[string]string // createdBy+name -> id
}

// NewMemoryRepository создаёт новый in-memory репозиторий
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		reports: make(map[string]*domain.Report),
		files:   make(map[string]*domain.ReportFile),
		byName:  make(map[string]string),
	}
}

func nameKey(createdBy, name string) string {
	return createdBy + "\x00" + name
}

func (r *MemoryRepository) Create(ctx context.Context, params *CreateParams) (*domain.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := nameKey(params.CreatedBy, params.Name)
	if _, exists := r.byName[key]; exists {
		return nil, ErrAlreadyExists
	}

	now := time.Now()
	report := &domain.Report{
		ID:          uuid.New().String(),
		Name:        params.Name,
		Description: params.Description,
		Type:        params.Type,
		Filters:     params.Filters,
		Columns:     params.Columns,
		Sorting:     params.Sorting,
		Grouping:    params.Grouping,
		Format:      params.Format,
		IsPublic:    params.IsPublic,
		Status:      domain.StatusPending,
		CreatedBy:   params.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	stored := *report
	r.reports[report.ID] = &stored
	r.byName[key] = report.ID
	return report, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*domain.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, ok := r.reports[id]
	if !ok || report.DeletedAt != nil {
		return nil, ErrNotFound
	}
	cp := *report
	return &cp, nil
}

func (r *MemoryRepository) List(ctx context.Context, params *ListParams) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.Report
	for _, report := range r.reports {
		if report.DeletedAt != nil {
			continue
		}
		if !matchesList(report, params) {
			continue
		}
		cp := *report
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		less := matched[i].CreatedAt.Before(matched[j].CreatedAt)
		if params.Desc {
			return !less
		}
		return less
	})

	total := len(matched)
	if params.Offset > 0 {
		if params.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[params.Offset:]
		}
	}
	hasMore := false
	if params.Limit > 0 && len(matched) > params.Limit {
		matched = matched[:params.Limit]
		hasMore = true
	}

	return &ListResult{Reports: matched, TotalCount: int64(total), HasMore: hasMore}, nil
}

func matchesList(report *domain.Report, params *ListParams) bool {
	if params.CreatedBy != "" && report.CreatedBy != params.CreatedBy {
		if !params.IncludePublic || !report.IsPublic {
			return false
		}
	}
	if params.Type != "" && report.Type != params.Type {
		return false
	}
	if params.Status != "" && report.Status != params.Status {
		return false
	}
	if params.Format != "" && report.Format != params.Format {
		return false
	}
	if params.NameContains != "" && !strings.Contains(strings.ToLower(report.Name), strings.ToLower(params.NameContains)) {
		return false
	}
	if params.CreatedAfter != nil && report.CreatedAt.Before(*params.CreatedAfter) {
		return false
	}
	if params.CreatedBefore != nil && report.CreatedAt.After(*params.CreatedBefore) {
		return false
	}
	return true
}

func (r *MemoryRepository) Update(ctx context.Context, id string, params *UpdateParams) (*domain.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[id]
	if !ok || report.DeletedAt != nil {
		return nil, ErrNotFound
	}

	if params.Name != nil && *params.Name != report.Name {
		delete(r.byName, nameKey(report.CreatedBy, report.Name))
		report.Name = *params.Name
		r.byName[nameKey(report.CreatedBy, report.Name)] = report.ID
	}
	if params.Description != nil {
		report.Description = *params.Description
	}
	if params.Filters != nil {
		report.Filters = params.Filters
	}
	if params.Columns != nil {
		report.Columns = params.Columns
	}
	if params.Sorting != nil {
		report.Sorting = params.Sorting
	}
	if params.Format != nil {
		report.Format = *params.Format
	}
	if params.IsPublic != nil {
		report.IsPublic = *params.IsPublic
	}
	report.UpdatedAt = time.Now()

	cp := *report
	return &cp, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[id]
	if !ok || report.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now()
	report.DeletedAt = &now
	delete(r.byName, nameKey(report.CreatedBy, report.Name))
	return nil
}

func (r *MemoryRepository) HardDelete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byName, nameKey(report.CreatedBy, report.Name))
	delete(r.reports, id)
	for fileID, file := range r.files {
		if file.ReportID == id {
			delete(r.files, fileID)
		}
	}
	return nil
}

func (r *MemoryRepository) ClaimProcessing(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[id]
	if !ok || report.DeletedAt != nil {
		return false, ErrNotFound
	}
	if report.Status != domain.StatusPending {
		return false, nil
	}
	report.Status = domain.StatusProcessing
	report.Progress = 0
	report.ErrorMessage = ""
	report.UpdatedAt = time.Now()
	return true, nil
}

func (r *MemoryRepository) SetProgress(ctx context.Context, id string, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[id]
	if !ok {
		return ErrNotFound
	}
	if report.Status != domain.StatusProcessing {
		return ErrNotClaimable
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	report.Progress = progress
	return nil
}

func (r *MemoryRepository) MarkCompleted(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[id]
	if !ok {
		return ErrNotFound
	}
	if report.Status != domain.StatusProcessing {
		return ErrNotClaimable
	}
	report.Status = domain.StatusCompleted
	report.Progress = 100
	report.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) MarkFailed(ctx context.Context, id, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[id]
	if !ok {
		return ErrNotFound
	}
	message = truncateErrorMessage(message)
	report.Status = domain.StatusFailed
	report.ErrorMessage = message
	report.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) CreateFile(ctx context.Context, params *CreateFileParams) (*domain.ReportFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file := &domain.ReportFile{
		ID:          uuid.New().String(),
		ReportID:    params.ReportID,
		FileName:    params.FileName,
		FilePath:    params.FilePath,
		FileSize:    params.FileSize,
		MimeType:    params.MimeType,
		GeneratedBy: params.GeneratedBy,
		Metadata:    params.Metadata,
		ExpiresAt:   params.ExpiresAt,
		CreatedAt:   time.Now(),
	}
	stored := *file
	r.files[file.ID] = &stored
	return file, nil
}

func (r *MemoryRepository) CompleteWithFile(ctx context.Context, params *CreateFileParams) (*domain.ReportFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[params.ReportID]
	if !ok || report.DeletedAt != nil {
		return nil, ErrNotFound
	}
	if report.Status != domain.StatusProcessing {
		return nil, ErrNotClaimable
	}

	file := &domain.ReportFile{
		ID:          uuid.New().String(),
		ReportID:    params.ReportID,
		FileName:    params.FileName,
		FilePath:    params.FilePath,
		FileSize:    params.FileSize,
		MimeType:    params.MimeType,
		GeneratedBy: params.GeneratedBy,
		Metadata:    params.Metadata,
		ExpiresAt:   params.ExpiresAt,
		CreatedAt:   time.Now(),
	}
	stored := *file
	r.files[file.ID] = &stored

	report.Status = domain.StatusCompleted
	report.Progress = 100
	report.ErrorMessage = ""
	report.UpdatedAt = time.Now()

	return file, nil
}

func (r *MemoryRepository) GetFile(ctx context.Context, fileID string) (*domain.ReportFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	file, ok := r.files[fileID]
	if !ok {
		return nil, ErrFileNotFound
	}
	cp := *file
	return &cp, nil
}

func (r *MemoryRepository) LatestFile(ctx context.Context, reportID string) (*domain.ReportFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.ReportFile
	for _, file := range r.files {
		if file.ReportID != reportID {
			continue
		}
		if latest == nil || file.CreatedAt.After(latest.CreatedAt) {
			latest = file
		}
	}
	if latest == nil {
		return nil, ErrFileNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *MemoryRepository) ListFiles(ctx context.Context, reportID string) ([]*domain.ReportFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var files []*domain.ReportFile
	for _, file := range r.files {
		if file.ReportID == reportID {
			cp := *file
			files = append(files, &cp)
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

func (r *MemoryRepository) IncrementDownloads(ctx context.Context, fileID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, ok := r.files[fileID]
	if !ok {
		return 0, ErrFileNotFound
	}
	file.DownloadCount++
	return file.DownloadCount, nil
}

func (r *MemoryRepository) DeleteFile(ctx context.Context, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.files[fileID]; !ok {
		return ErrFileNotFound
	}
	delete(r.files, fileID)
	return nil
}

func (r *MemoryRepository) ExpiredFiles(ctx context.Context, limit int) ([]*domain.ReportFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var expired []*domain.ReportFile
	for _, file := range r.files {
		if !file.IsExpired() {
			continue
		}
		cp := *file
		expired = append(expired, &cp)
		if limit > 0 && len(expired) >= limit {
			break
		}
	}
	return expired, nil
}

func (r *MemoryRepository) Stats(ctx context.Context, userID string) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &Stats{
		ByStatus: make(map[domain.Status]int64),
		ByFormat: make(map[domain.Format]int64),
	}
	for _, report := range r.reports {
		if report.DeletedAt != nil {
			continue
		}
		if userID != "" && report.CreatedBy != userID {
			continue
		}
		stats.TotalReports++
		stats.ByStatus[report.Status]++
		stats.ByFormat[report.Format]++
	}
	for _, file := range r.files {
		if report, ok := r.reports[file.ReportID]; ok {
			if userID != "" && report.CreatedBy != userID {
				continue
			}
		}
		stats.TotalFiles++
		stats.TotalSizeBytes += file.FileSize
	}
	return stats, nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error { return nil }

func (r *MemoryRepository) Close() error { return nil }
