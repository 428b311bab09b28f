// services/report-svc/internal/repository/models.go
package repository

import (
	"time"

	"assethub/services/report-svc/internal/domain"
)

// CreateParams параметры создания определения отчёта
type CreateParams struct {
	Name        string
	Description string
	Type        domain.ReportType
	Filters     []domain.Filter
	Columns     []domain.ColumnSpec
	Sorting     *domain.Sorting
	Grouping    string
	Format      domain.Format
	IsPublic    bool
	CreatedBy   string
}

// UpdateParams изменяемые поля определения.
// Тип отчёта после создания не меняется, nil-поля не трогаются.
type UpdateParams struct {
	Name        *string
	Description *string
	Filters     []domain.Filter
	Columns     []domain.ColumnSpec
	Sorting     *domain.Sorting
	Format      *domain.Format
	IsPublic    *bool
}

// ListParams параметры выборки списка отчётов
type ListParams struct {
	CreatedBy     string
	Type          domain.ReportType
	Status        domain.Status
	Format        domain.Format
	NameContains  string
	IncludePublic bool

	CreatedAfter  *time.Time
	CreatedBefore *time.Time

	Limit   int
	Offset  int
	OrderBy string // created_at | updated_at | name | status
	Desc    bool
}

// ListResult результат выборки
type ListResult struct {
	Reports    []*domain.Report `json:"reports"`
	TotalCount int64            `json:"total_count"`
	HasMore    bool             `json:"has_more"`
}

// CreateFileParams параметры записи сгенерированного файла
type CreateFileParams struct {
	ReportID    string
	FileName    string
	FilePath    string
	FileSize    int64
	MimeType    string
	GeneratedBy string
	Metadata    *domain.FileMetadata
	ExpiresAt   *time.Time
}

// Stats агрегаты по хранилищу отчётов
type Stats struct {
	TotalReports   int64                   `json:"total_reports"`
	TotalFiles     int64                   `json:"total_files"`
	TotalSizeBytes int64                   `json:"total_size_bytes"`
	ByStatus       map[domain.Status]int64 `json:"by_status"`
	ByFormat       map[domain.Format]int64 `json:"by_format"`
}
