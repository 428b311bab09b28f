// services/report-svc/internal/domain/report.go
package domain

import (
	"fmt"
	"time"

	"assethub/pkg/apperror"
)

// ReportType тип отчёта
type ReportType string

const (
	ReportTypeAsset        ReportType = "asset"
	ReportTypeInventory    ReportType = "inventory"
	ReportTypeMaintenance  ReportType = "maintenance"
	ReportTypeDepreciation ReportType = "depreciation"
	ReportTypeCustom       ReportType = "custom"
)

// Valid проверяет, что тип отчёта известен
func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeAsset, ReportTypeInventory, ReportTypeMaintenance,
		ReportTypeDepreciation, ReportTypeCustom:
		return true
	}
	return false
}

// Format формат выгрузки
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// Valid проверяет, что формат поддерживается
func (f Format) Valid() bool {
	switch f {
	case FormatXLSX, FormatCSV, FormatPDF:
		return true
	}
	return false
}

// Extension возвращает расширение файла для формата
func (f Format) Extension() string {
	switch f {
	case FormatXLSX:
		return ".xlsx"
	case FormatCSV:
		return ".csv"
	case FormatPDF:
		return ".pdf"
	default:
		return ".bin"
	}
}

// MimeType возвращает MIME-тип для формата
func (f Format) MimeType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Status статус жизненного цикла отчёта
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal возвращает true для конечных статусов
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo проверяет допустимость перехода статуса.
// Единственные разрешённые переходы: pending -> processing -> {completed, failed}.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// SortDirection направление сортировки
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Filter условие отбора строк отчёта
type Filter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// validOperators операторы, допустимые в фильтрах
var validOperators = map[string]bool{
	"eq":       true,
	"neq":      true,
	"gt":       true,
	"gte":      true,
	"lt":       true,
	"lte":      true,
	"like":     true,
	"in":       true,
	"not_null": true,
	"is_null":  true,
}

// ColumnSpec колонка выгрузки: ключ поля источника и заголовок
type ColumnSpec struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	// Type подсказка форматирования: string|number|currency|date|bool
	Type string `json:"type,omitempty"`
}

// Sorting правило сортировки строк отчёта
type Sorting struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// Report определение отчёта: что и в каком виде генерировать
type Report struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Type         ReportType   `json:"type"`
	Filters      []Filter     `json:"filters,omitempty"`
	Columns      []ColumnSpec `json:"columns"`
	Sorting      *Sorting     `json:"sorting,omitempty"`
	Grouping     string       `json:"grouping,omitempty"`
	Format       Format       `json:"format"`
	IsPublic     bool         `json:"is_public"`
	Status       Status       `json:"status"`
	Progress     int          `json:"progress"`
	ErrorMessage string       `json:"error_message,omitempty"`
	CreatedBy    string       `json:"created_by"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	DeletedAt    *time.Time   `json:"-"`
}

// IsOwner проверяет владельца
func (r *Report) IsOwner(userID string) bool {
	return userID != "" && r.CreatedBy == userID
}

// ColumnKeys возвращает ключи колонок в объявленном порядке
func (r *Report) ColumnKeys() []string {
	keys := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		keys[i] = c.Key
	}
	return keys
}

// Validate проверяет структурную корректность определения отчёта.
// Семантика полей против источника данных не проверяется.
func (r *Report) Validate() error {
	v := apperror.NewValidationErrors()

	if r.Name == "" {
		v.AddErrorWithField(apperror.CodeEmptyTitle, "report name is required", "name")
	}

	if !r.Type.Valid() {
		v.Add(apperror.NewWithField(apperror.CodeValidation,
			fmt.Sprintf("unknown report type: %q", r.Type), "type"))
	}

	if !r.Format.Valid() {
		v.Add(apperror.NewWithField(apperror.CodeInvalidFormat,
			fmt.Sprintf("unknown format: %q", r.Format), "format"))
	}

	if len(r.Columns) == 0 {
		v.Add(apperror.NewWithField(apperror.CodeInvalidColumns,
			"at least one column is required", "columns"))
	}

	seen := make(map[string]bool, len(r.Columns))
	for i, c := range r.Columns {
		if c.Key == "" {
			v.Add(apperror.NewWithField(apperror.CodeInvalidColumns,
				fmt.Sprintf("column %d has empty key", i), "columns"))
			continue
		}
		if seen[c.Key] {
			v.Add(apperror.NewWithField(apperror.CodeInvalidColumns,
				fmt.Sprintf("duplicate column key: %q", c.Key), "columns"))
		}
		seen[c.Key] = true
	}

	for i, f := range r.Filters {
		if f.Field == "" {
			v.Add(apperror.NewWithField(apperror.CodeInvalidFilter,
				fmt.Sprintf("filter %d has empty field", i), "filters"))
		}
		if !validOperators[f.Operator] {
			v.Add(apperror.NewWithField(apperror.CodeInvalidFilter,
				fmt.Sprintf("filter %d has unknown operator: %q", i, f.Operator), "filters"))
		}
	}

	if r.Sorting != nil {
		if r.Sorting.Field == "" {
			v.Add(apperror.NewWithField(apperror.CodeInvalidSorting,
				"sorting field is required", "sorting"))
		}
		if r.Sorting.Direction != SortAsc && r.Sorting.Direction != SortDesc {
			v.Add(apperror.NewWithField(apperror.CodeInvalidSorting,
				fmt.Sprintf("sorting direction must be asc or desc, got %q", r.Sorting.Direction), "sorting"))
		}
	}

	return v.AsError()
}
