// services/report-svc/internal/domain/file.go
package domain

import "time"

// FileMetadata снимок параметров генерации, сохраняемый рядом с файлом
type FileMetadata struct {
	ReportType ReportType   `json:"report_type"`
	Format     Format       `json:"format"`
	Filters    []Filter     `json:"filters,omitempty"`
	Columns    []ColumnSpec `json:"columns,omitempty"`
	Sorting    *Sorting     `json:"sorting,omitempty"`
	RowCount   int          `json:"row_count"`
	ExportHash string       `json:"export_hash,omitempty"`
}

// ReportFile сгенерированный артефакт отчёта.
// Создаётся только успешным завершением задачи экспорта,
// после создания меняется только счётчик скачиваний.
type ReportFile struct {
	ID            string
	ReportID      string
	FileName      string
	FilePath      string
	FileSize      int64
	MimeType      string
	GeneratedBy   string
	Metadata      *FileMetadata
	DownloadCount int64
	ExpiresAt     *time.Time
	CreatedAt     time.Time
}

// IsExpired возвращает true, если срок жизни файла истёк.
// Нулевой expires_at означает бессрочный файл.
func (f *ReportFile) IsExpired() bool {
	if f.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*f.ExpiresAt)
}

// IsDownloadable файл доступен для скачивания, пока не истёк
func (f *ReportFile) IsDownloadable() bool {
	return !f.IsExpired()
}
