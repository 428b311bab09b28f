package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Отчёт
	AttrReportID     = "report.id"
	AttrReportType   = "report.type"
	AttrReportFormat = "report.format"
	AttrReportStatus = "report.status"
	AttrReportRows   = "report.rows"
	AttrOwnerID      = "report.owner_id"

	// Экспорт
	AttrExportAttempt  = "export.attempt"
	AttrExportSize     = "export.size_bytes"
	AttrExportDedupHit = "export.dedup_hit"
	AttrStorageKey     = "export.storage_key"

	// Валидация
	AttrValidationErrors = "validation.errors"
	AttrValidationPassed = "validation.passed"
)

// ReportAttributes возвращает атрибуты отчёта
func ReportAttributes(reportID, reportType, format string, rows int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrReportID, reportID),
		attribute.String(AttrReportType, reportType),
		attribute.String(AttrReportFormat, format),
		attribute.Int(AttrReportRows, rows),
	}
}

// ExportAttributes возвращает атрибуты задачи экспорта
func ExportAttributes(reportID string, attempt int, sizeBytes int64, dedupHit bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrReportID, reportID),
		attribute.Int(AttrExportAttempt, attempt),
		attribute.Int64(AttrExportSize, sizeBytes),
		attribute.Bool(AttrExportDedupHit, dedupHit),
	}
}

// ValidationAttributes возвращает атрибуты валидации
func ValidationAttributes(errorsCount int, passed bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrValidationErrors, errorsCount),
		attribute.Bool(AttrValidationPassed, passed),
	}
}
