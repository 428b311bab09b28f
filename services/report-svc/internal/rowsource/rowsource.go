// services/report-svc/internal/rowsource/rowsource.go
package rowsource

import (
	"context"

	"assethub/services/report-svc/internal/domain"
)

// Row одна строка источника данных. Ключи соответствуют ключам колонок,
// отсутствующий ключ рендерится пустым значением.
type Row map[string]any

// RowSource источник табличных данных для генерации отчёта.
// Порядок строк определяется сортировкой отчёта и сохраняется
// рендерерами без изменений.
type RowSource interface {
	// Rows возвращает строки для отчёта. limit > 0 ограничивает выборку.
	Rows(ctx context.Context, report *domain.Report, limit int) ([]Row, error)
}

// StaticSource источник с фиксированным набором строк, для тестов
// и инлайн-данных
type StaticSource struct {
	Data []Row
	Err  error
}

// Rows возвращает заранее заданные строки
func (s *StaticSource) Rows(ctx context.Context, report *domain.Report, limit int) ([]Row, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if limit > 0 && len(s.Data) > limit {
		return s.Data[:limit], nil
	}
	return s.Data, nil
}
