// services/report-svc/internal/renderer/renderer.go
package renderer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"assethub/services/report-svc/internal/domain"
	"assethub/services/report-svc/internal/rowsource"
)

// Artifact результат генерации: байты, тип содержимого и имя файла
type Artifact struct {
	Data     []byte
	MimeType string
	FileName string
}

// Renderer генератор отчёта в одном формате.
// Заголовок повторяет колонки отчёта в объявленном порядке,
// строки идут в порядке источника без пересортировки.
type Renderer interface {
	// Render генерирует артефакт из строк источника
	Render(ctx context.Context, report *domain.Report, rows []rowsource.Row) (*Artifact, error)

	// Format возвращает формат рендерера
	Format() domain.Format
}

// Registry набор рендереров по формату
type Registry map[domain.Format]Renderer

// NewRegistry создаёт реестр со всеми поддерживаемыми форматами
func NewRegistry(pdfOpts PDFOptions) Registry {
	return Registry{
		domain.FormatCSV:  NewCSVRenderer(),
		domain.FormatXLSX: NewExcelRenderer(),
		domain.FormatPDF:  NewPDFRenderer(pdfOpts),
	}
}

// Get возвращает рендерер для формата
func (r Registry) Get(format domain.Format) (Renderer, error) {
	renderer, ok := r[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return renderer, nil
}

// BaseRenderer общие хелперы форматирования
type BaseRenderer struct{}

// CellValue возвращает строковое значение ячейки.
// Отсутствующий или nil ключ даёт пустую строку, не ошибку.
func (b BaseRenderer) CellValue(row rowsource.Row, col domain.ColumnSpec) string {
	v, ok := row[col.Key]
	if !ok || v == nil {
		return ""
	}
	return b.FormatValue(v, col.Type)
}

// FormatValue форматирует значение с учётом подсказки типа колонки
func (b BaseRenderer) FormatValue(v any, colType string) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		if colType == "date" {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FileName строит имя файла отчёта: имя_метка-времени.расширение
func (b BaseRenderer) FileName(report *domain.Report) string {
	return fmt.Sprintf("%s_%s%s",
		sanitizeFilename(report.Name),
		time.Now().Format("20060102_150405"),
		report.Format.Extension(),
	)
}

// Labels возвращает заголовки колонок в объявленном порядке
func (b BaseRenderer) Labels(columns []domain.ColumnSpec) []string {
	labels := make([]string, len(columns))
	for i, c := range columns {
		if c.Label != "" {
			labels[i] = c.Label
		} else {
			labels[i] = c.Key
		}
	}
	return labels
}

func sanitizeFilename(s string) string {
	result := make([]rune, 0, len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' {
			result = append(result, r)
		} else if r == ' ' {
			result = append(result, '_')
		}
	}
	if len(result) == 0 {
		return "report"
	}
	return string(result)
}
