// services/report-svc/internal/renderer/excel.go
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"assethub/services/report-svc/internal/domain"
	"assethub/services/report-svc/internal/rowsource"
)

const sheetName = "Report"

// ExcelRenderer генератор XLSX выгрузок
type ExcelRenderer struct {
	BaseRenderer
}

// NewExcelRenderer создаёт новый рендерер
func NewExcelRenderer() *ExcelRenderer {
	return &ExcelRenderer{}
}

// Format возвращает формат рендерера
func (r *ExcelRenderer) Format() domain.Format {
	return domain.FormatXLSX
}

// Render генерирует книгу с одним листом: строка заголовков из меток
// колонок, далее по одной строке на запись источника
func (r *ExcelRenderer) Render(ctx context.Context, report *domain.Report, rows []rowsource.Row) (*Artifact, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(sheetName); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	// Заголовок
	for i, label := range r.Labels(report.Columns) {
		if err := f.SetCellValue(sheetName, CellByIndex(i, 1), label); err != nil {
			return nil, fmt.Errorf("write header cell: %w", err)
		}
	}
	lastCol := ColName(len(report.Columns) - 1)
	if err := f.SetCellStyle(sheetName, "A1", Cell(lastCol, 1), headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	// Данные: порядок строк источника сохраняется
	for rowIdx, row := range rows {
		for colIdx, col := range report.Columns {
			value := cellValueTyped(row, col)
			if err := f.SetCellValue(sheetName, CellByIndex(colIdx, rowIdx+2), value); err != nil {
				return nil, fmt.Errorf("write cell: %w", err)
			}
		}
	}

	// Ширина колонок по длине заголовка
	for i, label := range r.Labels(report.Columns) {
		width := float64(len(label)) + 6
		if width < 12 {
			width = 12
		}
		if width > 40 {
			width = 40
		}
		col := ColName(i)
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	return &Artifact{
		Data:     buf.Bytes(),
		MimeType: domain.FormatXLSX.MimeType(),
		FileName: r.FileName(report),
	}, nil
}

// cellValueTyped возвращает значение ячейки, сохраняя числа числами.
// Даты и пропуски форматируются как в остальных рендерерах.
func cellValueTyped(row rowsource.Row, col domain.ColumnSpec) any {
	v, ok := row[col.Key]
	if !ok || v == nil {
		return ""
	}

	switch val := v.(type) {
	case float64, float32, int, int32, int64:
		return val
	case time.Time:
		if col.Type == "date" {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	default:
		return BaseRenderer{}.FormatValue(v, col.Type)
	}
}

// ColName преобразует индекс колонки в буквенное обозначение (0 -> A, 25 -> Z, 26 -> AA)
func ColName(index int) string {
	result := ""
	for {
		result = string(rune('A'+index%26)) + result
		index = index/26 - 1
		if index < 0 {
			break
		}
	}
	return result
}

// Cell возвращает адрес ячейки
func Cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// CellByIndex возвращает адрес ячейки по индексам
func CellByIndex(colIndex, rowIndex int) string {
	return fmt.Sprintf("%s%d", ColName(colIndex), rowIndex)
}
