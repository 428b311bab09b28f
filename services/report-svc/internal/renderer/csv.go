// services/report-svc/internal/renderer/csv.go
package renderer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"assethub/services/report-svc/internal/domain"
	"assethub/services/report-svc/internal/rowsource"
)

// CSVRenderer генератор CSV выгрузок
type CSVRenderer struct {
	BaseRenderer
}

// NewCSVRenderer создаёт новый рендерер
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// Format возвращает формат рендерера
func (r *CSVRenderer) Format() domain.Format {
	return domain.FormatCSV
}

// csvWriter обёртка для отслеживания ошибок
type csvWriter struct {
	w   *csv.Writer
	err error
}

func (cw *csvWriter) Write(record []string) {
	if cw.err != nil {
		return
	}
	cw.err = cw.w.Write(record)
}

func (cw *csvWriter) Flush() {
	if cw.err != nil {
		return
	}
	cw.w.Flush()
	cw.err = cw.w.Error()
}

func (cw *csvWriter) Error() error {
	return cw.err
}

// Render генерирует CSV: заголовок из меток колонок, затем строки данных
// в порядке источника. Поля с кавычками и разделителями экранируются,
// кавычки внутри значения удваиваются, последняя строка завершается
// переводом строки без пустой строки после неё.
func (r *CSVRenderer) Render(ctx context.Context, report *domain.Report, rows []rowsource.Row) (*Artifact, error) {
	var buf bytes.Buffer
	cw := &csvWriter{w: csv.NewWriter(&buf)}

	cw.Write(r.Labels(report.Columns))

	for _, row := range rows {
		record := make([]string, len(report.Columns))
		for i, col := range report.Columns {
			record[i] = r.CellValue(row, col)
		}
		cw.Write(record)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("csv write error: %w", err)
	}

	return &Artifact{
		Data:     buf.Bytes(),
		MimeType: domain.FormatCSV.MimeType(),
		FileName: r.FileName(report),
	}, nil
}
