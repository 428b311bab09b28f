// services/report-svc/internal/renderer/pdf.go
package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"assethub/services/report-svc/internal/domain"
	"assethub/services/report-svc/internal/rowsource"
)

// Стили
var (
	// Цвета
	primaryColor   = &props.Color{Red: 52, Green: 152, Blue: 219}  // #3498db
	headerBgColor  = &props.Color{Red: 44, Green: 62, Blue: 80}    // #2c3e50
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241} // #ecf0f1
	darkGrayColor  = &props.Color{Red: 127, Green: 140, Blue: 141} // #7f8c8d

	// Стили текста
	titleStyle = props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: headerBgColor,
	}

	boldStyle = props.Text{
		Size:  10,
		Style: fontstyle.Bold,
	}

	normalStyle = props.Text{
		Size: 10,
	}

	smallStyle = props.Text{
		Size:  8,
		Color: darkGrayColor,
	}

	placeholderStyle = props.Text{
		Size:  11,
		Align: align.Center,
		Color: darkGrayColor,
		Top:   5,
	}

	tableHeaderStyle = &props.Cell{
		BackgroundColor: primaryColor,
	}

	tableHeaderTextStyle = props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
		Align: align.Center,
	}

	tableCellStyle = &props.Cell{
		BorderType:  border.Bottom,
		BorderColor: lightGrayColor,
	}

	tableCellTextStyle = props.Text{
		Size:  9,
		Align: align.Center,
	}
)

// maxPDFTableColumns предел колонок табличной раскладки страницы.
// Более широкие отчёты рендерятся блоками ключ-значение на строку.
const maxPDFTableColumns = 12

// PDFOptions настройки PDF рендерера
type PDFOptions struct {
	CompanyName       string
	EnablePageNumbers bool
	// MaxTableRows строк на таблицу до усечения, 0 = без усечения
	MaxTableRows int
}

// PDFRenderer генератор PDF выгрузок
type PDFRenderer struct {
	BaseRenderer
	opts PDFOptions
}

// NewPDFRenderer создаёт новый рендерер
func NewPDFRenderer(opts PDFOptions) *PDFRenderer {
	if opts.CompanyName == "" {
		opts.CompanyName = "AssetHub"
	}
	return &PDFRenderer{opts: opts}
}

// Format возвращает формат рендерера
func (r *PDFRenderer) Format() domain.Format {
	return domain.FormatPDF
}

// Render генерирует PDF с табличной раскладкой данных отчёта
func (r *PDFRenderer) Render(ctx context.Context, report *domain.Report, rows []rowsource.Row) (*Artifact, error) {
	builder := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15)
	if r.opts.EnablePageNumbers {
		builder = builder.WithPageNumber()
	}

	m := maroto.New(builder.Build())

	r.addHeader(m, report)

	if len(rows) == 0 {
		m.AddRow(12,
			text.NewCol(12, "No data available", placeholderStyle),
		)
	} else if len(report.Columns) <= maxPDFTableColumns {
		r.addTable(m, report, rows)
	} else {
		r.addWideRows(m, report, rows)
	}

	r.addFooter(m)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return &Artifact{
		Data:     doc.GetBytes(),
		MimeType: domain.FormatPDF.MimeType(),
		FileName: r.FileName(report),
	}, nil
}

func (r *PDFRenderer) addHeader(m core.Maroto, report *domain.Report) {
	m.AddRow(12,
		text.NewCol(12, report.Name, titleStyle),
	)

	m.AddRow(5,
		line.NewCol(12),
	)

	m.AddRow(6,
		text.NewCol(6, fmt.Sprintf("Type: %s", report.Type), smallStyle),
		text.NewCol(6, fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04:05")),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}),
	)

	if report.Description != "" {
		m.AddRow(5,
			text.NewCol(12, report.Description, smallStyle),
		)
	}

	m.AddRow(6) // Отступ
}

// addTable рендерит табличную раскладку: строка заголовков,
// затем строки данных в порядке источника
func (r *PDFRenderer) addTable(m core.Maroto, report *domain.Report, rows []rowsource.Row) {
	widths := columnWidths(len(report.Columns))
	labels := r.Labels(report.Columns)

	headerCols := make([]core.Col, len(labels))
	for i, label := range labels {
		headerCols[i] = text.NewCol(widths[i], label, tableHeaderTextStyle).WithStyle(tableHeaderStyle)
	}
	m.AddRow(8, headerCols...)

	maxRows := r.opts.MaxTableRows
	for i, row := range rows {
		if maxRows > 0 && i >= maxRows {
			m.AddRow(6,
				text.NewCol(12, fmt.Sprintf("... and %d more rows", len(rows)-maxRows), smallStyle),
			)
			break
		}

		cells := make([]core.Col, len(report.Columns))
		for j, col := range report.Columns {
			cells[j] = text.NewCol(widths[j], r.CellValue(row, col), tableCellTextStyle).WithStyle(tableCellStyle)
		}
		m.AddRow(6, cells...)
	}
}

// addWideRows рендерит отчёты шире табличной раскладки
// блоками ключ-значение, по блоку на строку данных
func (r *PDFRenderer) addWideRows(m core.Maroto, report *domain.Report, rows []rowsource.Row) {
	labels := r.Labels(report.Columns)

	maxRows := r.opts.MaxTableRows
	for i, row := range rows {
		if maxRows > 0 && i >= maxRows {
			m.AddRow(6,
				text.NewCol(12, fmt.Sprintf("... and %d more rows", len(rows)-maxRows), smallStyle),
			)
			break
		}

		m.AddRow(7,
			text.NewCol(12, fmt.Sprintf("Record %d", i+1), boldStyle),
		)
		for j, col := range report.Columns {
			m.AddRow(5,
				text.NewCol(4, labels[j], boldStyle),
				text.NewCol(8, r.CellValue(row, col), normalStyle),
			)
		}
		m.AddRow(3,
			line.NewCol(12, props.Line{Color: lightGrayColor}),
		)
	}
}

func (r *PDFRenderer) addFooter(m core.Maroto) {
	m.AddRow(8)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: lightGrayColor}),
	)
	m.AddRow(6,
		text.NewCol(12,
			fmt.Sprintf("Generated by %s | %s", r.opts.CompanyName, time.Now().Format("2006-01-02 15:04:05")),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Center},
		),
	)
}

// columnWidths распределяет 12 единиц ширины страницы между колонками
func columnWidths(n int) []int {
	widths := make([]int, n)
	base := 12 / n
	extra := 12 % n
	for i := range widths {
		widths[i] = base
		if i < extra {
			widths[i]++
		}
	}
	return widths
}
