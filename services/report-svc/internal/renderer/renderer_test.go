// services/report-svc/internal/renderer/renderer_test.go

package renderer

import (
	"testing"
	"time"

	"assethub/services/report-svc/internal/domain"
	"assethub/services/report-svc/internal/rowsource"
)

func testReport(format domain.Format) *domain.Report {
	return &domain.Report{
		ID:     "rep-1",
		Name:   "Asset inventory",
		Type:   domain.ReportTypeAsset,
		Format: format,
		Columns: []domain.ColumnSpec{
			{Key: "id", Label: "id"},
			{Key: "name", Label: "name"},
		},
		Status:    domain.StatusProcessing,
		CreatedBy: "user-1",
	}
}

func TestFormatValue(t *testing.T) {
	b := BaseRenderer{}

	cases := []struct {
		value   any
		colType string
		want    string
	}{
		{"hello", "", "hello"},
		{[]byte("raw"), "", "raw"},
		{true, "", "true"},
		{42, "", "42"},
		{int64(7), "", "7"},
		{3.14, "number", "3.14"},
		{1299.5, "currency", "1299.5"},
		{time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC), "date", "2026-03-15"},
		{time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC), "", "2026-03-15 10:30:00"},
	}

	for _, tc := range cases {
		got := b.FormatValue(tc.value, tc.colType)
		if got != tc.want {
			t.Errorf("FormatValue(%v, %q) = %q, want %q", tc.value, tc.colType, got, tc.want)
		}
	}
}

func TestCellValue_MissingKey(t *testing.T) {
	b := BaseRenderer{}
	row := rowsource.Row{"name": "ThinkPad"}

	if got := b.CellValue(row, domain.ColumnSpec{Key: "absent"}); got != "" {
		t.Errorf("missing key should render empty, got %q", got)
	}
	if got := b.CellValue(rowsource.Row{"x": nil}, domain.ColumnSpec{Key: "x"}); got != "" {
		t.Errorf("nil value should render empty, got %q", got)
	}
}

func TestFileName(t *testing.T) {
	b := BaseRenderer{}
	report := testReport(domain.FormatCSV)
	report.Name = "Q1 assets: full / scan"

	name := b.FileName(report)
	if len(name) == 0 {
		t.Fatal("empty file name")
	}
	for _, r := range name {
		if r == '/' || r == ':' {
			t.Errorf("file name contains unsafe rune: %q", name)
		}
	}
	if name[len(name)-4:] != ".csv" {
		t.Errorf("expected .csv extension, got %q", name)
	}
}

func TestSanitizeFilename_Empty(t *testing.T) {
	if got := sanitizeFilename("///"); got != "report" {
		t.Errorf("sanitizeFilename fallback = %q, want report", got)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(PDFOptions{})

	for _, format := range []domain.Format{domain.FormatCSV, domain.FormatXLSX, domain.FormatPDF} {
		r, err := reg.Get(format)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", format, err)
		}
		if r.Format() != format {
			t.Errorf("Get(%s).Format() = %s", format, r.Format())
		}
	}

	if _, err := reg.Get("docx"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestColName(t *testing.T) {
	cases := map[int]string{0: "A", 1: "B", 25: "Z", 26: "AA", 27: "AB", 51: "AZ", 52: "BA"}
	for index, want := range cases {
		if got := ColName(index); got != want {
			t.Errorf("ColName(%d) = %q, want %q", index, got, want)
		}
	}
}

func TestColumnWidths(t *testing.T) {
	cases := []struct {
		n   int
		sum int
	}{
		{1, 12}, {2, 12}, {3, 12}, {5, 12}, {7, 12}, {12, 12},
	}
	for _, tc := range cases {
		widths := columnWidths(tc.n)
		if len(widths) != tc.n {
			t.Fatalf("columnWidths(%d) returned %d entries", tc.n, len(widths))
		}
		sum := 0
		for _, w := range widths {
			if w < 1 {
				t.Errorf("columnWidths(%d) has width < 1", tc.n)
			}
			sum += w
		}
		if sum != tc.sum {
			t.Errorf("columnWidths(%d) sums to %d, want %d", tc.n, sum, tc.sum)
		}
	}
}
