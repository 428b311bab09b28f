// services/report-svc/internal/renderer/csv_test.go

package renderer

import (
	"context"
	"strings"
	"testing"

	"assethub/services/report-svc/internal/domain"
	"assethub/services/report-svc/internal/rowsource"
)

func TestCSVRenderer_Format(t *testing.T) {
	r := NewCSVRenderer()
	if r.Format() != domain.FormatCSV {
		t.Errorf("Format() = %v, want csv", r.Format())
	}
}

func TestCSVRenderer_Render(t *testing.T) {
	r := NewCSVRenderer()
	report := testReport(domain.FormatCSV)

	rows := []rowsource.Row{
		{"id": "1", "name": "ThinkPad"},
		{"id": "2", "name": "Monitor"},
	}

	artifact, err := r.Render(context.Background(), report, rows)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	body := string(artifact.Data)
	if !strings.HasPrefix(body, "id,name\n") {
		t.Errorf("header should be literal id,name, got %q", body[:min(len(body), 20)])
	}

	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[1] != "1,ThinkPad" || lines[2] != "2,Monitor" {
		t.Errorf("rows out of order or malformed: %v", lines[1:])
	}

	if strings.HasSuffix(body, "\n\n") {
		t.Error("no trailing blank line allowed")
	}
	if artifact.MimeType != "text/csv" {
		t.Errorf("MimeType = %q", artifact.MimeType)
	}
}

func TestCSVRenderer_QuotesDoubled(t *testing.T) {
	r := NewCSVRenderer()
	report := testReport(domain.FormatCSV)

	rows := []rowsource.Row{
		{"id": "1", "name": `15" monitor, black`},
	}

	artifact, err := r.Render(context.Background(), report, rows)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !strings.Contains(string(artifact.Data), `"15"" monitor, black"`) {
		t.Errorf("embedded quotes should be doubled: %q", artifact.Data)
	}
}

func TestCSVRenderer_EmptyRows(t *testing.T) {
	r := NewCSVRenderer()
	report := testReport(domain.FormatCSV)

	artifact, err := r.Render(context.Background(), report, nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if string(artifact.Data) != "id,name\n" {
		t.Errorf("empty input should produce header-only CSV, got %q", artifact.Data)
	}
}

func TestCSVRenderer_MissingKeys(t *testing.T) {
	r := NewCSVRenderer()
	report := testReport(domain.FormatCSV)

	rows := []rowsource.Row{
		{"id": "1"}, // name отсутствует
	}

	artifact, err := r.Render(context.Background(), report, rows)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !strings.Contains(string(artifact.Data), "1,\n") {
		t.Errorf("missing key should render empty field: %q", artifact.Data)
	}
}
