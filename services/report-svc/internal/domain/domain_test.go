// services/report-svc/internal/domain/domain_test.go
package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assethub/pkg/apperror"
)

func validReport() *Report {
	return &Report{
		ID:     "rep-1",
		Name:   "Asset inventory",
		Type:   ReportTypeAsset,
		Format: FormatCSV,
		Columns: []ColumnSpec{
			{Key: "id", Label: "ID"},
			{Key: "name", Label: "Name"},
		},
		Status:    StatusPending,
		CreatedBy: "user-1",
	}
}

func TestReportValidate_OK(t *testing.T) {
	r := validReport()
	r.Filters = []Filter{{Field: "status", Operator: "eq", Value: "active"}}
	r.Sorting = &Sorting{Field: "name", Direction: SortAsc}

	require.NoError(t, r.Validate())
}

func TestReportValidate_EmptyColumns(t *testing.T) {
	r := validReport()
	r.Columns = nil

	err := r.Validate()
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidColumns))
}

func TestReportValidate_DuplicateColumns(t *testing.T) {
	r := validReport()
	r.Columns = append(r.Columns, ColumnSpec{Key: "id", Label: "Again"})

	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate column key")
}

func TestReportValidate_UnknownFormat(t *testing.T) {
	r := validReport()
	r.Format = "docx"

	err := r.Validate()
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidFormat))
}

func TestReportValidate_BadFilter(t *testing.T) {
	r := validReport()
	r.Filters = []Filter{{Field: "", Operator: "resembles"}}

	err := r.Validate()
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidFilter))
}

func TestReportValidate_BadSorting(t *testing.T) {
	r := validReport()
	r.Sorting = &Sorting{Field: "name", Direction: "sideways"}

	err := r.Validate()
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidSorting))
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusFailed, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusFailed, StatusProcessing, false},
		{StatusCompleted, StatusFailed, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, ".xlsx", FormatXLSX.Extension())
	assert.Equal(t, "text/csv", FormatCSV.MimeType())
	assert.Equal(t, "application/pdf", FormatPDF.MimeType())
	assert.False(t, Format("docx").Valid())
}

func TestReportFileExpiry(t *testing.T) {
	f := &ReportFile{ID: "f1", ReportID: "rep-1"}
	assert.False(t, f.IsExpired(), "nil expires_at never expires")
	assert.True(t, f.IsDownloadable())

	past := time.Now().Add(-time.Minute)
	f.ExpiresAt = &past
	assert.True(t, f.IsExpired())
	assert.False(t, f.IsDownloadable())

	future := time.Now().Add(time.Hour)
	f.ExpiresAt = &future
	assert.False(t, f.IsExpired())
	assert.True(t, f.IsDownloadable())
}

func TestColumnKeys(t *testing.T) {
	r := validReport()
	assert.Equal(t, []string{"id", "name"}, r.ColumnKeys())
}

func TestIsOwner(t *testing.T) {
	r := validReport()
	assert.True(t, r.IsOwner("user-1"))
	assert.False(t, r.IsOwner("user-2"))
	assert.False(t, r.IsOwner(""))
}
