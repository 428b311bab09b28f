// services/report-svc/internal/repository/memory_test.go
package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assethub/services/report-svc/internal/domain"
)

func memCreateParams(name, owner string) *CreateParams {
	return &CreateParams{
		Name:   name,
		Type:   domain.ReportTypeAsset,
		Format: domain.FormatCSV,
		Columns: []domain.ColumnSpec{
			{Key: "id", Label: "ID"},
			{Key: "name", Label: "Name"},
		},
		CreatedBy: owner,
	}
}

func TestMemoryCreateGet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	report, err := repo.Create(ctx, memCreateParams("Assets", "u1"))
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, domain.StatusPending, report.Status)

	got, err := repo.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.ID, got.ID)
}

func TestMemoryCreate_DuplicateNamePerOwner(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, memCreateParams("Assets", "u1"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, memCreateParams("Assets", "u1"))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// У другого пользователя то же имя допустимо
	_, err = repo.Create(ctx, memCreateParams("Assets", "u2"))
	require.NoError(t, err)
}

func TestMemoryClaimProcessing_CAS(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	report, err := repo.Create(ctx, memCreateParams("Assets", "u1"))
	require.NoError(t, err)

	claimed, err := repo.ClaimProcessing(ctx, report.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.ClaimProcessing(ctx, report.ID)
	require.NoError(t, err)
	assert.False(t, claimed)

	require.NoError(t, repo.MarkCompleted(ctx, report.ID))

	got, err := repo.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
}

func TestMemoryCompleteWithFile(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	report, err := repo.Create(ctx, memCreateParams("Assets", "u1"))
	require.NoError(t, err)

	// Без захвата завершение невозможно
	_, err = repo.CompleteWithFile(ctx, &CreateFileParams{ReportID: report.ID, FileName: "a.csv"})
	assert.ErrorIs(t, err, ErrNotClaimable)

	claimed, err := repo.ClaimProcessing(ctx, report.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	file, err := repo.CompleteWithFile(ctx, &CreateFileParams{
		ReportID: report.ID,
		FileName: "a.csv",
		FilePath: "reports/a.csv",
		FileSize: 42,
		MimeType: "text/csv",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, file.ID)

	got, err := repo.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)

	latest, err := repo.LatestFile(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, file.ID, latest.ID)
}

func TestMemoryMarkCompleted_RequiresProcessing(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	report, err := repo.Create(ctx, memCreateParams("Assets", "u1"))
	require.NoError(t, err)

	assert.ErrorIs(t, repo.MarkCompleted(ctx, report.ID), ErrNotClaimable)
	assert.ErrorIs(t, repo.SetProgress(ctx, report.ID, 50), ErrNotClaimable)
}

func TestMemoryList_Filtering(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, memCreateParams("Mine", "u1"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, memCreateParams("Theirs", "u2"))
	require.NoError(t, err)

	pub := memCreateParams("Shared", "u2")
	pub.IsPublic = true
	_, err = repo.Create(ctx, pub)
	require.NoError(t, err)

	result, err := repo.List(ctx, &ListParams{CreatedBy: "u1"})
	require.NoError(t, err)
	assert.Len(t, result.Reports, 1)

	result, err = repo.List(ctx, &ListParams{CreatedBy: "u1", IncludePublic: true})
	require.NoError(t, err)
	assert.Len(t, result.Reports, 2)

	result, err = repo.List(ctx, &ListParams{NameContains: "shar"})
	require.NoError(t, err)
	assert.Len(t, result.Reports, 1)
}

func TestMemoryList_Pagination(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		_, err := repo.Create(ctx, memCreateParams(name, "u1"))
		require.NoError(t, err)
	}

	result, err := repo.List(ctx, &ListParams{CreatedBy: "u1", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, result.Reports, 2)
	assert.Equal(t, int64(3), result.TotalCount)
	assert.True(t, result.HasMore)
}

func TestMemoryDelete_SoftHidesReport(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	report, err := repo.Create(ctx, memCreateParams("Assets", "u1"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, report.ID))

	_, err = repo.Get(ctx, report.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Имя освобождается после удаления
	_, err = repo.Create(ctx, memCreateParams("Assets", "u1"))
	require.NoError(t, err)
}

func TestMemoryFiles(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	report, err := repo.Create(ctx, memCreateParams("Assets", "u1"))
	require.NoError(t, err)

	first, err := repo.CreateFile(ctx, &CreateFileParams{
		ReportID: report.ID,
		FileName: "assets_1.csv",
		FilePath: "reports/" + report.ID + "/assets_1.csv",
		FileSize: 10,
		MimeType: "text/csv",
	})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	second, err := repo.CreateFile(ctx, &CreateFileParams{
		ReportID: report.ID,
		FileName: "assets_2.csv",
		FilePath: "reports/" + report.ID + "/assets_2.csv",
		FileSize: 20,
		MimeType: "text/csv",
	})
	require.NoError(t, err)

	latest, err := repo.LatestFile(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	count, err := repo.IncrementDownloads(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	files, err := repo.ListFiles(ctx, report.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, second.ID, files[0].ID)
}

func TestMemoryExpiredFiles(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	report, err := repo.Create(ctx, memCreateParams("Assets", "u1"))
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	expired, err := repo.CreateFile(ctx, &CreateFileParams{
		ReportID:  report.ID,
		FileName:  "old.csv",
		FilePath:  "reports/" + report.ID + "/old.csv",
		MimeType:  "text/csv",
		ExpiresAt: &past,
	})
	require.NoError(t, err)

	// Файл без срока жизни не истекает никогда
	_, err = repo.CreateFile(ctx, &CreateFileParams{
		ReportID: report.ID,
		FileName: "keep.csv",
		FilePath: "reports/" + report.ID + "/keep.csv",
		MimeType: "text/csv",
	})
	require.NoError(t, err)

	files, err := repo.ExpiredFiles(ctx, 10)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, expired.ID, files[0].ID)
}

func TestMemoryStats(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	report, err := repo.Create(ctx, memCreateParams("Assets", "u1"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, memCreateParams("Other", "u2"))
	require.NoError(t, err)

	_, err = repo.CreateFile(ctx, &CreateFileParams{
		ReportID: report.ID,
		FileName: "assets.csv",
		FilePath: "reports/" + report.ID + "/assets.csv",
		FileSize: 128,
		MimeType: "text/csv",
	})
	require.NoError(t, err)

	stats, err := repo.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalReports)
	assert.Equal(t, int64(1), stats.TotalFiles)
	assert.Equal(t, int64(128), stats.TotalSizeBytes)
	assert.Equal(t, int64(1), stats.ByStatus[domain.StatusPending])
}
