// services/report-svc/internal/repository/repository.go
package repository

import (
	"context"
	"errors"

	"assethub/services/report-svc/internal/domain"
)

// Ошибки репозитория
var (
	ErrNotFound      = errors.New("report not found")
	ErrFileNotFound  = errors.New("report file not found")
	ErrAlreadyExists = errors.New("report already exists")
	ErrInvalidID     = errors.New("invalid report id")
	ErrNotClaimable  = errors.New("report is not claimable")
)

// Repository хранилище определений отчётов и сгенерированных файлов
type Repository interface {
	// Определения отчётов
	Create(ctx context.Context, params *CreateParams) (*domain.Report, error)
	Get(ctx context.Context, id string) (*domain.Report, error)
	List(ctx context.Context, params *ListParams) (*ListResult, error)
	Update(ctx context.Context, id string, params *UpdateParams) (*domain.Report, error)
	Delete(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error

	// Переходы статуса. ClaimProcessing - атомарный захват задачи:
	// сравнение-и-замена pending -> processing, возвращает false если
	// отчёт уже захвачен или завершён.
	ClaimProcessing(ctx context.Context, id string) (bool, error)
	SetProgress(ctx context.Context, id string, progress int) error
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errorMessage string) error

	// CompleteWithFile атомарно сохраняет запись о файле и переводит
	// отчёт из processing в completed
	CompleteWithFile(ctx context.Context, params *CreateFileParams) (*domain.ReportFile, error)

	// Файлы отчётов
	CreateFile(ctx context.Context, params *CreateFileParams) (*domain.ReportFile, error)
	GetFile(ctx context.Context, fileID string) (*domain.ReportFile, error)
	LatestFile(ctx context.Context, reportID string) (*domain.ReportFile, error)
	ListFiles(ctx context.Context, reportID string) ([]*domain.ReportFile, error)
	IncrementDownloads(ctx context.Context, fileID string) (int64, error)
	DeleteFile(ctx context.Context, fileID string) error

	// ExpiredFiles возвращает пачку истёкших файлов для чистки;
	// строки удаляются через DeleteFile после удаления байтов из хранилища
	ExpiredFiles(ctx context.Context, limit int) ([]*domain.ReportFile, error)

	Stats(ctx context.Context, userID string) (*Stats, error)
	Ping(ctx context.Context) error
	Close() error
}
