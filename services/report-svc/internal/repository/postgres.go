// services/report-svc/internal/repository/postgres.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"assethub/pkg/database"
	"assethub/services/report-svc/internal/domain"
)

// maxErrorMessageLen предел длины сохраняемого сообщения об ошибке
const maxErrorMessageLen = 500

// truncateErrorMessage обрезает сообщение до лимита по границе руны:
// postgres отвергает текст с разрезанным multi-byte символом
func truncateErrorMessage(message string) string {
	if len(message) <= maxErrorMessageLen {
		return message
	}
	cut := maxErrorMessageLen
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}
	return message[:cut]
}

const reportColumns = `id, name, description, report_type, filters, columns, sorting,
	grouping_key, format, is_public, status, progress, error_message,
	created_by, created_at, updated_at, deleted_at`

const fileColumns = `id, report_id, file_name, file_path, file_size, mime_type,
	generated_by, metadata, download_count, expires_at, created_at`

// PostgresRepository реализация Repository на PostgreSQL
type PostgresRepository struct {
	db database.DB
}

// NewPostgresRepository создаёт репозиторий
func NewPostgresRepository(db database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create сохраняет новое определение отчёта
func (r *PostgresRepository) Create(ctx context.Context, params *CreateParams) (*domain.Report, error) {
	filters, err := marshalJSON(params.Filters)
	if err != nil {
		return nil, fmt.Errorf("marshal filters: %w", err)
	}
	columns, err := marshalJSON(params.Columns)
	if err != nil {
		return nil, fmt.Errorf("marshal columns: %w", err)
	}
	sorting, err := marshalJSON(params.Sorting)
	if err != nil {
		return nil, fmt.Errorf("marshal sorting: %w", err)
	}

	query := `
		INSERT INTO reports (
			id, name, description, report_type, filters, columns, sorting,
			grouping_key, format, is_public, status, progress,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
		RETURNING ` + reportColumns

	id := uuid.New().String()
	now := time.Now().UTC()

	row := r.db.QueryRow(ctx, query,
		id,
		params.Name,
		nullString(params.Description),
		string(params.Type),
		filters,
		columns,
		sorting,
		nullString(params.Grouping),
		string(params.Format),
		params.IsPublic,
		string(domain.StatusPending),
		0,
		params.CreatedBy,
		now,
	)

	report, err := scanReport(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert report: %w", err)
	}
	return report, nil
}

// Get возвращает определение отчёта по ID
func (r *PostgresRepository) Get(ctx context.Context, id string) (*domain.Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}

	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1 AND deleted_at IS NULL`

	report, err := scanReport(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return report, nil
}

// List возвращает список отчётов с фильтрацией и пагинацией
func (r *PostgresRepository) List(ctx context.Context, params *ListParams) (*ListResult, error) {
	conditions, args := buildListConditions(params)
	where := strings.Join(conditions, " AND ")

	countQuery := `SELECT COUNT(*) FROM reports WHERE ` + where
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	orderBy := "created_at"
	if validOrderBy[params.OrderBy] {
		orderBy = params.OrderBy
	}
	direction := "ASC"
	if params.Desc || params.OrderBy == "" {
		direction = "DESC"
	}

	// Запрашиваем limit+1 для определения hasMore
	query := fmt.Sprintf(
		`SELECT %s FROM reports WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		reportColumns, where, orderBy, direction, len(args)+1, len(args)+2,
	)
	args = append(args, limit+1, params.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []*domain.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}

	hasMore := len(reports) > limit
	if hasMore {
		reports = reports[:limit]
	}

	return &ListResult{
		Reports:    reports,
		TotalCount: total,
		HasMore:    hasMore,
	}, nil
}

// Update изменяет определение отчёта. Обновляются только переданные поля.
func (r *PostgresRepository) Update(ctx context.Context, id string, params *UpdateParams) (*domain.Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}

	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Name != nil {
		addSet("name", *params.Name)
	}
	if params.Description != nil {
		addSet("description", nullString(*params.Description))
	}
	if params.Filters != nil {
		filters, err := marshalJSON(params.Filters)
		if err != nil {
			return nil, fmt.Errorf("marshal filters: %w", err)
		}
		addSet("filters", filters)
	}
	if params.Columns != nil {
		columns, err := marshalJSON(params.Columns)
		if err != nil {
			return nil, fmt.Errorf("marshal columns: %w", err)
		}
		addSet("columns", columns)
	}
	if params.Sorting != nil {
		sorting, err := marshalJSON(params.Sorting)
		if err != nil {
			return nil, fmt.Errorf("marshal sorting: %w", err)
		}
		addSet("sorting", sorting)
	}
	if params.Format != nil {
		addSet("format", string(*params.Format))
	}
	if params.IsPublic != nil {
		addSet("is_public", *params.IsPublic)
	}

	query := fmt.Sprintf(
		`UPDATE reports SET %s WHERE id = $1 AND deleted_at IS NULL RETURNING %s`,
		strings.Join(sets, ", "), reportColumns,
	)

	report, err := scanReport(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("update report: %w", err)
	}
	return report, nil
}

// Delete мягкое удаление отчёта
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE reports SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// HardDelete физически удаляет отчёт и каскадом его файлы
func (r *PostgresRepository) HardDelete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("hard delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimProcessing атомарно переводит отчёт из pending в processing.
// Возвращает false, если отчёт уже захвачен другим воркером или завершён.
func (r *PostgresRepository) ClaimProcessing(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, ErrInvalidID
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE reports SET status = $2, progress = 0, error_message = NULL, updated_at = NOW()
		 WHERE id = $1 AND status = $3 AND deleted_at IS NULL`,
		id, string(domain.StatusProcessing), string(domain.StatusPending),
	)
	if err != nil {
		return false, fmt.Errorf("claim report: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetProgress обновляет прогресс выполнения (0-100)
func (r *PostgresRepository) SetProgress(ctx context.Context, id string, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE reports SET progress = $2, updated_at = NOW() WHERE id = $1 AND status = $3`,
		id, progress, string(domain.StatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("set progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotClaimable
	}
	return nil
}

// MarkCompleted переводит отчёт из processing в completed
func (r *PostgresRepository) MarkCompleted(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE reports SET status = $2, progress = 100, error_message = NULL, updated_at = NOW()
		 WHERE id = $1 AND status = $3`,
		id, string(domain.StatusCompleted), string(domain.StatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotClaimable
	}
	return nil
}

// MarkFailed переводит отчёт из processing в failed с сообщением об ошибке
func (r *PostgresRepository) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	errorMessage = truncateErrorMessage(errorMessage)

	tag, err := r.db.Exec(ctx,
		`UPDATE reports SET status = $2, error_message = $3, updated_at = NOW()
		 WHERE id = $1 AND status = $4`,
		id, string(domain.StatusFailed), errorMessage, string(domain.StatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotClaimable
	}
	return nil
}

// CreateFile сохраняет запись о сгенерированном файле
func (r *PostgresRepository) CreateFile(ctx context.Context, params *CreateFileParams) (*domain.ReportFile, error) {
	if _, err := uuid.Parse(params.ReportID); err != nil {
		return nil, ErrInvalidID
	}

	metadata, err := marshalJSON(params.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO report_files (
			id, report_id, file_name, file_path, file_size, mime_type,
			generated_by, metadata, download_count, expires_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10)
		RETURNING ` + fileColumns

	row := r.db.QueryRow(ctx, query,
		uuid.New().String(),
		params.ReportID,
		params.FileName,
		params.FilePath,
		params.FileSize,
		params.MimeType,
		params.GeneratedBy,
		metadata,
		params.ExpiresAt,
		time.Now().UTC(),
	)

	file, err := scanFile(row)
	if err != nil {
		return nil, fmt.Errorf("insert report file: %w", err)
	}
	return file, nil
}

// CompleteWithFile сохраняет файл и завершает отчёт в одной транзакции,
// чтобы запись о файле не существовала без статуса completed и наоборот
func (r *PostgresRepository) CompleteWithFile(ctx context.Context, params *CreateFileParams) (*domain.ReportFile, error) {
	if _, err := uuid.Parse(params.ReportID); err != nil {
		return nil, ErrInvalidID
	}

	metadata, err := marshalJSON(params.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	insert := `
		INSERT INTO report_files (
			id, report_id, file_name, file_path, file_size, mime_type,
			generated_by, metadata, download_count, expires_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10)
		RETURNING ` + fileColumns

	return database.WithTransactionResult(ctx, r.db, func(tx pgx.Tx) (*domain.ReportFile, error) {
		file, err := scanFile(tx.QueryRow(ctx, insert,
			uuid.New().String(),
			params.ReportID,
			params.FileName,
			params.FilePath,
			params.FileSize,
			params.MimeType,
			params.GeneratedBy,
			metadata,
			params.ExpiresAt,
			time.Now().UTC(),
		))
		if err != nil {
			return nil, fmt.Errorf("insert report file: %w", err)
		}

		tag, err := tx.Exec(ctx,
			`UPDATE reports SET status = $2, progress = 100, error_message = NULL, updated_at = NOW()
			 WHERE id = $1 AND status = $3`,
			params.ReportID, string(domain.StatusCompleted), string(domain.StatusProcessing),
		)
		if err != nil {
			return nil, fmt.Errorf("mark completed: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, ErrNotClaimable
		}
		return file, nil
	})
}

// GetFile возвращает файл по ID
func (r *PostgresRepository) GetFile(ctx context.Context, fileID string) (*domain.ReportFile, error) {
	if _, err := uuid.Parse(fileID); err != nil {
		return nil, ErrInvalidID
	}

	query := `SELECT ` + fileColumns + ` FROM report_files WHERE id = $1`

	file, err := scanFile(r.db.QueryRow(ctx, query, fileID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("get report file: %w", err)
	}
	return file, nil
}

// LatestFile возвращает последний сгенерированный файл отчёта.
// Повторные запуски добавляют новые строки, актуален файл
// с наибольшим created_at.
func (r *PostgresRepository) LatestFile(ctx context.Context, reportID string) (*domain.ReportFile, error) {
	if _, err := uuid.Parse(reportID); err != nil {
		return nil, ErrInvalidID
	}

	query := `SELECT ` + fileColumns + ` FROM report_files
		WHERE report_id = $1 ORDER BY created_at DESC LIMIT 1`

	file, err := scanFile(r.db.QueryRow(ctx, query, reportID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("latest report file: %w", err)
	}
	return file, nil
}

// ListFiles возвращает все файлы отчёта, новые первыми
func (r *PostgresRepository) ListFiles(ctx context.Context, reportID string) ([]*domain.ReportFile, error) {
	if _, err := uuid.Parse(reportID); err != nil {
		return nil, ErrInvalidID
	}

	query := `SELECT ` + fileColumns + ` FROM report_files
		WHERE report_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("list report files: %w", err)
	}
	defer rows.Close()

	var files []*domain.ReportFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report file: %w", err)
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report files: %w", err)
	}
	return files, nil
}

// IncrementDownloads увеличивает счётчик скачиваний и возвращает новое значение
func (r *PostgresRepository) IncrementDownloads(ctx context.Context, fileID string) (int64, error) {
	if _, err := uuid.Parse(fileID); err != nil {
		return 0, ErrInvalidID
	}

	var count int64
	err := r.db.QueryRow(ctx,
		`UPDATE report_files SET download_count = download_count + 1 WHERE id = $1
		 RETURNING download_count`,
		fileID,
	).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrFileNotFound
		}
		return 0, fmt.Errorf("increment downloads: %w", err)
	}
	return count, nil
}

// DeleteFile удаляет запись о файле
func (r *PostgresRepository) DeleteFile(ctx context.Context, fileID string) error {
	if _, err := uuid.Parse(fileID); err != nil {
		return ErrInvalidID
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM report_files WHERE id = $1`, fileID)
	if err != nil {
		return fmt.Errorf("delete report file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

// ExpiredFiles возвращает пачку истёкших файлов для чистки
func (r *PostgresRepository) ExpiredFiles(ctx context.Context, limit int) ([]*domain.ReportFile, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + fileColumns + ` FROM report_files
		WHERE expires_at IS NOT NULL AND expires_at < NOW()
		ORDER BY expires_at LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("expired files: %w", err)
	}
	defer rows.Close()

	var files []*domain.ReportFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired file: %w", err)
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired files: %w", err)
	}
	return files, nil
}

// Stats возвращает агрегаты по хранилищу.
// При непустом userID считаются только отчёты этого пользователя.
func (r *PostgresRepository) Stats(ctx context.Context, userID string) (*Stats, error) {
	stats := &Stats{
		ByStatus: make(map[domain.Status]int64),
		ByFormat: make(map[domain.Format]int64),
	}

	condition := "deleted_at IS NULL"
	var args []any
	if userID != "" {
		condition += " AND created_by = $1"
		args = append(args, userID)
	}

	rows, err := r.db.Query(ctx,
		`SELECT status, format, COUNT(*) FROM reports WHERE `+condition+` GROUP BY status, format`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("report stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status, format string
		var count int64
		if err := rows.Scan(&status, &format, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats.ByStatus[domain.Status(status)] += count
		stats.ByFormat[domain.Format(format)] += count
		stats.TotalReports += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}

	fileCondition := "1=1"
	if userID != "" {
		fileCondition = "generated_by = $1"
	}
	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(file_size), 0) FROM report_files WHERE `+fileCondition,
		args...,
	).Scan(&stats.TotalFiles, &stats.TotalSizeBytes)
	if err != nil {
		return nil, fmt.Errorf("file stats: %w", err)
	}

	return stats, nil
}

// Ping проверяет доступность базы
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Close закрывает подключение
func (r *PostgresRepository) Close() error {
	r.db.Close()
	return nil
}

// === Вспомогательные функции ===

// validOrderBy допустимые колонки сортировки списка
var validOrderBy = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"status":     true,
}

// buildListConditions собирает WHERE условия с нумерованными аргументами
func buildListConditions(params *ListParams) ([]string, []any) {
	conditions := []string{"deleted_at IS NULL"}
	var args []any

	add := func(format string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	if params.CreatedBy != "" {
		if params.IncludePublic {
			add("(created_by = $%d OR is_public = TRUE)", params.CreatedBy)
		} else {
			add("created_by = $%d", params.CreatedBy)
		}
	}
	if params.Type != "" {
		add("report_type = $%d", string(params.Type))
	}
	if params.Status != "" {
		add("status = $%d", string(params.Status))
	}
	if params.Format != "" {
		add("format = $%d", string(params.Format))
	}
	if params.NameContains != "" {
		add("name ILIKE $%d", "%"+params.NameContains+"%")
	}
	if params.CreatedAfter != nil {
		add("created_at >= $%d", *params.CreatedAfter)
	}
	if params.CreatedBefore != nil {
		add("created_at <= $%d", *params.CreatedBefore)
	}

	return conditions, args
}

// scanReport читает определение отчёта из строки результата
func scanReport(row pgx.Row) (*domain.Report, error) {
	var (
		report       domain.Report
		description  sql.NullString
		filters      []byte
		columns      []byte
		sorting      []byte
		grouping     sql.NullString
		reportType   string
		format       string
		status       string
		errorMessage sql.NullString
		deletedAt    sql.NullTime
	)

	err := row.Scan(
		&report.ID,
		&report.Name,
		&description,
		&reportType,
		&filters,
		&columns,
		&sorting,
		&grouping,
		&format,
		&report.IsPublic,
		&status,
		&report.Progress,
		&errorMessage,
		&report.CreatedBy,
		&report.CreatedAt,
		&report.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	report.Description = description.String
	report.Grouping = grouping.String
	report.Type = domain.ReportType(reportType)
	report.Format = domain.Format(format)
	report.Status = domain.Status(status)
	report.ErrorMessage = errorMessage.String
	if deletedAt.Valid {
		report.DeletedAt = &deletedAt.Time
	}

	if len(filters) > 0 {
		if err := json.Unmarshal(filters, &report.Filters); err != nil {
			return nil, fmt.Errorf("unmarshal filters: %w", err)
		}
	}
	if len(columns) > 0 {
		if err := json.Unmarshal(columns, &report.Columns); err != nil {
			return nil, fmt.Errorf("unmarshal columns: %w", err)
		}
	}
	if len(sorting) > 0 {
		if err := json.Unmarshal(sorting, &report.Sorting); err != nil {
			return nil, fmt.Errorf("unmarshal sorting: %w", err)
		}
	}

	return &report, nil
}

// scanFile читает файл отчёта из строки результата
func scanFile(row pgx.Row) (*domain.ReportFile, error) {
	var (
		file      domain.ReportFile
		metadata  []byte
		expiresAt sql.NullTime
	)

	err := row.Scan(
		&file.ID,
		&file.ReportID,
		&file.FileName,
		&file.FilePath,
		&file.FileSize,
		&file.MimeType,
		&file.GeneratedBy,
		&metadata,
		&file.DownloadCount,
		&expiresAt,
		&file.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		file.ExpiresAt = &expiresAt.Time
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &file.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	return &file, nil
}

// nullString возвращает NULL для пустой строки
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// marshalJSON сериализует значение, nil остаётся NULL
func marshalJSON(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case *domain.Sorting:
		if val == nil {
			return nil, nil
		}
	case *domain.FileMetadata:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

// isUniqueViolation проверяет нарушение уникального индекса
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
