// services/report-svc/internal/rowsource/postgres.go
package rowsource

import (
	"context"
	"fmt"
	"strings"

	"assethub/pkg/database"
	"assethub/services/report-svc/internal/domain"
)

// assetFields отображение ключей колонок отчёта на колонки таблицы assets.
// Ключ вне этого списка допустим в определении отчёта, но в выборку
// не попадает и рендерится пустым значением.
var assetFields = map[string]string{
	"id":               "id",
	"asset_tag":        "asset_tag",
	"name":             "name",
	"serial_number":    "serial_number",
	"model":            "model",
	"category":         "category",
	"status":           "status",
	"location":         "location",
	"department":       "department",
	"assigned_to":      "assigned_to",
	"purchase_date":    "purchase_date",
	"purchase_cost":    "purchase_cost",
	"warranty_expires": "warranty_expires",
	"created_at":       "created_at",
	"updated_at":       "updated_at",
}

// operatorSQL отображение операторов фильтра на SQL
var operatorSQL = map[string]string{
	"eq":   "=",
	"neq":  "<>",
	"gt":   ">",
	"gte":  ">=",
	"lt":   "<",
	"lte":  "<=",
	"like": "ILIKE",
}

// PostgresAssetSource источник строк из таблицы активов
type PostgresAssetSource struct {
	db database.DB
}

// NewPostgresAssetSource создаёт источник
func NewPostgresAssetSource(db database.DB) *PostgresAssetSource {
	return &PostgresAssetSource{db: db}
}

// Rows выполняет запрос по определению отчёта: фильтры превращаются
// в WHERE, сортировка в ORDER BY, колонки в список SELECT.
// По умолчанию строки идут от новых к старым.
func (s *PostgresAssetSource) Rows(ctx context.Context, report *domain.Report, limit int) ([]Row, error) {
	selected := selectedFields(report.Columns)
	if len(selected) == 0 {
		// Ни одна колонка не сопоставлена с источником: пустые строки,
		// но их количество должно соответствовать выборке
		selected = []string{"id"}
	}

	query, args := buildAssetQuery(report, selected, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read asset row: %w", err)
		}

		row := make(Row, len(selected))
		for i, key := range selected {
			if i < len(values) {
				row[key] = values[i]
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}

	return result, nil
}

// selectedFields возвращает ключи колонок, известные источнику,
// в объявленном порядке
func selectedFields(columns []domain.ColumnSpec) []string {
	var keys []string
	for _, c := range columns {
		if _, ok := assetFields[c.Key]; ok {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// buildAssetQuery собирает SELECT с нумерованными аргументами
func buildAssetQuery(report *domain.Report, selected []string, limit int) (string, []any) {
	cols := make([]string, len(selected))
	for i, key := range selected {
		cols[i] = assetFields[key]
	}

	conditions := []string{"deleted_at IS NULL"}
	var args []any

	for _, f := range report.Filters {
		column, ok := assetFields[f.Field]
		if !ok {
			continue
		}

		switch f.Operator {
		case "is_null":
			conditions = append(conditions, column+" IS NULL")
		case "not_null":
			conditions = append(conditions, column+" IS NOT NULL")
		case "in":
			values := strings.Split(f.Value, ",")
			placeholders := make([]string, len(values))
			for i, v := range values {
				args = append(args, strings.TrimSpace(v))
				placeholders[i] = fmt.Sprintf("$%d", len(args))
			}
			conditions = append(conditions,
				fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
		case "like":
			args = append(args, "%"+f.Value+"%")
			conditions = append(conditions, fmt.Sprintf("%s ILIKE $%d", column, len(args)))
		default:
			op, ok := operatorSQL[f.Operator]
			if !ok {
				continue
			}
			args = append(args, f.Value)
			conditions = append(conditions, fmt.Sprintf("%s %s $%d", column, op, len(args)))
		}
	}

	orderBy := "created_at DESC"
	if report.Sorting != nil {
		if column, ok := assetFields[report.Sorting.Field]; ok {
			direction := "ASC"
			if report.Sorting.Direction == domain.SortDesc {
				direction = "DESC"
			}
			orderBy = column + " " + direction
		}
	}

	query := fmt.Sprintf(
		"SELECT %s FROM assets WHERE %s ORDER BY %s",
		strings.Join(cols, ", "),
		strings.Join(conditions, " AND "),
		orderBy,
	)

	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return query, args
}
