package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// ExportParams - параметры экспорта, определяющие содержимое отчёта.
// Два запроса с одинаковыми параметрами дают байт-в-байт одинаковый файл.
type ExportParams struct {
	ReportType string
	Format     string
	Columns    []string
	Filters    map[string]string
	SortKey    string
	SortDesc   bool
}

// ExportHash вычисляет хеш параметров экспорта для использования как ключ кэша
func ExportHash(p *ExportParams) string {
	if p == nil {
		return ""
	}

	data := exportToCanonical(p)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

// exportToCanonical создаёт детерминированное представление параметров.
// Колонки и фильтры сортируются: запросы, отличающиеся только порядком
// перечисления, дают один и тот же ключ. Порядок колонок в самой
// выгрузке определяется отчётом и сортировкой ключа не затрагивается.
func exportToCanonical(p *ExportParams) []byte {
	var result []byte

	result = append(result, []byte(fmt.Sprintf("rt:%s;fmt:%s;", p.ReportType, p.Format))...)

	columns := append([]string(nil), p.Columns...)
	sort.Strings(columns)
	for _, col := range columns {
		result = append(result, []byte(fmt.Sprintf("c:%s;", col))...)
	}

	filterKeys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		filterKeys = append(filterKeys, k)
	}
	sort.Strings(filterKeys)
	for _, k := range filterKeys {
		result = append(result, []byte(fmt.Sprintf("f:%s=%s;", k, p.Filters[k]))...)
	}

	result = append(result, []byte(fmt.Sprintf("s:%s:%t;", p.SortKey, p.SortDesc))...)

	return result
}

// BuildExportKey строит ключ кэша для дедупликации экспорта
func BuildExportKey(format, exportHash string) string {
	return fmt.Sprintf("export:%s:%s", format, exportHash)
}

// BuildExportKeyForOwner строит ключ с учётом владельца: отчёты,
// сгенерированные разными пользователями, не переиспользуются между ними
func BuildExportKeyForOwner(ownerID, format, exportHash string) string {
	if ownerID == "" {
		return BuildExportKey(format, exportHash)
	}
	return fmt.Sprintf("export:%s:%s:%s", ownerID, format, exportHash)
}

// QuickHash быстрый хеш для произвольных данных
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash короткий хеш (16 символов)
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
