// services/report-svc/internal/notify/notify.go
package notify

import (
	"context"

	"assethub/pkg/logger"
	"assethub/services/report-svc/internal/domain"
)

// Notifier уведомляет владельца отчёта о завершении или провале экспорта.
// Ошибки уведомления не влияют на статус самой задачи.
type Notifier interface {
	// NotifyCompleted отчёт готов, downloadURL указывает на файл
	NotifyCompleted(ctx context.Context, report *domain.Report, downloadURL string) error

	// NotifyFailed экспорт завершился ошибкой
	NotifyFailed(ctx context.Context, report *domain.Report, errorMessage string) error
}

// LogNotifier пишет уведомления в лог. Используется как запасной
// вариант и в разработке.
type LogNotifier struct{}

// NewLogNotifier создаёт уведомитель
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// NotifyCompleted логирует успешное завершение
func (n *LogNotifier) NotifyCompleted(ctx context.Context, report *domain.Report, downloadURL string) error {
	logger.Info("Report export completed",
		"report_id", report.ID,
		"owner", report.CreatedBy,
		"format", string(report.Format),
		"download_url", downloadURL,
	)
	return nil
}

// NotifyFailed логирует провал
func (n *LogNotifier) NotifyFailed(ctx context.Context, report *domain.Report, errorMessage string) error {
	logger.Log.Warn("Report export failed",
		"report_id", report.ID,
		"owner", report.CreatedBy,
		"error", errorMessage,
	)
	return nil
}

// MultiNotifier рассылает уведомление нескольким получателям.
// Ошибка одного получателя не останавливает остальных,
// возвращается первая встреченная.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier создаёт составной уведомитель
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// NotifyCompleted рассылает всем получателям
func (n *MultiNotifier) NotifyCompleted(ctx context.Context, report *domain.Report, downloadURL string) error {
	var firstErr error
	for _, notifier := range n.notifiers {
		if err := notifier.NotifyCompleted(ctx, report, downloadURL); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NotifyFailed рассылает всем получателям
func (n *MultiNotifier) NotifyFailed(ctx context.Context, report *domain.Report, errorMessage string) error {
	var firstErr error
	for _, notifier := range n.notifiers {
		if err := notifier.NotifyFailed(ctx, report, errorMessage); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
