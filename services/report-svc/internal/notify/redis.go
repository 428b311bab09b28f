// services/report-svc/internal/notify/redis.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"assethub/services/report-svc/internal/domain"
)

// Event событие, публикуемое в канал уведомлений
type Event struct {
	Type         string    `json:"type"` // report.completed | report.failed
	ReportID     string    `json:"report_id"`
	ReportName   string    `json:"report_name"`
	OwnerID      string    `json:"owner_id"`
	Format       string    `json:"format"`
	DownloadURL  string    `json:"download_url,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// RedisNotifier публикует события в Redis pub/sub канал.
// Подписчики (веб-сокеты, почтовый шлюз) доставляют их пользователю.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier создаёт уведомитель и проверяет подключение
func NewRedisNotifier(addr, channel string) (*RedisNotifier, error) {
	if channel == "" {
		channel = "assethub:report-events"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisNotifier{client: client, channel: channel}, nil
}

// NotifyCompleted публикует событие успешного завершения
func (n *RedisNotifier) NotifyCompleted(ctx context.Context, report *domain.Report, downloadURL string) error {
	return n.publish(ctx, &Event{
		Type:        "report.completed",
		ReportID:    report.ID,
		ReportName:  report.Name,
		OwnerID:     report.CreatedBy,
		Format:      string(report.Format),
		DownloadURL: downloadURL,
		OccurredAt:  time.Now().UTC(),
	})
}

// NotifyFailed публикует событие провала
func (n *RedisNotifier) NotifyFailed(ctx context.Context, report *domain.Report, errorMessage string) error {
	return n.publish(ctx, &Event{
		Type:         "report.failed",
		ReportID:     report.ID,
		ReportName:   report.Name,
		OwnerID:      report.CreatedBy,
		Format:       string(report.Format),
		ErrorMessage: errorMessage,
		OccurredAt:   time.Now().UTC(),
	})
}

func (n *RedisNotifier) publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close закрывает подключение
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
