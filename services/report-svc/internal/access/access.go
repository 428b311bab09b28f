// services/report-svc/internal/access/access.go
package access

import (
	"context"

	"assethub/services/report-svc/internal/domain"
)

// Identity пользователь, выполняющий запрос
type Identity struct {
	UserID   string
	Username string
	Role     string
}

// IsAdmin проверяет административную роль
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == "admin"
}

// Anonymous возвращает true для неаутентифицированного запроса
func (i *Identity) Anonymous() bool {
	return i == nil || i.UserID == ""
}

// AccessPolicy проверки прав на отчёт. Реализация внедряется явно,
// без динамических проверок ролей по месту вызова.
type AccessPolicy interface {
	// CanView разрешён ли просмотр определения и статуса
	CanView(identity *Identity, report *domain.Report) bool

	// CanDownload разрешено ли скачивание готового файла
	CanDownload(identity *Identity, report *domain.Report) bool

	// CanModify разрешено ли изменение и удаление определения
	CanModify(identity *Identity, report *domain.Report) bool
}

// OwnerPolicy стандартная политика: владелец и администратор имеют
// полный доступ, публичные отчёты читаются всеми аутентифицированными
type OwnerPolicy struct{}

// NewOwnerPolicy создаёт политику
func NewOwnerPolicy() *OwnerPolicy {
	return &OwnerPolicy{}
}

// CanView владелец, администратор или публичный отчёт
func (p *OwnerPolicy) CanView(identity *Identity, report *domain.Report) bool {
	if identity.Anonymous() {
		return false
	}
	if identity.IsAdmin() || report.IsOwner(identity.UserID) {
		return true
	}
	return report.IsPublic
}

// CanDownload совпадает с правом просмотра
func (p *OwnerPolicy) CanDownload(identity *Identity, report *domain.Report) bool {
	return p.CanView(identity, report)
}

// CanModify только владелец и администратор
func (p *OwnerPolicy) CanModify(identity *Identity, report *domain.Report) bool {
	if identity.Anonymous() {
		return false
	}
	return identity.IsAdmin() || report.IsOwner(identity.UserID)
}

type contextKey struct{}

// WithIdentity кладёт identity в контекст запроса
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// FromContext извлекает identity из контекста, nil если отсутствует
func FromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(contextKey{}).(*Identity)
	return identity
}
