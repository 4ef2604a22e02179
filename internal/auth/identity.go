package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Identity — личность вызывающего, разрешённая до входа в сервисы.
// Аутентификацию выполняет внешний сервис, сюда приходит готовая запись.
type Identity struct {
	ID       int64    `json:"sub"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// HasRole проверяет наличие роли у пользователя.
func (id Identity) HasRole(role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole проверяет наличие хотя бы одной из ролей.
func (id Identity) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if id.HasRole(r) {
			return true
		}
	}
	return false
}

// Role возвращает первую роль пользователя или "user".
func (id Identity) Role() string {
	if len(id.Roles) > 0 {
		return id.Roles[0]
	}
	return "user"
}

// CanMutate — единая проверка владения для всех мутирующих операций.
func CanMutate(caller Identity, ownerID int64) bool {
	return caller.ID == ownerID
}

type ctxKey struct{}

// FromRequest извлекает личность из заголовка X-User:
// URL-кодированный JSON вида {"sub":1,"username":"u","roles":["teacher"]}.
func FromRequest(r *http.Request) (Identity, bool) {
	raw := strings.TrimSpace(r.Header.Get("X-User"))
	if raw == "" {
		return Identity{}, false
	}
	if decoded, err := url.QueryUnescape(raw); err == nil {
		raw = decoded
	}
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return Identity{}, false
	}
	return id, true
}

// Middleware кладёт личность в контекст запроса. Запросы без личности
// пропускаются дальше: решение об отказе принимает хендлер.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := FromRequest(r); ok {
			r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, id))
		}
		next.ServeHTTP(w, r)
	})
}

// FromContext возвращает личность, положенную Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
