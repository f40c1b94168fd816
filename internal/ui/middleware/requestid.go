// requestid.go — присвоение request ID каждому входящему запросу.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Заголовок request ID (входящий уважается, иначе генерируется новый).
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestID возвращает middleware, присваивающий запросу уникальный ID.
// ID кладётся в контекст и в заголовок ответа для трассировки.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, id)
			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext возвращает request ID из контекста.
// Пустая строка — запрос не прошёл через RequestID middleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
