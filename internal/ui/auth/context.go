package auth

import "context"

// contextKey — приватный тип ключей контекста пакета auth.
type contextKey string

const (
	tokenKey   contextKey = "deepcheck_token"
	sessionKey contextKey = "deepcheck_session_state"
)

// ContextWithToken кладёт токен доступа в контекст запроса.
// Токен извлекается клиентом Detection API через TokenFromContext.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext возвращает токен доступа из контекста.
// Пустая строка — запрос без учётных данных.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// ContextWithSession кладёт разрешённое состояние сессии в контекст.
func ContextWithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext возвращает состояние сессии из контекста.
// Возвращает неаутентифицированную сессию, если middleware не отработал.
func SessionFromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey).(*Session); ok {
		return s
	}
	return &Session{Status: StatusUnauthenticated}
}
