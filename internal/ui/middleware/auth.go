// auth.go — проверка UI-сессии (cookie-based) и защита маршрутов.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/deepcheck/ui-module/internal/ui/auth"
)

// Страницы redirect для решений Route Guard.
const (
	loginPath = "/login"
	homePath  = "/dashboard"
)

// SessionGuard — middleware защиты маршрутов UI.
// Разрешает состояние сессии через auth.Controller и применяет Decide:
// неаутентифицированный запрос уходит на /login, аутентифицированный
// без прав — на /dashboard.
type SessionGuard struct {
	sessions *auth.Controller
	logger   *slog.Logger
}

// NewSessionGuard создаёт middleware защиты маршрутов.
func NewSessionGuard(sessions *auth.Controller, logger *slog.Logger) *SessionGuard {
	return &SessionGuard{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "session-guard")),
	}
}

// RequireAuth возвращает middleware для маршрутов, требующих входа.
func (g *SessionGuard) RequireAuth() func(http.Handler) http.Handler {
	return g.middleware(false)
}

// RequireAdmin возвращает middleware для маршрутов, требующих роли admin.
func (g *SessionGuard) RequireAdmin() func(http.Handler) http.Handler {
	return g.middleware(true)
}

// Resolve возвращает middleware, разрешающий сессию без ограничения доступа.
// Применяется к публичным маршрутам (login, signup), чтобы обработчики
// видели состояние сессии.
func (g *SessionGuard) Resolve() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := g.sessions.Resolve(r)
			next.ServeHTTP(w, r.WithContext(withSession(r, session)))
		})
	}
}

func (g *SessionGuard) middleware(requiresAdmin bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := g.sessions.Resolve(r)

			if session.Stale {
				// Токен отклонён сервером — удаляем cookie
				g.sessions.ClearStale(w)
			}

			switch Decide(session, requiresAdmin) {
			case DecisionAllow:
				next.ServeHTTP(w, r.WithContext(withSession(r, session)))
			case DecisionRedirectHome:
				g.logger.Info("Отказ в доступе к админскому маршруту",
					slog.String("path", r.URL.Path),
					slog.String("username", session.Identity.Username),
				)
				http.Redirect(w, r, homePath, http.StatusFound)
			default:
				http.Redirect(w, r, loginPath, http.StatusFound)
			}
		})
	}
}

// withSession кладёт сессию и токен в контекст запроса.
func withSession(r *http.Request, session *auth.Session) context.Context {
	ctx := auth.ContextWithSession(r.Context(), session)
	return auth.ContextWithToken(ctx, session.Token)
}
