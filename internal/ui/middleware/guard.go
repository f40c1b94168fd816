// Пакет middleware — HTTP middleware UI DeepCheck.
// guard.go — чистая логика допуска к маршрутам по состоянию сессии.
package middleware

import "github.com/deepcheck/ui-module/internal/ui/auth"

// Decision — решение о допуске к маршруту.
type Decision int

const (
	// DecisionWait — состояние сессии ещё не разрешено, ответ откладывается.
	DecisionWait Decision = iota
	// DecisionAllow — запрос допускается к обработчику.
	DecisionAllow
	// DecisionRedirectLogin — redirect на страницу входа.
	DecisionRedirectLogin
	// DecisionRedirectHome — redirect на dashboard (недостаточно прав).
	DecisionRedirectHome
)

// Decide принимает решение о допуске по состоянию сессии.
// Чистая функция без побочных эффектов:
//   - сессия не разрешена (unknown/verifying) — Wait, никогда не redirect;
//   - unauthenticated — RedirectLogin;
//   - authenticated без роли admin на админском маршруте — RedirectHome;
//   - иначе — Allow.
func Decide(session *auth.Session, requiresAdmin bool) Decision {
	switch session.Status {
	case auth.StatusUnknown, auth.StatusVerifying:
		return DecisionWait
	case auth.StatusAuthenticated:
		if requiresAdmin && !session.IsAdmin() {
			return DecisionRedirectHome
		}
		return DecisionAllow
	default:
		return DecisionRedirectLogin
	}
}
