// recover.go — перехват паник обработчиков.
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/deepcheck/ui-module/internal/ui/views"
)

// Recoverer перехватывает панику обработчика, логирует её со стеком
// и отдаёт страницу ошибки со статусом 500.
func Recoverer(renderer *views.Renderer, logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "recoverer"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("Паника в обработчике",
						slog.Any("panic", rec),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(debug.Stack())))
					w.WriteHeader(http.StatusInternalServerError)
					view := &views.View{Title: "Ошибка"}
					if err := renderer.Render(w, views.PageError, view); err != nil {
						log.Error("Ошибка рендеринга страницы ошибки", slog.String("error", err.Error()))
					}
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
