// dashboard.go — обработчик главной страницы со статистикой пользователя.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/deepcheck/ui-module/internal/detector"
	"github.com/deepcheck/ui-module/internal/ui/auth"
	"github.com/deepcheck/ui-module/internal/ui/views"
)

// DashboardHandler — обработчик страницы dashboard.
type DashboardHandler struct {
	api      *detector.Client
	renderer *views.Renderer
	logger   *slog.Logger
}

// NewDashboardHandler создаёт новый DashboardHandler.
func NewDashboardHandler(api *detector.Client, renderer *views.Renderer, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		api:      api,
		renderer: renderer,
		logger:   logger.With(slog.String("component", "ui.dashboard")),
	}
}

// HandleDashboard обрабатывает GET /dashboard — статистика текущего пользователя.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())

	view := &views.View{
		Title:  "Dashboard",
		Active: "dashboard",
		User:   session.Identity,
	}

	stats, err := h.api.Detection.Stats(r.Context())
	if err != nil {
		h.logger.Warn("Ошибка получения статистики",
			slog.String("username", session.Identity.Username),
			slog.String("error", err.Error()))
		view.Error = userMessage(err)
	}
	view.Data = &views.DashboardData{Stats: stats}

	if err := h.renderer.Render(w, views.PageDashboard, view); err != nil {
		h.logger.Error("Ошибка рендеринга dashboard", slog.String("error", err.Error()))
	}
}
