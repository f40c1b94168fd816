// history.go — обработчик страницы истории анализов.
// Постраничный просмотр через browse.Pager (per-session), удаление
// записи проходит двухшаговое подтверждение.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/deepcheck/ui-module/internal/browse"
	"github.com/deepcheck/ui-module/internal/detector"
	"github.com/deepcheck/ui-module/internal/ui/auth"
	"github.com/deepcheck/ui-module/internal/ui/views"
)

// HistoryHandler — обработчик страницы истории.
type HistoryHandler struct {
	api      *detector.Client
	renderer *views.Renderer
	pageSize int
	logger   *slog.Logger

	mu     sync.Mutex
	pagers *expirable.LRU[string, *browse.Pager[detector.HistoryRecord]]
}

// NewHistoryHandler создаёт новый HistoryHandler.
func NewHistoryHandler(api *detector.Client, renderer *views.Renderer, pageSize int, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		api:      api,
		renderer: renderer,
		pageSize: pageSize,
		logger:   logger.With(slog.String("component", "ui.history")),
		pagers:   expirable.NewLRU[string, *browse.Pager[detector.HistoryRecord]](sessionStateLimit, nil, sessionStateTTL),
	}
}

// pagerFor возвращает просмотр истории для токена сессии.
func (h *HistoryHandler) pagerFor(token string) *browse.Pager[detector.HistoryRecord] {
	h.mu.Lock()
	defer h.mu.Unlock()

	pager, ok := h.pagers.Get(token)
	if !ok {
		pager = browse.NewPager(h.fetch, h.pageSize)
		h.pagers.Add(token, pager)
	}
	return pager
}

// Forget удаляет просмотр истории токена (вызывается при logout).
func (h *HistoryHandler) Forget(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pagers.Remove(token)
}

// fetch загружает страницу истории из Detection API.
func (h *HistoryHandler) fetch(ctx context.Context, page, perPage int) (browse.Page[detector.HistoryRecord], error) {
	result, err := h.api.Detection.History(ctx, page, perPage)
	if err != nil {
		return browse.Page[detector.HistoryRecord]{}, err
	}
	return browse.Page[detector.HistoryRecord]{
		Items:      result.History,
		Number:     result.Page,
		PerPage:    result.PerPage,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	}, nil
}

// HandleHistory обрабатывает GET /history — страница истории анализов.
// Параметр page зажимается в допустимый диапазон; переход по страницам
// отменяет неподтверждённое удаление.
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	pager := h.pagerFor(session.Token)
	pager.Cancel()

	pageNum := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		pageNum = p
	}

	page, err := pager.Goto(r.Context(), pageNum)
	if err != nil {
		h.logger.Warn("Ошибка загрузки истории", slog.String("error", err.Error()))
		h.render(w, session, page, userMessage(err))
		return
	}

	h.render(w, session, page, "")
}

// HandleDetails обрабатывает GET /history/{id} — детали одного анализа.
func (h *HistoryHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/history", http.StatusFound)
		return
	}

	record, err := h.api.Detection.AnalysisDetails(r.Context(), id)
	if err != nil {
		h.logger.Warn("Ошибка получения деталей анализа",
			slog.Int("analysis_id", id),
			slog.String("error", err.Error()))
		page := h.pagerFor(session.Token).Current()
		h.render(w, session, page, userMessage(err))
		return
	}

	backPage := h.pagerFor(session.Token).Current().Number
	if backPage < 1 {
		backPage = 1
	}
	backURL := fmt.Sprintf("/history?page=%d", backPage)
	view := &views.View{
		Title:  "Детали анализа",
		Active: "history",
		User:   session.Identity,
		Data:   &views.DetailsData{Record: record, BackURL: backURL},
	}
	if err := h.renderer.Render(w, views.PageDetails, view); err != nil {
		h.logger.Error("Ошибка рендеринга деталей", slog.String("error", err.Error()))
	}
}

// HandleDelete обрабатывает POST /history/{id}/delete.
// Первый POST регистрирует удаление и показывает страницу подтверждения;
// POST с confirm=yes выполняет удаление и перезагружает ту же страницу.
func (h *HistoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	pager := h.pagerFor(session.Token)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/history", http.StatusFound)
		return
	}

	if r.PostFormValue("confirm") != "yes" {
		// Шаг 1: регистрируем мутацию и просим подтверждение
		pager.Cancel()
		label := fmt.Sprintf("Удалить запись анализа #%d? Операция необратима.", id)
		if err := pager.RequestMutation(label, func(ctx context.Context) error {
			return h.api.Detection.DeleteAnalysis(ctx, id)
		}); err != nil {
			http.Redirect(w, r, "/history", http.StatusFound)
			return
		}

		h.renderConfirm(w, session, label,
			fmt.Sprintf("/history/%d/delete", id),
			fmt.Sprintf("/history?page=%d", pager.Current().Number))
		return
	}

	// Шаг 2: подтверждение получено
	if pager.Pending() == nil {
		// Прямой POST с confirm=yes — регистрируем и выполняем сразу
		_ = pager.RequestMutation("", func(ctx context.Context) error {
			return h.api.Detection.DeleteAnalysis(ctx, id)
		})
	}

	page, err := pager.Confirm(r.Context())
	if err != nil {
		h.logger.Warn("Ошибка удаления записи истории",
			slog.Int("analysis_id", id),
			slog.String("error", err.Error()))
		h.render(w, session, page, userMessage(err))
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/history?page=%d", page.Number), http.StatusFound)
}

// render рендерит страницу истории.
func (h *HistoryHandler) render(w http.ResponseWriter, session *auth.Session, page browse.Page[detector.HistoryRecord], errMsg string) {
	view := &views.View{
		Title:  "История",
		Active: "history",
		User:   session.Identity,
		Error:  errMsg,
		Data: &views.HistoryData{
			Records:    page.Items,
			Pagination: pagination(page.Number, page.TotalPages, page.Total, "/history?"),
		},
	}
	if err := h.renderer.Render(w, views.PageHistory, view); err != nil {
		h.logger.Error("Ошибка рендеринга истории", slog.String("error", err.Error()))
	}
}

// renderConfirm рендерит страницу подтверждения мутации.
func (h *HistoryHandler) renderConfirm(w http.ResponseWriter, session *auth.Session, message, confirmURL, cancelURL string) {
	view := &views.View{
		Title:  "Подтверждение",
		Active: "history",
		User:   session.Identity,
		Data: &views.ConfirmData{
			Message:    message,
			ConfirmURL: confirmURL,
			CancelURL:  cancelURL,
		},
	}
	if err := h.renderer.Render(w, views.PageConfirm, view); err != nil {
		h.logger.Error("Ошибка рендеринга подтверждения", slog.String("error", err.Error()))
	}
}

// pagination строит view-модель навигации по страницам.
func pagination(page, totalPages, total int, baseURL string) views.Pagination {
	if page < 1 {
		page = 1
	}
	if totalPages < 1 {
		totalPages = 1
	}
	return views.Pagination{
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		PrevPage:   page - 1,
		NextPage:   page + 1,
		BaseURL:    baseURL,
	}
}
