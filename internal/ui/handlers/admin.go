// admin.go — обработчики админ-панели: общесистемная статистика,
// управление пользователями, общая история анализов.
// Смена роли и удаление пользователя проходят двухшаговое подтверждение.
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

// Вкладки админ-панели.
const (
	adminTabStats   = "stats"
	adminTabUsers   = "users"
	adminTabHistory = "history"
)

// AdminHandler — обработчик админ-панели.
type AdminHandler struct {
	api      *detector.Client
	renderer *views.Renderer
	pageSize int
	logger   *slog.Logger

	mu            sync.Mutex
	userPagers    *expirable.LRU[string, *browse.Pager[detector.UserRecord]]
	historyPagers *expirable.LRU[string, *browse.Pager[detector.HistoryRecord]]
}

// NewAdminHandler создаёт новый AdminHandler.
func NewAdminHandler(api *detector.Client, renderer *views.Renderer, pageSize int, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		api:           api,
		renderer:      renderer,
		pageSize:      pageSize,
		logger:        logger.With(slog.String("component", "ui.admin")),
		userPagers:    expirable.NewLRU[string, *browse.Pager[detector.UserRecord]](sessionStateLimit, nil, sessionStateTTL),
		historyPagers: expirable.NewLRU[string, *browse.Pager[detector.HistoryRecord]](sessionStateLimit, nil, sessionStateTTL),
	}
}

// userPagerFor возвращает просмотр списка пользователей для токена сессии.
func (h *AdminHandler) userPagerFor(token string) *browse.Pager[detector.UserRecord] {
	h.mu.Lock()
	defer h.mu.Unlock()

	pager, ok := h.userPagers.Get(token)
	if !ok {
		pager = browse.NewPager(h.fetchUsers, h.pageSize)
		h.userPagers.Add(token, pager)
	}
	return pager
}

// historyPagerFor возвращает просмотр общей истории для токена сессии.
func (h *AdminHandler) historyPagerFor(token string) *browse.Pager[detector.HistoryRecord] {
	h.mu.Lock()
	defer h.mu.Unlock()

	pager, ok := h.historyPagers.Get(token)
	if !ok {
		pager = browse.NewPager(h.fetchHistory, h.pageSize)
		h.historyPagers.Add(token, pager)
	}
	return pager
}

// Forget удаляет админские просмотры токена (вызывается при logout).
func (h *AdminHandler) Forget(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.userPagers.Remove(token)
	h.historyPagers.Remove(token)
}

func (h *AdminHandler) fetchUsers(ctx context.Context, page, perPage int) (browse.Page[detector.UserRecord], error) {
	result, err := h.api.Admin.Users(ctx, page, perPage)
	if err != nil {
		return browse.Page[detector.UserRecord]{}, err
	}
	return browse.Page[detector.UserRecord]{
		Items:      result.Users,
		Number:     result.Page,
		PerPage:    result.PerPage,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	}, nil
}

func (h *AdminHandler) fetchHistory(ctx context.Context, page, perPage int) (browse.Page[detector.HistoryRecord], error) {
	result, err := h.api.Admin.AllHistory(ctx, page, perPage)
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

// HandleAdmin обрабатывает GET /admin — админ-панель с вкладками.
// Переключение вкладки сбрасывает номер страницы (ссылки вкладок
// не несут параметр page).
func (h *AdminHandler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())

	tab := r.URL.Query().Get("tab")
	if tab != adminTabUsers && tab != adminTabHistory {
		tab = adminTabStats
	}

	pageNum := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		pageNum = p
	}

	data := &views.AdminData{Tab: tab}
	var loadErr error

	switch tab {
	case adminTabStats:
		result, err := h.api.Admin.Stats(r.Context())
		if err != nil {
			loadErr = err
		} else {
			data.Stats = &result.Stats
			data.Recent = result.RecentActivity
		}
	case adminTabUsers:
		pager := h.userPagerFor(session.Token)
		pager.Cancel()
		page, err := pager.Goto(r.Context(), pageNum)
		if err != nil {
			loadErr = err
		}
		data.Users = page.Items
		data.Pagination = pagination(page.Number, page.TotalPages, page.Total, "/admin?tab=users&")
	case adminTabHistory:
		pager := h.historyPagerFor(session.Token)
		page, err := pager.Goto(r.Context(), pageNum)
		if err != nil {
			loadErr = err
		}
		data.History = page.Items
		data.Pagination = pagination(page.Number, page.TotalPages, page.Total, "/admin?tab=history&")
	}

	errMsg := ""
	if loadErr != nil {
		h.logger.Warn("Ошибка загрузки админ-панели",
			slog.String("tab", tab),
			slog.String("error", loadErr.Error()))
		errMsg = userMessage(loadErr)
	}

	h.render(w, session, data, errMsg)
}

// HandleUserRole обрабатывает POST /admin/users/{id}/role — смена роли.
// Первый POST показывает страницу подтверждения, POST с confirm=yes
// применяет роль и перезагружает ту же страницу списка.
func (h *AdminHandler) HandleUserRole(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	pager := h.userPagerFor(session.Token)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/admin?tab=users", http.StatusFound)
		return
	}

	role := r.PostFormValue("role")
	if role != detector.RoleAdmin && role != detector.RoleUser {
		http.Redirect(w, r, "/admin?tab=users", http.StatusFound)
		return
	}

	apply := func(ctx context.Context) error {
		return h.api.Admin.UpdateUserRole(ctx, id, role)
	}
	label := fmt.Sprintf("Назначить пользователю #%d роль %q?", id, role)

	h.mutate(w, r, session, pager, mutationRequest{
		label:      label,
		apply:      apply,
		confirmURL: fmt.Sprintf("/admin/users/%d/role", id),
		hidden:     map[string]string{"role": role},
	})
}

// HandleUserDelete обрабатывает POST /admin/users/{id}/delete — удаление
// пользователя со всей его историей, с подтверждением.
func (h *AdminHandler) HandleUserDelete(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	pager := h.userPagerFor(session.Token)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/admin?tab=users", http.StatusFound)
		return
	}

	apply := func(ctx context.Context) error {
		return h.api.Admin.DeleteUser(ctx, id)
	}
	label := fmt.Sprintf("Удалить пользователя #%d вместе с его историей анализов? Операция необратима.", id)

	h.mutate(w, r, session, pager, mutationRequest{
		label:      label,
		apply:      apply,
		confirmURL: fmt.Sprintf("/admin/users/%d/delete", id),
	})
}

// mutationRequest — параметры двухшаговой мутации списка пользователей.
type mutationRequest struct {
	label      string
	apply      func(ctx context.Context) error
	confirmURL string
	hidden     map[string]string
}

// mutate реализует двухшаговый протокол подтверждения мутации.
func (h *AdminHandler) mutate(w http.ResponseWriter, r *http.Request, session *auth.Session,
	pager *browse.Pager[detector.UserRecord], req mutationRequest) {

	if r.PostFormValue("confirm") != "yes" {
		pager.Cancel()
		if err := pager.RequestMutation(req.label, req.apply); err != nil {
			http.Redirect(w, r, "/admin?tab=users", http.StatusFound)
			return
		}
		h.renderConfirm(w, session, req)
		return
	}

	if pager.Pending() == nil {
		_ = pager.RequestMutation(req.label, req.apply)
	}

	page, err := pager.Confirm(r.Context())
	if err != nil {
		h.logger.Warn("Ошибка мутации списка пользователей",
			slog.String("operation", req.label),
			slog.String("error", err.Error()))
		data := &views.AdminData{
			Tab:        adminTabUsers,
			Users:      page.Items,
			Pagination: pagination(page.Number, page.TotalPages, page.Total, "/admin?tab=users&"),
		}
		h.render(w, session, data, userMessage(err))
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/admin?tab=users&page=%d", page.Number), http.StatusFound)
}

// render рендерит админ-панель.
func (h *AdminHandler) render(w http.ResponseWriter, session *auth.Session, data *views.AdminData, errMsg string) {
	view := &views.View{
		Title:  "Админ-панель",
		Active: "admin",
		User:   session.Identity,
		Error:  errMsg,
		Data:   data,
	}
	if err := h.renderer.Render(w, views.PageAdmin, view); err != nil {
		h.logger.Error("Ошибка рендеринга админ-панели", slog.String("error", err.Error()))
	}
}

// renderConfirm рендерит страницу подтверждения мутации.
func (h *AdminHandler) renderConfirm(w http.ResponseWriter, session *auth.Session, req mutationRequest) {
	view := &views.View{
		Title:  "Подтверждение",
		Active: "admin",
		User:   session.Identity,
		Data: &views.ConfirmData{
			Message:    req.label,
			ConfirmURL: req.confirmURL,
			CancelURL:  "/admin?tab=users",
			Hidden:     req.hidden,
		},
	}
	if err := h.renderer.Render(w, views.PageConfirm, view); err != nil {
		h.logger.Error("Ошибка рендеринга подтверждения", slog.String("error", err.Error()))
	}
}
