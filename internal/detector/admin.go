// admin.go — административный фасад Detection API.
// Все операции требуют роли admin — сервер проверяет её самостоятельно,
// клиентская проверка в Route Guard лишь избавляет от лишнего запроса.
package detector

import (
	"context"
	"fmt"
	"net/http"
)

// AdminAPI — административные операции.
type AdminAPI struct {
	c *Client
}

// updateRoleInput — тело PUT /admin/users/{id}/role.
type updateRoleInput struct {
	Role string `json:"role"`
}

// adminStatsResponse — ответ GET /admin/stats.
type adminStatsResponse struct {
	Stats          AdminStats      `json:"stats"`
	RecentActivity []HistoryRecord `json:"recent_activity"`
}

// Users возвращает страницу списка пользователей.
// GET /admin/users?page=N&per_page=M.
func (a *AdminAPI) Users(ctx context.Context, page, perPage int) (*UsersPage, error) {
	var result UsersPage
	path := fmt.Sprintf("/admin/users?page=%d&per_page=%d", page, perPage)
	if err := a.c.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AllHistory возвращает страницу истории анализов всех пользователей.
// GET /admin/all-history?page=N&per_page=M.
func (a *AdminAPI) AllHistory(ctx context.Context, page, perPage int) (*HistoryPage, error) {
	var result HistoryPage
	path := fmt.Sprintf("/admin/all-history?page=%d&per_page=%d", page, perPage)
	if err := a.c.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Stats возвращает общесистемную статистику с последней активностью.
// GET /admin/stats.
func (a *AdminAPI) Stats(ctx context.Context) (*AdminStatsResult, error) {
	var resp adminStatsResponse
	if err := a.c.doJSON(ctx, http.MethodGet, "/admin/stats", nil, &resp); err != nil {
		return nil, err
	}
	return &AdminStatsResult{Stats: resp.Stats, RecentActivity: resp.RecentActivity}, nil
}

// DeleteUser удаляет учётную запись пользователя.
// DELETE /admin/users/{id} — сервер запрещает удаление собственной записи.
func (a *AdminAPI) DeleteUser(ctx context.Context, id int) error {
	var resp deleteResponse
	path := fmt.Sprintf("/admin/users/%d", id)
	return a.c.doJSON(ctx, http.MethodDelete, path, nil, &resp)
}

// UpdateUserRole изменяет роль пользователя (user или admin).
// PUT /admin/users/{id}/role.
func (a *AdminAPI) UpdateUserRole(ctx context.Context, id int, role string) error {
	var resp deleteResponse
	path := fmt.Sprintf("/admin/users/%d/role", id)
	return a.c.doJSON(ctx, http.MethodPut, path, updateRoleInput{Role: role}, &resp)
}
