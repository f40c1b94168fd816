// Пакет handlers — HTTP-обработчики страниц UI DeepCheck.
// Файл auth.go — вход, регистрация и выход.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/deepcheck/ui-module/internal/detector"
	"github.com/deepcheck/ui-module/internal/ui/auth"
	"github.com/deepcheck/ui-module/internal/ui/views"
)

// SessionState — per-session состояние обработчика, которое надо
// освобождать при выходе пользователя.
type SessionState interface {
	Forget(token string)
}

// AuthHandler — обработчик страниц входа и регистрации.
type AuthHandler struct {
	sessions *auth.Controller
	renderer *views.Renderer
	states   []SessionState
	logger   *slog.Logger
}

// NewAuthHandler создаёт новый AuthHandler. states — обработчики,
// чьё per-session состояние сбрасывается при logout.
func NewAuthHandler(sessions *auth.Controller, renderer *views.Renderer, logger *slog.Logger, states ...SessionState) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		renderer: renderer,
		states:   states,
		logger:   logger.With(slog.String("component", "ui.auth")),
	}
}

// HandleLoginPage обрабатывает GET /login — страница входа.
// Аутентифицированный пользователь перенаправляется на dashboard.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if auth.SessionFromContext(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.render(w, views.PageLogin, "Вход", "")
}

// HandleLogin обрабатывает POST /login — отправка формы входа.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, views.PageLogin, "Вход", "Некорректная форма")
		return
	}

	input := detector.LoginInput{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if input.Username == "" || input.Password == "" {
		h.render(w, views.PageLogin, "Вход", "Укажите имя пользователя и пароль")
		return
	}

	if _, err := h.sessions.Login(r.Context(), w, input); err != nil {
		h.render(w, views.PageLogin, "Вход", userMessage(err))
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// HandleSignupPage обрабатывает GET /signup — страница регистрации.
func (h *AuthHandler) HandleSignupPage(w http.ResponseWriter, r *http.Request) {
	if auth.SessionFromContext(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.render(w, views.PageSignup, "Регистрация", "")
}

// HandleSignup обрабатывает POST /signup — отправка формы регистрации.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, views.PageSignup, "Регистрация", "Некорректная форма")
		return
	}

	input := detector.SignupInput{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if input.Username == "" || input.Email == "" || input.Password == "" {
		h.render(w, views.PageSignup, "Регистрация", "Заполните все поля")
		return
	}

	if _, err := h.sessions.Signup(r.Context(), w, input); err != nil {
		h.render(w, views.PageSignup, "Регистрация", userMessage(err))
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// HandleLogout обрабатывает POST /logout — выход из системы.
// Cookie удаляется без обращения к Detection API; повторный выход безопасен.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	h.sessions.Logout(w, session.Token)
	for _, s := range h.states {
		s.Forget(session.Token)
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

// render рендерит публичную страницу входа/регистрации.
func (h *AuthHandler) render(w http.ResponseWriter, page, title, errMsg string) {
	view := &views.View{Title: title, Error: errMsg}
	if err := h.renderer.Render(w, page, view); err != nil {
		h.logger.Error("Ошибка рендеринга страницы",
			slog.String("page", page),
			slog.String("error", err.Error()))
	}
}

// userMessage извлекает сообщение для пользователя из ошибки:
// текст сервера из APIError либо общая формулировка.
func userMessage(err error) string {
	var apiErr *detector.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "Сервис временно недоступен, попробуйте позже"
}
