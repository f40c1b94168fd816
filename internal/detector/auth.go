// auth.go — фасад аутентификации Detection API.
// Операции: Signup (POST /auth/signup), Login (POST /auth/login),
// Verify (GET /auth/verify, токен берётся из TokenProvider).
package detector

import (
	"context"
	"net/http"
)

// AuthAPI — операции аутентификации.
type AuthAPI struct {
	c *Client
}

// SignupInput — данные регистрации нового пользователя.
type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput — учётные данные для входа.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResult — ответ login/signup: bearer-токен и идентичность.
type AuthResult struct {
	Token string   `json:"token"`
	User  Identity `json:"user"`
}

// verifyResponse — ответ GET /auth/verify.
type verifyResponse struct {
	User Identity `json:"user"`
}

// Signup регистрирует нового пользователя.
// POST /auth/signup — не требует авторизации.
func (a *AuthAPI) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	var result AuthResult
	if err := a.c.doJSON(ctx, http.MethodPost, "/auth/signup", input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Login выполняет вход по учётным данным.
// POST /auth/login — не требует авторизации.
func (a *AuthAPI) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	var result AuthResult
	if err := a.c.doJSON(ctx, http.MethodPost, "/auth/login", input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Verify проверяет текущий bearer-токен и возвращает идентичность.
// GET /auth/verify — токен добавляется через TokenProvider.
func (a *AuthAPI) Verify(ctx context.Context) (*Identity, error) {
	var resp verifyResponse
	if err := a.c.doJSON(ctx, http.MethodGet, "/auth/verify", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}
