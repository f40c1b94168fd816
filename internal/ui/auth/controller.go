package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/deepcheck/ui-module/internal/detector"
)

// Статус сессии UI.
const (
	// StatusUnknown — учётные данные есть, достоверность ещё не проверена.
	StatusUnknown = "unknown"
	// StatusVerifying — проверка через /auth/verify выполняется.
	StatusVerifying = "verifying"
	// StatusAuthenticated — токен подтверждён Detection API.
	StatusAuthenticated = "authenticated"
	// StatusUnauthenticated — учётных данных нет или токен отклонён.
	StatusUnauthenticated = "unauthenticated"
)

// Prometheus-метрики кэша верификации.
var (
	verifyCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ui_verify_cache_hits_total",
		Help: "Общее количество попаданий в кэш результатов /auth/verify.",
	})
	verifyCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ui_verify_cache_misses_total",
		Help: "Общее количество промахов кэша результатов /auth/verify.",
	})
)

// Session — разрешённое состояние сессии для одного запроса.
type Session struct {
	// Status — один из Status*-статусов.
	Status string
	// Identity — подтверждённый пользователь (только для authenticated).
	Identity *detector.Identity
	// Token — токен доступа текущей сессии.
	Token string
	// Stale — токен отклонён сервером, cookie подлежит удалению.
	Stale bool
}

// IsAuthenticated сообщает, подтверждена ли сессия.
func (s *Session) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated
}

// IsAdmin сообщает, имеет ли подтверждённый пользователь роль admin.
func (s *Session) IsAdmin() bool {
	return s.IsAuthenticated() && s.Identity != nil && s.Identity.IsAdmin()
}

// Controller — контроллер сессий UI.
// Разрешает состояние сессии по cookie: кэш результатов верификации
// с TTL ограничивает частоту обращений к /auth/verify.
type Controller struct {
	store  *CredStore
	api    *detector.Client
	cache  *expirable.LRU[string, detector.Identity]
	logger *slog.Logger
}

// NewController создаёт контроллер сессий.
// cacheSize и cacheTTL задают параметры кэша верификации.
func NewController(store *CredStore, api *detector.Client, cacheSize int, cacheTTL time.Duration, logger *slog.Logger) *Controller {
	return &Controller{
		store:  store,
		api:    api,
		cache:  expirable.NewLRU[string, detector.Identity](cacheSize, nil, cacheTTL),
		logger: logger.With(slog.String("component", "session-controller")),
	}
}

// Resolve разрешает состояние сессии для запроса.
// Без cookie — unauthenticated без обращений к сети. С cookie —
// верификация через кэш либо /auth/verify; отклонённый токен
// помечается Stale для удаления cookie.
func (c *Controller) Resolve(r *http.Request) *Session {
	creds, err := c.store.Get(r)
	if err != nil {
		c.logger.Warn("Ошибка чтения session cookie", slog.String("error", err.Error()))
		return &Session{Status: StatusUnauthenticated}
	}
	if creds == nil {
		return &Session{Status: StatusUnauthenticated}
	}

	if identity, ok := c.cache.Get(creds.Token); ok {
		verifyCacheHitsTotal.Inc()
		return &Session{
			Status:   StatusAuthenticated,
			Identity: &identity,
			Token:    creds.Token,
		}
	}
	verifyCacheMissesTotal.Inc()

	ctx := ContextWithToken(r.Context(), creds.Token)
	identity, err := c.api.Auth.Verify(ctx)
	if err != nil {
		var apiErr *detector.APIError
		if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
			c.logger.Info("Токен отклонён Detection API",
				slog.String("username", creds.User.Username))
			return &Session{Status: StatusUnauthenticated, Stale: true}
		}
		// Транзиентная ошибка (сеть, 5xx): сессию не уничтожаем,
		// но и аутентифицированной не считаем.
		c.logger.Warn("Ошибка верификации токена", slog.String("error", err.Error()))
		return &Session{Status: StatusUnauthenticated, Token: creds.Token}
	}

	c.cache.Add(creds.Token, *identity)
	return &Session{
		Status:   StatusAuthenticated,
		Identity: identity,
		Token:    creds.Token,
	}
}

// Login выполняет вход и устанавливает session cookie.
func (c *Controller) Login(ctx context.Context, w http.ResponseWriter, input detector.LoginInput) (*detector.Identity, error) {
	result, err := c.api.Auth.Login(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("ошибка входа: %w", err)
	}

	if err := c.establish(w, result); err != nil {
		return nil, err
	}

	c.logger.Info("Пользователь вошёл в систему",
		slog.String("username", result.User.Username),
		slog.String("role", result.User.Role))
	return &result.User, nil
}

// Signup регистрирует пользователя и устанавливает session cookie.
func (c *Controller) Signup(ctx context.Context, w http.ResponseWriter, input detector.SignupInput) (*detector.Identity, error) {
	result, err := c.api.Auth.Signup(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("ошибка регистрации: %w", err)
	}

	if err := c.establish(w, result); err != nil {
		return nil, err
	}

	c.logger.Info("Зарегистрирован новый пользователь",
		slog.String("username", result.User.Username))
	return &result.User, nil
}

// Logout завершает сессию: удаляет cookie и запись кэша.
// Сетевых вызовов нет, операция идемпотентна.
func (c *Controller) Logout(w http.ResponseWriter, token string) {
	if token != "" {
		c.cache.Remove(token)
	}
	c.store.Clear(w)
}

// ClearStale удаляет cookie отклонённой сессии.
func (c *Controller) ClearStale(w http.ResponseWriter) {
	c.store.Clear(w)
}

// establish сохраняет учётные данные в cookie и прогревает кэш.
func (c *Controller) establish(w http.ResponseWriter, result *detector.AuthResult) error {
	creds := &Credentials{Token: result.Token, User: result.User}
	if err := c.store.Set(w, creds); err != nil {
		return fmt.Errorf("ошибка сохранения сессии: %w", err)
	}
	c.cache.Add(result.Token, result.User)
	return nil
}
