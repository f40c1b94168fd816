// Пакет server — HTTP-сервер UI Module с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на ingress.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deepcheck/ui-module/internal/config"
	"github.com/deepcheck/ui-module/internal/ui/handlers"
	uimiddleware "github.com/deepcheck/ui-module/internal/ui/middleware"
	"github.com/deepcheck/ui-module/internal/ui/static"
	"github.com/deepcheck/ui-module/internal/ui/views"
)

// Handlers — набор обработчиков страниц UI.
type Handlers struct {
	Renderer  *views.Renderer
	Auth      *handlers.AuthHandler
	Dashboard *handlers.DashboardHandler
	Analysis  *handlers.AnalysisHandler
	History   *handlers.HistoryHandler
	Admin     *handlers.AdminHandler
	Health    *handlers.HealthHandler
}

// Server — HTTP-сервер UI Module.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, h *Handlers, guard *uimiddleware.SessionGuard) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(uimiddleware.RequestID())
	router.Use(uimiddleware.MetricsMiddleware())
	router.Use(uimiddleware.RequestLogger(logger))
	router.Use(uimiddleware.Recoverer(h.Renderer, logger))

	// Инфраструктурные endpoints — без сессий.
	// Health и metrics проверяются Kubernetes напрямую.
	router.Get("/health/live", h.Health.HandleLive)
	router.Get("/health/ready", h.Health.HandleReady)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	// Публичные страницы: сессия разрешается, но вход не требуется
	router.Group(func(r chi.Router) {
		r.Use(guard.Resolve())
		r.Get("/login", h.Auth.HandleLoginPage)
		r.Post("/login", h.Auth.HandleLogin)
		r.Get("/signup", h.Auth.HandleSignupPage)
		r.Post("/signup", h.Auth.HandleSignup)
		// Logout работает и для истёкшей сессии
		r.Post("/logout", h.Auth.HandleLogout)
	})

	// Страницы, требующие входа
	router.Group(func(r chi.Router) {
		r.Use(guard.RequireAuth())
		r.Get("/dashboard", h.Dashboard.HandleDashboard)
		r.Get("/analysis", h.Analysis.HandleAnalysisPage)
		r.Post("/analysis", h.Analysis.HandleAnalyze)
		r.Post("/analysis/reset", h.Analysis.HandleReset)
		r.Get("/history", h.History.HandleHistory)
		r.Get("/history/{id}", h.History.HandleDetails)
		r.Post("/history/{id}/delete", h.History.HandleDelete)
	})

	// Админские страницы
	router.Group(func(r chi.Router) {
		r.Use(guard.RequireAdmin())
		r.Get("/admin", h.Admin.HandleAdmin)
		r.Post("/admin/users/{id}/role", h.Admin.HandleUserRole)
		r.Post("/admin/users/{id}/delete", h.Admin.HandleUserDelete)
	})

	// Корень и неизвестные пути — на dashboard
	// (guard перенаправит на /login при отсутствии сессии)
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
