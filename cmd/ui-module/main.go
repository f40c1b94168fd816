// Точка входа UI Module — web-интерфейс системы DeepCheck.
// Загружает конфигурацию, создаёт клиент Detection API, контроллер
// сессий и обработчики страниц, запускает мониторинг зависимостей
// (topologymetrics) и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/deepcheck/ui-module/internal/config"
	"github.com/deepcheck/ui-module/internal/detector"
	"github.com/deepcheck/ui-module/internal/server"
	"github.com/deepcheck/ui-module/internal/service"
	"github.com/deepcheck/ui-module/internal/ui/auth"
	uihandlers "github.com/deepcheck/ui-module/internal/ui/handlers"
	uimiddleware "github.com/deepcheck/ui-module/internal/ui/middleware"
	"github.com/deepcheck/ui-module/internal/ui/views"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("UI Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("api_url", cfg.APIURL),
	)

	// Предупреждения о дефолтных значениях topologymetrics
	if os.Getenv("UI_DEPHEALTH_GROUP") == "" {
		logger.Warn("UI_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Рендерер страниц (компиляция встроенных шаблонов)
	renderer, err := views.NewRenderer()
	if err != nil {
		logger.Error("Ошибка компиляции шаблонов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Хранилище учётных данных (зашифрованные cookie)
	credStore, err := auth.NewCredStore(cfg.SessionSecret, cfg.CookieSecure)
	if err != nil {
		logger.Error("Ошибка создания хранилища сессий", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("UI_SESSION_SECRET не задан: сессии не переживут рестарт")
	}

	// 5. Клиент Detection API.
	// Токен берётся из контекста запроса (кладётся session guard'ом).
	apiClient, err := detector.New(detector.Options{
		BaseURL:       cfg.APIURL,
		CACertPath:    cfg.APICACertPath,
		Timeout:       cfg.APITimeout,
		UploadTimeout: cfg.APIUploadTimeout,
	}, auth.TokenFromContext, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента Detection API", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Контроллер сессий с кэшем верификации токенов
	sessions := auth.NewController(credStore, apiClient, cfg.VerifyCacheSize, cfg.VerifyCacheTTL, logger)
	guard := uimiddleware.NewSessionGuard(sessions, logger)

	// 7. Мониторинг зависимостей (topologymetrics)
	dephealthSvc, err := service.NewDephealthService(
		"ui-module",
		cfg.DephealthGroup,
		cfg.APIURL,
		cfg.DephealthCheckInterval,
		cfg.DephealthIsEntry,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания мониторинга зависимостей", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dephealthCtx, dephealthCancel := context.WithCancel(context.Background())
	defer dephealthCancel()
	if err := dephealthSvc.Start(dephealthCtx); err != nil {
		logger.Error("Ошибка запуска мониторинга зависимостей", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dephealthSvc.Stop()

	// 8. Обработчики страниц
	analysisHandler := uihandlers.NewAnalysisHandler(apiClient, renderer, logger)
	historyHandler := uihandlers.NewHistoryHandler(apiClient, renderer, cfg.HistoryPageSize, logger)
	adminHandler := uihandlers.NewAdminHandler(apiClient, renderer, cfg.AdminPageSize, logger)
	h := &server.Handlers{
		Renderer:  renderer,
		Auth:      uihandlers.NewAuthHandler(sessions, renderer, logger, analysisHandler, historyHandler, adminHandler),
		Dashboard: uihandlers.NewDashboardHandler(apiClient, renderer, logger),
		Analysis:  analysisHandler,
		History:   historyHandler,
		Admin:     adminHandler,
		Health:    uihandlers.NewHealthHandler(dephealthSvc, logger),
	}

	// 9. HTTP-сервер с graceful shutdown
	srv := server.New(cfg, logger, h, guard)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка HTTP-сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
