// Пакет config — загрузка и валидация конфигурации UI Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации UI Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Detection API ---

	// Базовый URL Detection API (например, http://detection-api:5000/api)
	APIURL string
	// Путь к CA-сертификату для TLS-соединений с Detection API (опционально)
	APICACertPath string
	// Таймаут обычных запросов к Detection API
	APITimeout time.Duration
	// Таймаут загрузки файлов на анализ (видео анализируется долго)
	APIUploadTimeout time.Duration

	// --- Сессии ---

	// Секрет для шифрования session cookie (AES-256-GCM)
	SessionSecret string
	// Устанавливать Secure flag для cookie (true за HTTPS-терминатором)
	CookieSecure bool
	// Размер кэша результатов verify (записей)
	VerifyCacheSize int
	// TTL записи в кэше verify
	VerifyCacheTTL time.Duration

	// --- Пагинация ---

	// Размер страницы истории пользователя
	HistoryPageSize int
	// Размер страницы админских таблиц (пользователи, общая история)
	AdminPageSize int

	// --- Мониторинг зависимостей ---

	// Имя группы topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration
	// Помечать зависимости лейблом isentry=yes
	DephealthIsEntry bool

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// UI_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("UI_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("UI_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("UI_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// UI_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("UI_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("UI_LOG_LEVEL: %w", err)
	}

	// UI_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("UI_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("UI_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- Detection API ---

	// UI_API_URL — обязательный
	cfg.APIURL, err = getEnvRequired("UI_API_URL")
	if err != nil {
		return nil, err
	}
	// Убираем trailing slash
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	// UI_API_CA_CERT_PATH — путь к CA-сертификату (опционально)
	cfg.APICACertPath = getEnvDefault("UI_API_CA_CERT_PATH", "")

	// UI_API_TIMEOUT — таймаут обычных запросов (по умолчанию 30s)
	cfg.APITimeout, err = getEnvDuration("UI_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("UI_API_TIMEOUT: %w", err)
	}

	// UI_API_UPLOAD_TIMEOUT — таймаут загрузки на анализ (по умолчанию 5m)
	cfg.APIUploadTimeout, err = getEnvDuration("UI_API_UPLOAD_TIMEOUT", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("UI_API_UPLOAD_TIMEOUT: %w", err)
	}

	// --- Сессии ---

	// UI_SESSION_SECRET — секрет шифрования cookie (опционально,
	// при пустом значении генерируется случайный ключ)
	cfg.SessionSecret = getEnvDefault("UI_SESSION_SECRET", "")

	// UI_COOKIE_SECURE — Secure flag для cookie (по умолчанию false)
	cfg.CookieSecure, err = getEnvBool("UI_COOKIE_SECURE", false)
	if err != nil {
		return nil, fmt.Errorf("UI_COOKIE_SECURE: %w", err)
	}

	// UI_VERIFY_CACHE_SIZE — размер кэша verify (по умолчанию 1024)
	cfg.VerifyCacheSize, err = getEnvInt("UI_VERIFY_CACHE_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("UI_VERIFY_CACHE_SIZE: %w", err)
	}
	if cfg.VerifyCacheSize < 1 {
		return nil, fmt.Errorf("UI_VERIFY_CACHE_SIZE: значение %d должно быть положительным", cfg.VerifyCacheSize)
	}

	// UI_VERIFY_CACHE_TTL — TTL кэша verify (по умолчанию 30s)
	cfg.VerifyCacheTTL, err = getEnvDuration("UI_VERIFY_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("UI_VERIFY_CACHE_TTL: %w", err)
	}

	// --- Пагинация ---

	// UI_HISTORY_PAGE_SIZE — размер страницы истории (по умолчанию 10)
	cfg.HistoryPageSize, err = getEnvInt("UI_HISTORY_PAGE_SIZE", 10)
	if err != nil {
		return nil, fmt.Errorf("UI_HISTORY_PAGE_SIZE: %w", err)
	}
	if cfg.HistoryPageSize < 1 || cfg.HistoryPageSize > 100 {
		return nil, fmt.Errorf("UI_HISTORY_PAGE_SIZE: значение %d вне допустимого диапазона 1-100", cfg.HistoryPageSize)
	}

	// UI_ADMIN_PAGE_SIZE — размер страницы админских таблиц (по умолчанию 20)
	cfg.AdminPageSize, err = getEnvInt("UI_ADMIN_PAGE_SIZE", 20)
	if err != nil {
		return nil, fmt.Errorf("UI_ADMIN_PAGE_SIZE: %w", err)
	}
	if cfg.AdminPageSize < 1 || cfg.AdminPageSize > 100 {
		return nil, fmt.Errorf("UI_ADMIN_PAGE_SIZE: значение %d вне допустимого диапазона 1-100", cfg.AdminPageSize)
	}

	// --- Мониторинг зависимостей ---

	// UI_DEPHEALTH_GROUP — группа topologymetrics (по умолчанию deepcheck)
	cfg.DephealthGroup = getEnvDefault("UI_DEPHEALTH_GROUP", "deepcheck")

	// UI_DEPHEALTH_CHECK_INTERVAL — интервал проверки (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("UI_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("UI_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// UI_DEPHEALTH_ISENTRY — лейбл isentry=yes (по умолчанию true, UI — входная точка)
	cfg.DephealthIsEntry, err = getEnvBool("UI_DEPHEALTH_ISENTRY", true)
	if err != nil {
		return nil, fmt.Errorf("UI_DEPHEALTH_ISENTRY: %w", err)
	}

	// --- Graceful shutdown ---

	// UI_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("UI_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("UI_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
