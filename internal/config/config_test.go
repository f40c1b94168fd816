package config

import (
	"log/slog"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения на время теста.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"UI_API_URL": "http://detection-api:5000/api",
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	// Проверяем значения по умолчанию
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, ожидается 8080", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.APIURL != "http://detection-api:5000/api" {
		t.Errorf("APIURL = %q, ожидается http://detection-api:5000/api", cfg.APIURL)
	}
	if cfg.APITimeout != 30*time.Second {
		t.Errorf("APITimeout = %v, ожидается 30s", cfg.APITimeout)
	}
	if cfg.APIUploadTimeout != 5*time.Minute {
		t.Errorf("APIUploadTimeout = %v, ожидается 5m", cfg.APIUploadTimeout)
	}
	if cfg.VerifyCacheSize != 1024 {
		t.Errorf("VerifyCacheSize = %d, ожидается 1024", cfg.VerifyCacheSize)
	}
	if cfg.VerifyCacheTTL != 30*time.Second {
		t.Errorf("VerifyCacheTTL = %v, ожидается 30s", cfg.VerifyCacheTTL)
	}
	if cfg.HistoryPageSize != 10 {
		t.Errorf("HistoryPageSize = %d, ожидается 10", cfg.HistoryPageSize)
	}
	if cfg.AdminPageSize != 20 {
		t.Errorf("AdminPageSize = %d, ожидается 20", cfg.AdminPageSize)
	}
	if cfg.DephealthGroup != "deepcheck" {
		t.Errorf("DephealthGroup = %q, ожидается deepcheck", cfg.DephealthGroup)
	}
	if !cfg.DephealthIsEntry {
		t.Error("DephealthIsEntry = false, ожидается true")
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_MissingAPIURL(t *testing.T) {
	// UI_API_URL не задан — Load обязан вернуть ошибку
	_, err := Load()
	if err == nil {
		t.Fatal("Load() без UI_API_URL должен вернуть ошибку")
	}
}

func TestLoad_TrailingSlashTrimmed(t *testing.T) {
	setEnvs(t, map[string]string{
		"UI_API_URL": "http://detection-api:5000/api/",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.APIURL != "http://detection-api:5000/api" {
		t.Errorf("APIURL = %q, trailing slash должен быть убран", cfg.APIURL)
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	envs := minimalEnvs()
	envs["UI_LOG_LEVEL"] = "verbose"
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Fatal("Load() с недопустимым UI_LOG_LEVEL должен вернуть ошибку")
	}
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	envs := minimalEnvs()
	envs["UI_LOG_FORMAT"] = "xml"
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Fatal("Load() с недопустимым UI_LOG_FORMAT должен вернуть ошибку")
	}
}

func TestLoad_PageSizeOutOfRange(t *testing.T) {
	envs := minimalEnvs()
	envs["UI_HISTORY_PAGE_SIZE"] = "500"
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Fatal("Load() с UI_HISTORY_PAGE_SIZE=500 должен вернуть ошибку")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	envs := minimalEnvs()
	envs["UI_PORT"] = "9090"
	envs["UI_LOG_LEVEL"] = "debug"
	envs["UI_LOG_FORMAT"] = "text"
	envs["UI_VERIFY_CACHE_TTL"] = "1m"
	envs["UI_COOKIE_SECURE"] = "true"
	envs["UI_ADMIN_PAGE_SIZE"] = "50"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, ожидается 9090", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, ожидается text", cfg.LogFormat)
	}
	if cfg.VerifyCacheTTL != time.Minute {
		t.Errorf("VerifyCacheTTL = %v, ожидается 1m", cfg.VerifyCacheTTL)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure = false, ожидается true")
	}
	if cfg.AdminPageSize != 50 {
		t.Errorf("AdminPageSize = %d, ожидается 50", cfg.AdminPageSize)
	}
}
