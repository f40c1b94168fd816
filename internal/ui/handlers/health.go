// health.go — Kubernetes health-пробы UI Module.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/deepcheck/ui-module/internal/service"
)

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	dephealth *service.DephealthService
	logger    *slog.Logger
}

// NewHealthHandler создаёт новый HealthHandler.
// dephealth может быть nil — тогда readiness не проверяет зависимости.
func NewHealthHandler(dephealth *service.DephealthService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		dephealth: dephealth,
		logger:    logger.With(slog.String("component", "ui.health")),
	}
}

// HandleLive обрабатывает GET /health/live — liveness probe.
// Всегда 200, пока процесс жив.
func (h *HealthHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReady обрабатывает GET /health/ready — readiness probe.
// 503, если Detection API недоступен.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if h.dephealth != nil {
		for name, ok := range h.dephealth.Health() {
			if !ok {
				h.logger.Warn("Readiness: зависимость недоступна", slog.String("dependency", name))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"reason": name,
				})
				return
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON пишет JSON-ответ со статусом.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
