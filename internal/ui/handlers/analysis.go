// analysis.go — обработчик страницы отправки файла на анализ.
// Состояние отправки хранится per-session: каждый токен получает
// собственный конечный автомат workflow.Controller.
package handlers

import (
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/deepcheck/ui-module/internal/detector"
	"github.com/deepcheck/ui-module/internal/ui/auth"
	"github.com/deepcheck/ui-module/internal/ui/views"
	"github.com/deepcheck/ui-module/internal/workflow"
)

// Per-session состояние (автоматы отправки, пагинаторы) хранится в
// expirable-LRU: живёт не дольше cookie сессии и ограничено по числу
// записей. Logout вытесняет запись немедленно через Forget.
const (
	sessionStateLimit = 1024
	sessionStateTTL   = auth.SessionCookieMaxAge * time.Second
)

// AnalysisHandler — обработчик страницы анализа.
type AnalysisHandler struct {
	api      *detector.Client
	renderer *views.Renderer
	logger   *slog.Logger

	mu        sync.Mutex
	workflows *expirable.LRU[string, *workflow.Controller]
}

// NewAnalysisHandler создаёт новый AnalysisHandler.
func NewAnalysisHandler(api *detector.Client, renderer *views.Renderer, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		api:       api,
		renderer:  renderer,
		logger:    logger.With(slog.String("component", "ui.analysis")),
		workflows: expirable.NewLRU[string, *workflow.Controller](sessionStateLimit, nil, sessionStateTTL),
	}
}

// workflowFor возвращает конечный автомат отправки для токена сессии.
func (h *AnalysisHandler) workflowFor(token string) *workflow.Controller {
	h.mu.Lock()
	defer h.mu.Unlock()

	wf, ok := h.workflows.Get(token)
	if !ok {
		wf = workflow.New(h.api, h.logger)
		h.workflows.Add(token, wf)
	}
	return wf
}

// Forget удаляет состояние отправки токена (вызывается при logout).
func (h *AnalysisHandler) Forget(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.workflows.Remove(token)
}

// HandleAnalysisPage обрабатывает GET /analysis — форма отправки
// либо результат завершённого анализа.
func (h *AnalysisHandler) HandleAnalysisPage(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	snap := h.workflowFor(session.Token).Snapshot()
	h.render(w, session, snap, "")
}

// HandleAnalyze обрабатывает POST /analysis — приём файла и отправка на анализ.
// Файл валидируется до обращения к Detection API: принимаются только
// image/* и video/* размером до 100 MB.
func (h *AnalysisHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	wf := h.workflowFor(session.Token)

	// Лимит чтения тела с запасом на multipart-оверхед
	r.Body = http.MaxBytesReader(w, r.Body, workflow.MaxFileSize+1024*1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.render(w, session, wf.Snapshot(), "Не удалось прочитать файл: выберите файл до 100 MB")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.render(w, session, wf.Snapshot(), "Не удалось прочитать файл")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	if err := wf.Select(header.Filename, mimeType, data); err != nil {
		h.render(w, session, wf.Snapshot(), validationMessage(err))
		return
	}

	if _, err := wf.Submit(r.Context()); err != nil {
		if errors.Is(err, workflow.ErrStale) {
			// Сброс во время отправки — показываем чистую форму
			http.Redirect(w, r, "/analysis", http.StatusFound)
			return
		}
		snap := wf.Snapshot()
		h.render(w, session, snap, snap.Error)
		return
	}

	h.render(w, session, wf.Snapshot(), "")
}

// HandleReset обрабатывает POST /analysis/reset — возврат к чистой форме.
func (h *AnalysisHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	h.workflowFor(session.Token).Reset()
	http.Redirect(w, r, "/analysis", http.StatusFound)
}

// render рендерит страницу анализа по снимку состояния.
func (h *AnalysisHandler) render(w http.ResponseWriter, session *auth.Session, snap workflow.Snapshot, errMsg string) {
	data := &views.AnalysisData{
		State:     snap.State.String(),
		Preview:   template.URL(snap.Preview),
		Result:    snap.Result,
		MaxSizeMB: workflow.MaxFileSize / (1024 * 1024),
	}
	if snap.File != nil {
		data.FileName = snap.File.Name
	}

	view := &views.View{
		Title:  "Анализ",
		Active: "analysis",
		User:   session.Identity,
		Error:  errMsg,
		Data:   data,
	}
	if err := h.renderer.Render(w, views.PageAnalysis, view); err != nil {
		h.logger.Error("Ошибка рендеринга страницы анализа", slog.String("error", err.Error()))
	}
}

// validationMessage переводит ошибки валидации в сообщение для пользователя.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, workflow.ErrUnsupportedType):
		return "Поддерживаются только изображения и видео"
	case errors.Is(err, workflow.ErrFileTooLarge):
		return "Файл превышает максимальный размер 100 MB"
	case errors.Is(err, workflow.ErrSubmissionInFlight):
		return "Дождитесь завершения текущего анализа"
	default:
		return userMessage(err)
	}
}
