// Пакет workflow — конечный автомат отправки файла на анализ.
// Валидация файла на клиенте (тип, размер), одна отправка в полёте,
// устаревшие ответы после Reset отбрасываются по номеру поколения.
package workflow

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/deepcheck/ui-module/internal/detector"
)

// Максимальный размер файла, принимаемый на анализ (100 MiB).
const MaxFileSize = 100 * 1024 * 1024

// State — состояние конечного автомата отправки.
type State int

const (
	// StateIdle — файл не выбран.
	StateIdle State = iota
	// StateSelected — файл прошёл валидацию и готов к отправке.
	StateSelected
	// StateSubmitting — отправка выполняется.
	StateSubmitting
	// StateSucceeded — анализ завершён, результат доступен.
	StateSucceeded
	// StateFailed — отправка завершилась ошибкой.
	StateFailed
)

// String возвращает имя состояния для логов.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelected:
		return "selected"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Ошибки валидации и управления отправкой.
var (
	// ErrUnsupportedType — MIME-тип файла не image/* и не video/*.
	ErrUnsupportedType = errors.New("неподдерживаемый тип файла: ожидается изображение или видео")
	// ErrFileTooLarge — размер файла превышает MaxFileSize.
	ErrFileTooLarge = errors.New("файл превышает максимальный размер 100 MB")
	// ErrNoFileSelected — отправка без выбранного файла.
	ErrNoFileSelected = errors.New("файл не выбран")
	// ErrSubmissionInFlight — отправка уже выполняется.
	ErrSubmissionInFlight = errors.New("отправка уже выполняется")
	// ErrStale — результат отброшен: Reset выполнен во время отправки.
	ErrStale = errors.New("отправка сброшена")
)

// FileInfo — метаданные выбранного файла.
type FileInfo struct {
	Name string
	MIME string
	Size int64
}

// IsImage сообщает, выбран ли файл-изображение.
func (f *FileInfo) IsImage() bool {
	return strings.HasPrefix(f.MIME, "image/")
}

// Snapshot — копия состояния автомата для рендеринга.
type Snapshot struct {
	State   State
	File    *FileInfo
	Preview string
	Result  *detector.AnalysisResult
	Error   string
}

// Controller — контроллер отправки файла на анализ.
// Все переходы защищены мьютексом; номер поколения растёт при каждом
// Reset, завершившиеся после Reset отправки не меняют состояние.
type Controller struct {
	api    *detector.Client
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	file       *FileInfo
	data       []byte
	preview    string
	result     *detector.AnalysisResult
	errMsg     string
	generation uint64
	inflight   bool
}

// New создаёт контроллер отправки.
func New(api *detector.Client, logger *slog.Logger) *Controller {
	return &Controller{
		api:    api,
		logger: logger.With(slog.String("component", "analysis-workflow")),
		state:  StateIdle,
	}
}

// Select валидирует файл и переводит автомат в Selected.
// Отклоняет файлы с MIME-типом вне image/* и video/* и файлы больше
// MaxFileSize; при отказе предыдущий выбор сбрасывается и автомат
// возвращается в Idle. Пока отправка в полёте, новый выбор не
// принимается. Для изображений строится data-URL превью, для видео
// превью нет.
func (c *Controller) Select(name, mimeType string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight {
		return ErrSubmissionInFlight
	}

	if !strings.HasPrefix(mimeType, "image/") && !strings.HasPrefix(mimeType, "video/") {
		c.clear()
		return ErrUnsupportedType
	}
	if int64(len(data)) > MaxFileSize {
		c.clear()
		return ErrFileTooLarge
	}

	c.file = &FileInfo{Name: name, MIME: mimeType, Size: int64(len(data))}
	c.data = data
	c.result = nil
	c.errMsg = ""
	c.preview = ""
	if c.file.IsImage() {
		c.preview = fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
	}
	c.state = StateSelected

	c.logger.Debug("Файл выбран",
		slog.String("file", name),
		slog.String("mime", mimeType),
		slog.Int("size", len(data)))
	return nil
}

// Submit отправляет выбранный файл на анализ и ждёт результата.
// Одновременно допускается одна отправка. Если во время отправки
// выполнен Reset, пришедший ответ отбрасывается и возвращается ErrStale.
func (c *Controller) Submit(ctx context.Context) (*detector.AnalysisResult, error) {
	c.mu.Lock()
	if c.inflight {
		c.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if c.state != StateSelected || c.file == nil {
		c.mu.Unlock()
		return nil, ErrNoFileSelected
	}

	file := c.file
	data := c.data
	gen := c.generation
	c.state = StateSubmitting
	c.inflight = true
	c.mu.Unlock()

	result, err := c.analyze(ctx, file, data)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight = false
	// Содержимое файла после завершения отправки больше не нужно
	c.data = nil

	if gen != c.generation {
		// Reset выполнен во время отправки — ответ устарел
		c.logger.Debug("Результат анализа отброшен после сброса",
			slog.String("file", file.Name))
		return nil, ErrStale
	}

	if err != nil {
		c.state = StateFailed
		c.errMsg = errorMessage(err)
		c.logger.Warn("Ошибка анализа файла",
			slog.String("file", file.Name),
			slog.String("error", err.Error()))
		return nil, err
	}

	c.state = StateSucceeded
	c.result = result
	c.preview = ""
	c.logger.Info("Анализ завершён",
		slog.String("file", file.Name),
		slog.String("prediction", result.Prediction),
		slog.Float64("confidence", result.Confidence))
	return result, nil
}

// Reset возвращает автомат в Idle: файл, превью, результат и ошибка
// очищаются. Идемпотентен; выполняется и во время отправки — тогда
// её ответ будет отброшен.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.clear()
}

// clear возвращает автомат в Idle. Вызывается под мьютексом.
func (c *Controller) clear() {
	c.state = StateIdle
	c.file = nil
	c.data = nil
	c.preview = ""
	c.result = nil
	c.errMsg = ""
}

// Snapshot возвращает копию текущего состояния для рендеринга.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		State:   c.state,
		File:    c.file,
		Preview: c.preview,
		Result:  c.result,
		Error:   c.errMsg,
	}
}

// analyze выбирает endpoint по типу файла.
func (c *Controller) analyze(ctx context.Context, file *FileInfo, data []byte) (*detector.AnalysisResult, error) {
	if file.IsImage() {
		return c.api.Detection.AnalyzeImage(ctx, file.Name, bytes.NewReader(data))
	}
	return c.api.Detection.AnalyzeVideo(ctx, file.Name, bytes.NewReader(data))
}

// errorMessage извлекает сообщение для пользователя:
// текст сервера из APIError либо общая формулировка.
func errorMessage(err error) string {
	var apiErr *detector.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "Сервис анализа недоступен, попробуйте позже"
}
