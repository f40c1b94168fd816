// Пакет detector — HTTP-клиент Detection API.
// Поддерживает TLS с кастомным CA (UI_API_CA_CERT_PATH).
// Три фасада: Auth (signup/login/verify), Detection (анализ файлов,
// история, статистика), Admin (пользователи, общая история, роли).
// Bearer-токен добавляется к каждому запросу, если TokenProvider его вернул.
// Повторов нет: неудачный вызов возвращает ошибку вызывающему.
package detector

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

// TokenProvider — функция, возвращающая bearer-токен текущей сессии.
// Пустая строка — запрос уходит без Authorization header
// (допустимо только для signup/login).
type TokenProvider func(ctx context.Context) string

// APIError — ошибка Detection API с сообщением из тела ответа.
// Message содержит поле "error" ответа и показывается пользователю как есть.
type APIError struct {
	// StatusCode — HTTP статус-код ответа.
	StatusCode int
	// Message — человекочитаемое сообщение сервера.
	Message string
}

// Error возвращает сообщение сервера.
func (e *APIError) Error() string {
	return e.Message
}

// IsUnauthorized сообщает, отклонил ли сервер аутентификацию (401/422).
// flask-jwt-extended возвращает 422 на повреждённый токен.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusUnprocessableEntity
}

// errorBody — тело ответа ошибки Detection API: {"error": "..."}.
type errorBody struct {
	Error string `json:"error"`
}

// Client — HTTP-клиент Detection API.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	uploadClient  *http.Client
	tokenProvider TokenProvider
	logger        *slog.Logger

	// Фасады API
	Auth      *AuthAPI
	Detection *DetectionAPI
	Admin     *AdminAPI
}

// Options — параметры создания клиента.
type Options struct {
	// BaseURL — базовый URL API, например http://detection-api:5000/api.
	BaseURL string
	// CACertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
	CACertPath string
	// Timeout — таймаут обычных запросов.
	Timeout time.Duration
	// UploadTimeout — таймаут загрузки файлов на анализ.
	UploadTimeout time.Duration
}

// New создаёт клиент Detection API.
// tokenProvider — функция получения bearer-токена (может быть nil).
func New(opts Options, tokenProvider TokenProvider, logger *slog.Logger) (*Client, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UploadTimeout == 0 {
		opts.UploadTimeout = 5 * time.Minute
	}

	httpClient := &http.Client{Timeout: opts.Timeout}
	uploadClient := &http.Client{Timeout: opts.UploadTimeout}

	if opts.CACertPath != "" {
		tlsConfig, err := buildTLSConfig(opts.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата Detection API: %w", err)
		}
		transport := &http.Transport{TLSClientConfig: tlsConfig}
		httpClient.Transport = transport
		uploadClient.Transport = transport
		logger.Info("CA-сертификат Detection API добавлен в пул доверия",
			slog.String("ca_cert", opts.CACertPath),
		)
	}

	c := &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		httpClient:    httpClient,
		uploadClient:  uploadClient,
		tokenProvider: tokenProvider,
		logger:        logger.With(slog.String("component", "detector_client")),
	}
	c.Auth = &AuthAPI{c: c}
	c.Detection = &DetectionAPI{c: c}
	c.Admin = &AdminAPI{c: c}
	return c, nil
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &tls.Config{
		RootCAs: caCertPool,
	}, nil
}

// authorize добавляет Authorization header, если TokenProvider вернул токен.
func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if c.tokenProvider == nil {
		return
	}
	if token := c.tokenProvider(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// doJSON выполняет запрос со структурированным телом и декодирует ответ в out.
// body == nil — запрос без тела. out == nil — тело ответа игнорируется.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("сериализация тела запроса %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("создание запроса %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("запрос %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	return c.decodeResponse(resp, method, path, out)
}

// upload выполняет multipart-загрузку файла в поле "file" и декодирует ответ в out.
// Тело запроса стримится через io.Pipe — файл не буферизуется целиком в памяти.
func (c *Client) upload(ctx context.Context, path, fileName string, file io.Reader, out any) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, pr)
	if err != nil {
		return fmt.Errorf("создание запроса загрузки %s: %w", path, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(ctx, req)

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return fmt.Errorf("загрузка файла %s: %w", path, err)
	}
	defer resp.Body.Close()

	return c.decodeResponse(resp, http.MethodPost, path, out)
}

// decodeResponse проверяет статус-код и декодирует тело ответа.
// Не-2xx ответы превращаются в *APIError с сообщением сервера.
func (c *Client) decodeResponse(resp *http.Response, method, path string, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(resp, method, path)
	}

	if out == nil {
		// Дочитываем тело для переиспользования соединения
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("декодирование ответа %s %s: %w", method, path, err)
	}
	return nil
}

// apiError извлекает сообщение из тела ошибки и возвращает *APIError.
func (c *Client) apiError(resp *http.Response, method, path string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		c.logger.Debug("Detection API вернул ошибку",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("message", eb.Error),
		)
		return &APIError{StatusCode: resp.StatusCode, Message: eb.Error}
	}

	// Тело без поля error — используем общую формулировку
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("Detection API вернул статус %d", resp.StatusCode),
	}
}
