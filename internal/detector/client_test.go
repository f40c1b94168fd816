package detector

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// setupMockAPI создаёт mock HTTP-сервер Detection API.
func setupMockAPI(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// newTestClient создаёт клиент с фиксированным токеном.
func newTestClient(t *testing.T, baseURL, token string) *Client {
	t.Helper()
	provider := func(ctx context.Context) string { return token }
	client, err := New(Options{BaseURL: baseURL}, provider, testLogger())
	if err != nil {
		t.Fatalf("создание клиента: %v", err)
	}
	return client
}

// TestClient_BearerHeader проверяет добавление Authorization header.
func TestClient_BearerHeader(t *testing.T) {
	server := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, ожидается Bearer test-token", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(verifyResponse{User: Identity{ID: 1, Username: "alice", Role: RoleUser}})
	})

	client := newTestClient(t, server.URL, "test-token")

	identity, err := client.Auth.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify вернул ошибку: %v", err)
	}
	if identity.Username != "alice" {
		t.Errorf("Username = %q, ожидается alice", identity.Username)
	}
}

// TestClient_NoTokenNoHeader проверяет, что без токена header отсутствует.
func TestClient_NoTokenNoHeader(t *testing.T) {
	server := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, header не должен передаваться", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(AuthResult{Token: "new-token", User: Identity{ID: 2, Username: "bob"}})
	})

	client := newTestClient(t, server.URL, "")

	result, err := client.Auth.Login(context.Background(), LoginInput{Username: "bob", Password: "secret"})
	if err != nil {
		t.Fatalf("Login вернул ошибку: %v", err)
	}
	if result.Token != "new-token" {
		t.Errorf("Token = %q, ожидается new-token", result.Token)
	}
}

// TestClient_APIError проверяет извлечение сообщения сервера из тела ошибки.
func TestClient_APIError(t *testing.T) {
	server := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Analysis not found"})
	})

	client := newTestClient(t, server.URL, "test-token")

	err := client.Detection.DeleteAnalysis(context.Background(), 42)
	if err == nil {
		t.Fatal("ожидалась ошибка")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("ожидался *APIError, получен %T", err)
	}
	if apiErr.Message != "Analysis not found" {
		t.Errorf("Message = %q, ожидается Analysis not found", apiErr.Message)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, ожидается 404", apiErr.StatusCode)
	}
}

// TestClient_APIError_EmptyBody проверяет общую формулировку при теле без поля error.
func TestClient_APIError_EmptyBody(t *testing.T) {
	server := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	client := newTestClient(t, server.URL, "")

	_, err := client.Detection.Stats(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("ожидался *APIError, получен %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, ожидается 502", apiErr.StatusCode)
	}
	if apiErr.Message == "" {
		t.Error("Message пуст, ожидается общая формулировка")
	}
}

// TestAPIError_IsUnauthorized проверяет распознавание отклонённой аутентификации.
func TestAPIError_IsUnauthorized(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{http.StatusUnauthorized, true},
		{http.StatusUnprocessableEntity, true},
		{http.StatusForbidden, false},
		{http.StatusInternalServerError, false},
	}
	for _, tc := range cases {
		e := &APIError{StatusCode: tc.status, Message: "x"}
		if e.IsUnauthorized() != tc.want {
			t.Errorf("IsUnauthorized() для статуса %d = %v, ожидается %v", tc.status, !tc.want, tc.want)
		}
	}
}

// TestClient_Upload проверяет multipart-загрузку: поле file, имя файла, содержимое.
func TestClient_Upload(t *testing.T) {
	const fileContent = "fake image bytes"

	server := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detection/analyze/image" {
			t.Errorf("путь = %q, ожидается /detection/analyze/image", r.URL.Path)
		}

		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			t.Fatalf("Content-Type = %q, ожидается multipart/form-data", r.Header.Get("Content-Type"))
		}

		mr := multipart.NewReader(r.Body, params["boundary"])
		part, err := mr.NextPart()
		if err != nil {
			t.Fatalf("чтение multipart: %v", err)
		}
		if part.FormName() != "file" {
			t.Errorf("имя поля = %q, ожидается file", part.FormName())
		}
		if part.FileName() != "photo.png" {
			t.Errorf("имя файла = %q, ожидается photo.png", part.FileName())
		}
		data, _ := io.ReadAll(part)
		if string(data) != fileContent {
			t.Errorf("содержимое = %q, ожидается %q", data, fileContent)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(AnalysisResult{
			FileName:   "photo.png",
			FileType:   FileTypeImage,
			Prediction: PredictionFake,
			Confidence: 92.3,
		})
	})

	client := newTestClient(t, server.URL, "test-token")

	result, err := client.Detection.AnalyzeImage(context.Background(), "photo.png", strings.NewReader(fileContent))
	if err != nil {
		t.Fatalf("AnalyzeImage вернул ошибку: %v", err)
	}
	if result.Prediction != PredictionFake {
		t.Errorf("Prediction = %q, ожидается fake", result.Prediction)
	}
	if result.Confidence != 92.3 {
		t.Errorf("Confidence = %v, ожидается 92.3", result.Confidence)
	}
}
