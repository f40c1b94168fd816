package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deepcheck/ui-module/internal/detector"
)

// TestCredStoreEncryptDecryptRoundTrip проверяет шифрование и дешифрование Credentials.
func TestCredStoreEncryptDecryptRoundTrip(t *testing.T) {
	cs, err := NewCredStore("", false)
	if err != nil {
		t.Fatalf("Ошибка создания CredStore: %v", err)
	}

	original := &Credentials{
		Token: "opaque-token-12345",
		User: detector.Identity{
			ID:       7,
			Username: "alice",
			Email:    "alice@example.com",
			Role:     detector.RoleAdmin,
		},
	}

	encrypted, err := cs.Encrypt(original)
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}
	if encrypted == "" {
		t.Fatal("Зашифрованная строка пустая")
	}

	decrypted, err := cs.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Ошибка дешифрования: %v", err)
	}

	if decrypted.Token != original.Token {
		t.Errorf("Token: want %q, got %q", original.Token, decrypted.Token)
	}
	if decrypted.User.Username != original.User.Username {
		t.Errorf("Username: want %q, got %q", original.User.Username, decrypted.User.Username)
	}
	if decrypted.User.Role != original.User.Role {
		t.Errorf("Role: want %q, got %q", original.User.Role, decrypted.User.Role)
	}
}

// TestCredStoreWithStringKey проверяет инициализацию с произвольной строкой-ключом.
func TestCredStoreWithStringKey(t *testing.T) {
	cs, err := NewCredStore("my-secret-key-for-testing", false)
	if err != nil {
		t.Fatalf("Ошибка создания CredStore со string-ключом: %v", err)
	}

	creds := &Credentials{Token: "token123"}
	encrypted, err := cs.Encrypt(creds)
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}

	decrypted, err := cs.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Ошибка дешифрования: %v", err)
	}
	if decrypted.Token != creds.Token {
		t.Errorf("Token: want %q, got %q", creds.Token, decrypted.Token)
	}
}

// TestCredStoreDecryptWithWrongKey проверяет, что дешифрование чужим ключом не работает.
func TestCredStoreDecryptWithWrongKey(t *testing.T) {
	cs1, _ := NewCredStore("key-one", false)
	cs2, _ := NewCredStore("key-two", false)

	encrypted, err := cs1.Encrypt(&Credentials{Token: "secret"})
	if err != nil {
		t.Fatalf("Ошибка шифрования: %v", err)
	}

	if _, err := cs2.Decrypt(encrypted); err == nil {
		t.Error("Ожидалась ошибка при дешифровании чужим ключом")
	}
}

// TestCredStoreCookieSetAndGet проверяет установку и извлечение cookie.
func TestCredStoreCookieSetAndGet(t *testing.T) {
	cs, _ := NewCredStore("test-key", false)

	creds := &Credentials{
		Token: "access-123",
		User:  detector.Identity{Username: "alice", Role: detector.RoleUser},
	}

	w := httptest.NewRecorder()
	if err := cs.Set(w, creds); err != nil {
		t.Fatalf("Ошибка установки cookie: %v", err)
	}

	resp := w.Result()
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		t.Fatal("Cookie не установлен")
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookies[0])

	got, err := cs.Get(req)
	if err != nil {
		t.Fatalf("Ошибка чтения учётных данных из cookie: %v", err)
	}
	if got == nil {
		t.Fatal("Учётные данные не найдены")
	}
	if got.Token != creds.Token {
		t.Errorf("Token: want %q, got %q", creds.Token, got.Token)
	}
	if got.User.Username != creds.User.Username {
		t.Errorf("Username: want %q, got %q", creds.User.Username, got.User.Username)
	}

	cookie := cookies[0]
	if cookie.Name != SessionCookieName {
		t.Errorf("Cookie name: want %q, got %q", SessionCookieName, cookie.Name)
	}
	if cookie.Path != "/" {
		t.Errorf("Cookie path: want %q, got %q", "/", cookie.Path)
	}
	if !cookie.HttpOnly {
		t.Error("Cookie должен быть HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Error("Cookie должен быть SameSite=Lax")
	}
}

// TestCredStoreCookieMissing проверяет, что отсутствие cookie возвращает nil, nil.
func TestCredStoreCookieMissing(t *testing.T) {
	cs, _ := NewCredStore("test-key", false)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	creds, err := cs.Get(req)
	if err != nil {
		t.Fatalf("Ожидалось nil error, получено: %v", err)
	}
	if creds != nil {
		t.Error("Ожидалось nil при отсутствии cookie")
	}
}

// TestCredStoreCookieCorrupt проверяет, что повреждённый cookie эквивалентен отсутствию.
func TestCredStoreCookieCorrupt(t *testing.T) {
	cs, _ := NewCredStore("test-key", false)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "not-a-valid-ciphertext"})

	creds, err := cs.Get(req)
	if err != nil {
		t.Fatalf("Ожидалось nil error, получено: %v", err)
	}
	if creds != nil {
		t.Error("Ожидалось nil для повреждённого cookie")
	}
}

// TestCredStoreClear проверяет очистку session cookie.
func TestCredStoreClear(t *testing.T) {
	cs, _ := NewCredStore("test-key", false)

	w := httptest.NewRecorder()
	cs.Clear(w)

	resp := w.Result()
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		t.Fatal("Cookie очистки не установлен")
	}

	cookie := cookies[0]
	if cookie.MaxAge != -1 {
		t.Errorf("MaxAge: want -1, got %d", cookie.MaxAge)
	}
	if cookie.Value != "" {
		t.Error("Value должен быть пустым")
	}
}
