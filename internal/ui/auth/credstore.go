// Пакет auth — сессии UI DeepCheck.
// Учётные данные (токен + identity) хранятся в зашифрованном cookie
// (AES-256-GCM), состояние сессии разрешается через Detection API.
package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/deepcheck/ui-module/internal/detector"
)

// Имя cookie для зашифрованной сессии UI.
const SessionCookieName = "deepcheck_session"

// Максимальный возраст cookie сессии (24 часа).
const SessionCookieMaxAge = 24 * 60 * 60

// Credentials — учётные данные, хранящиеся в зашифрованном cookie.
type Credentials struct {
	// Token — opaque токен доступа, выданный Detection API.
	Token string `json:"token"`
	// User — identity пользователя на момент входа.
	// Актуальная роль подтверждается через /auth/verify.
	User detector.Identity `json:"user"`
}

// CredStore — хранилище учётных данных в HTTP cookies.
// Шифрует/дешифрует Credentials через AES-256-GCM.
type CredStore struct {
	// gcm — AEAD cipher для шифрования/дешифрования.
	gcm cipher.AEAD
	// secure — использовать Secure flag для cookie (true для HTTPS).
	secure bool
}

// NewCredStore создаёт хранилище учётных данных.
// key — ключ для AES-256-GCM (base64 32 bytes или произвольная строка,
// хешируемая через SHA-256). Пустой key — случайный ключ,
// непостоянный между рестартами.
func NewCredStore(key string, secure bool) (*CredStore, error) {
	var keyBytes []byte

	if key == "" {
		keyBytes = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
		}
	} else {
		var err error
		keyBytes, err = base64.StdEncoding.DecodeString(key)
		if err != nil || len(keyBytes) != 32 {
			// Не base64 — хешируем строку до 32 bytes (удобство конфигурации)
			h := sha256.Sum256([]byte(key))
			keyBytes = h[:]
		}
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	return &CredStore{
		gcm:    gcm,
		secure: secure,
	}, nil
}

// Encrypt шифрует Credentials и возвращает base64-строку.
func (cs *CredStore) Encrypt(creds *Credentials) (string, error) {
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации учётных данных: %w", err)
	}

	// Уникальный nonce для каждого шифрования
	nonce := make([]byte, cs.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	ciphertext := cs.gcm.Seal(nonce, nonce, plaintext, nil)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt дешифрует base64-строку обратно в Credentials.
func (cs *CredStore) Decrypt(encrypted string) (*Credentials, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования base64: %w", err)
	}

	nonceSize := cs.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("зашифрованные данные слишком короткие")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := cs.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка дешифрования учётных данных: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, fmt.Errorf("ошибка десериализации учётных данных: %w", err)
	}

	return &creds, nil
}

// Set устанавливает зашифрованный session cookie в ответ.
func (cs *CredStore) Set(w http.ResponseWriter, creds *Credentials) error {
	encrypted, err := cs.Encrypt(creds)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encrypted,
		Path:     "/",
		MaxAge:   SessionCookieMaxAge,
		HttpOnly: true,
		Secure:   cs.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Get извлекает и дешифрует Credentials из cookie запроса.
// Отсутствующий или повреждённый cookie — nil, nil: для вызывающего
// это эквивалентно «учётных данных нет».
func (cs *CredStore) Get(r *http.Request) (*Credentials, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	creds, err := cs.Decrypt(cookie.Value)
	if err != nil {
		return nil, nil
	}
	return creds, nil
}

// Clear удаляет session cookie из ответа (logout).
func (cs *CredStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cs.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
