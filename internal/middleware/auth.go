// Package middleware содержит HTTP middleware ядра бронирования.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type contextKey string

const staffIDKey contextKey = "staffID"

const (
	staffCookieName = "staff_token"
	staffCookieTTL  = 12 * time.Hour
	bearerPrefix    = "Bearer "
)

// AuthMiddleware проверяет подписанный токен сотрудника отеля.
// Токен передаётся в заголовке Authorization: Bearer или в cookie staff_token.
type AuthMiddleware struct {
	secretKey []byte
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным секретным ключом.
// Пустой ключ заменяется случайным: токены тогда действуют до перезапуска процесса.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AuthMiddleware{
		secretKey: key,
	}
}

// Middleware пропускает только запросы с действительным токеном сотрудника.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		staffID, ok := a.staffFromRequest(r)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), staffIDKey, staffID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional добавляет сотрудника в контекст, если токен действителен, и пропускает запрос в любом случае.
func (a *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if staffID, ok := a.staffFromRequest(r); ok {
			r = r.WithContext(context.WithValue(r.Context(), staffIDKey, staffID))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *AuthMiddleware) staffFromRequest(r *http.Request) (int64, bool) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		return a.parseToken(strings.TrimPrefix(h, bearerPrefix))
	}

	cookie, err := r.Cookie(staffCookieName)
	if err != nil {
		return 0, false
	}
	return a.parseToken(cookie.Value)
}

// Token выпускает токен для сотрудника.
func (a *AuthMiddleware) Token(staffID int64) string {
	return a.sign(strconv.FormatInt(staffID, 10))
}

// SetStaffCookie устанавливает cookie с токеном сотрудника.
func (a *AuthMiddleware) SetStaffCookie(w http.ResponseWriter, staffID int64) {
	cookie := &http.Cookie{
		Name:     staffCookieName,
		Value:    a.Token(staffID),
		Path:     "/",
		Expires:  time.Now().Add(staffCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

func (a *AuthMiddleware) sign(idStr string) string {
	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(idStr))
	return idStr + "." + hex.EncodeToString(mac.Sum(nil))
}

func (a *AuthMiddleware) parseToken(token string) (int64, bool) {
	idStr, signature, found := strings.Cut(token, ".")
	if !found {
		return 0, false
	}

	_, expected, _ := strings.Cut(a.sign(idStr), ".")
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return 0, false
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

// GetStaffIDFromContext извлекает идентификатор сотрудника из контекста запроса.
func GetStaffIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(staffIDKey).(int64)
	return id, ok
}
