// Package middleware содержит HTTP middleware POS-сервиса спортзалов.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const identityKey contextKey = "identity"

// Роли персонала зала.
const (
	RoleGymOwner = "gym_owner"
	RoleStaff    = "staff"
)

// Identity описывает аутентифицированного сотрудника зала.
type Identity struct {
	StaffID string
	GymID   string
	Role    string
}

// Claims описывает полезную нагрузку токена доступа.
type Claims struct {
	GymID string `json:"gym_id"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware проверяет bearer-токен и кладёт Identity в контекст запроса.
type AuthMiddleware struct {
	secretKey []byte
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным секретным ключом.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{
		secretKey: []byte(secret),
	}
}

// Middleware отклоняет запросы без действительного токена с кодом 401.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		id, err := a.Parse(token)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Parse проверяет подпись и срок действия токена и возвращает данные сотрудника.
func (a *AuthMiddleware) Parse(token string) (Identity, error) {
	if len(a.secretKey) == 0 {
		return Identity{}, errors.New("jwt secret is not configured")
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return a.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, fmt.Errorf("parse token: %w", err)
	}

	if claims.Subject == "" || claims.GymID == "" {
		return Identity{}, errors.New("token has no subject or gym")
	}
	if claims.Role != RoleGymOwner && claims.Role != RoleStaff {
		return Identity{}, fmt.Errorf("unknown role %q", claims.Role)
	}

	return Identity{
		StaffID: claims.Subject,
		GymID:   claims.GymID,
		Role:    claims.Role,
	}, nil
}

// RequireRole пропускает только сотрудников с одной из указанных ролей, иначе 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentityFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// GetIdentityFromContext извлекает данные сотрудника из контекста запроса.
func GetIdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// WithIdentity возвращает контекст с данными сотрудника.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}
