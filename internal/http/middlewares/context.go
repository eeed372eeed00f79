package middlewares

import (
	"context"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
)

type ctxKey string

const (
	// ctxUserKey guarda el usuario autenticado
	ctxUserKey ctxKey = "user"
	// ctxSessionKeyKey guarda la key del token de sesión presentado
	ctxSessionKeyKey ctxKey = "session_key"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// WithUser inyecta el usuario autenticado en el contexto.
func WithUser(ctx context.Context, u *repository.User) context.Context {
	return context.WithValue(ctx, ctxUserKey, u)
}

func withSessionKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ctxSessionKeyKey, key)
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetUser obtiene el usuario autenticado del contexto.
// Retorna nil si el request no está autenticado.
func GetUser(ctx context.Context) *repository.User {
	if v := ctx.Value(ctxUserKey); v != nil {
		if u, ok := v.(*repository.User); ok {
			return u
		}
	}
	return nil
}

// GetSessionKey obtiene la key del token de sesión presentado en el request.
func GetSessionKey(ctx context.Context) string {
	if v := ctx.Value(ctxSessionKeyKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
