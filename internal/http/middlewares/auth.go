package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
	"github.com/dropDatabas3/accountd/internal/http/apierr"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
)

// TokenAuth resuelve el header `Authorization: Token <key>` contra el store
// de sesiones y deja el usuario en el contexto. No exige credencial: los
// endpoints que la requieren usan RequireUser después.
func TokenAuth(sessions repository.SessionTokenRepository, users repository.UserRepository) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "token ") {
				next.ServeHTTP(w, r)
				return
			}
			key := strings.TrimSpace(ah[len("Token "):])
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			tok, err := sessions.Lookup(ctx, key)
			if err != nil {
				if !repository.IsNotFound(err) {
					logger.From(ctx).Error("session lookup failed", logger.Err(err))
					apierr.WriteError(w, apierr.ErrInternal)
					return
				}
				// Credencial presentada pero desconocida: rechazar, no ignorar.
				apierr.WriteError(w, apierr.Detail(http.StatusUnauthorized, "invalid_session_token", "Invalid token."))
				return
			}

			u, err := users.GetByPK(ctx, tok.UserID)
			if err != nil || !u.IsActive {
				apierr.WriteError(w, apierr.Detail(http.StatusUnauthorized, "invalid_session_token", "Invalid token."))
				return
			}

			ctx = WithUser(ctx, u)
			ctx = withSessionKey(ctx, tok.Key)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(u.ID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser exige un usuario autenticado en el contexto.
// Debe usarse después de TokenAuth.
func RequireUser() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUser(r.Context()) == nil {
				apierr.WriteError(w, apierr.ErrNotAuthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
