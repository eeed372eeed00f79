package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/accountd/internal/http/apierr"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
)

// WithRecover captura panics de handlers y responde 500.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.From(r.Context()).Error("panic recovered",
						logger.Any("panic", rec),
						logger.Path(r.URL.Path),
					)
					apierr.WriteError(w, apierr.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
