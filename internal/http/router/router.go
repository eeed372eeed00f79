// Package router registra las rutas HTTP y arma la cadena de middlewares.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/accountd/internal/config"
	"github.com/dropDatabas3/accountd/internal/http/apierr"
	"github.com/dropDatabas3/accountd/internal/http/controllers"
	"github.com/dropDatabas3/accountd/internal/http/middlewares"
	"github.com/dropDatabas3/accountd/internal/rate"
	"github.com/dropDatabas3/accountd/internal/store"
)

// Deps contiene todo lo que el router necesita para armar el árbol de rutas.
type Deps struct {
	Cfg         *config.Config
	Store       store.Store
	Controllers *controllers.Controllers

	// Limiters por familia de endpoint. nil deshabilita el rate limiting
	// de esa familia.
	LoginLimiter        rate.Limiter
	ResetLimiter        rate.Limiter
	PasswordlessLimiter rate.Limiter
}

// New arma el router completo.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	ctrl := deps.Controllers

	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithLogging())
	r.Use(middlewares.WithRecover())
	r.Use(middlewares.WithSecurityHeaders())
	r.Use(middlewares.TokenAuth(deps.Store.Sessions(), deps.Store.Users()))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.ErrMethodNotAllowed)
	})

	loginLimit := middlewares.WithRateLimit(middlewares.RateLimitConfig{Limiter: deps.LoginLimiter})
	resetLimit := middlewares.WithRateLimit(middlewares.RateLimitConfig{Limiter: deps.ResetLimiter})
	plessLimit := middlewares.WithRateLimit(middlewares.RateLimitConfig{Limiter: deps.PasswordlessLimiter})

	r.Route("/users", func(r chi.Router) {
		r.With(guard(deps.Cfg, "user_create")).Post("/", ctrl.Users.Create.Create)
		r.With(guard(deps.Cfg, "user_list")).Get("/", ctrl.Users.Directory.List)

		r.Route("/me", func(r chi.Router) {
			r.Use(middlewares.RequireUser())
			r.Get("/", ctrl.Users.Directory.Me)
			r.Put("/", ctrl.Users.Directory.UpdateMe)
			r.Patch("/", ctrl.Users.Directory.UpdateMe)
			r.Delete("/", ctrl.Users.Directory.DeleteMe)
		})

		r.With(guard(deps.Cfg, "activation")).Post("/activation/", ctrl.Users.Activation.Activate)
		r.With(guard(deps.Cfg, "activation"), resetLimit).Post("/resend_activation/", ctrl.Users.Activation.Resend)

		r.With(guard(deps.Cfg, "password_reset"), resetLimit).Post("/reset_password/", ctrl.Users.Password.Reset)
		r.With(guard(deps.Cfg, "password_reset_confirm")).Post("/reset_password_confirm/", ctrl.Users.Password.ResetConfirm)
		r.With(guard(deps.Cfg, "set_password")).Post("/set_password/", ctrl.Users.Password.Set)

		r.With(guard(deps.Cfg, "set_username")).Post("/set_username/", ctrl.Users.Username.Set)
		r.With(guard(deps.Cfg, "username_reset"), resetLimit).Post("/reset_username/", ctrl.Users.Username.Reset)
		r.With(guard(deps.Cfg, "username_reset_confirm")).Post("/reset_username_confirm/", ctrl.Users.Username.ResetConfirm)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(middlewares.RequireUser())
			r.Get("/", ctrl.Users.Directory.Detail)
			r.Put("/", ctrl.Users.Directory.Update)
			r.Patch("/", ctrl.Users.Directory.Update)
			r.Delete("/", ctrl.Users.Directory.Delete)
		})
	})

	r.Route("/token", func(r chi.Router) {
		r.With(guard(deps.Cfg, "token_create"), loginLimit).Post("/login/", ctrl.Token.Login.Login)
		r.With(guard(deps.Cfg, "token_destroy")).Post("/logout/", ctrl.Token.Logout.Logout)
	})

	r.Route("/passwordless", func(r chi.Router) {
		r.Use(plessLimit)
		r.Post("/request/email/", ctrl.Passwordless.Request.Email)
		r.Post("/request/mobile/", ctrl.Passwordless.Request.Mobile)
		r.Post("/exchange/", ctrl.Passwordless.Exchange.Exchange)
	})

	r.Route("/webauthn", func(r chi.Router) {
		r.Post("/signup_request/", ctrl.Webauthn.Signup.Request)
		r.Post("/signup/{ukey}/", ctrl.Webauthn.Signup.Complete)
		r.With(loginLimit).Post("/login_request/", ctrl.Webauthn.Login.Request)
		r.With(loginLimit).Post("/login/", ctrl.Webauthn.Login.Login)
	})

	r.Get("/healthz", ctrl.Health.Health.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// guard traduce el modo de permiso de una operación a middleware. Los modos
// que exigen identidad cuelgan de RequireUser; la autorización fina por
// recurso (dueño vs admin) vive en los services.
func guard(cfg *config.Config, op string) middlewares.Middleware {
	if cfg.Permission(op) == config.PermAllowAny {
		return func(next http.Handler) http.Handler { return next }
	}
	return middlewares.RequireUser()
}
