// Package token contiene los controllers de login/logout con token de sesión.
package token

import (
	"net/http"

	"github.com/dropDatabas3/accountd/internal/http/apierr"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/token"
	"github.com/dropDatabas3/accountd/internal/http/helpers"
	"github.com/dropDatabas3/accountd/internal/http/middlewares"
	svc "github.com/dropDatabas3/accountd/internal/http/services/token"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
)

// Controllers agrupa los controllers del dominio token.
type Controllers struct {
	Login  *LoginController
	Logout *LogoutController
}

// NewControllers crea el agregador de controllers token.
func NewControllers(s svc.Service) *Controllers {
	return &Controllers{
		Login:  NewLoginController(s),
		Logout: NewLogoutController(s),
	}
}

// LoginController maneja el login por password.
type LoginController struct {
	service svc.Service
}

// NewLoginController crea el controller de login.
func NewLoginController(service svc.Service) *LoginController {
	return &LoginController{service: service}
}

// Login maneja POST /token/login/
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	var req dto.CreateRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	key, err := c.service.Login(ctx, req)
	if err != nil {
		log.Debug("login failed", logger.Err(err))
		apierr.WriteError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, dto.Response{AuthToken: key})
}

// LogoutController maneja la destrucción del token del caller.
type LogoutController struct {
	service svc.Service
}

// NewLogoutController crea el controller de logout.
func NewLogoutController(service svc.Service) *LogoutController {
	return &LogoutController{service: service}
}

// Logout maneja POST /token/logout/
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller := middlewares.GetUser(ctx)
	if caller == nil {
		apierr.WriteError(w, apierr.ErrNotAuthenticated)
		return
	}

	if err := c.service.Logout(ctx, caller); err != nil {
		apierr.WriteError(w, err)
		return
	}
	helpers.NoContent(w)
}
