package users

import (
	"net/http"

	"github.com/dropDatabas3/accountd/internal/http/apierr"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/users"
	"github.com/dropDatabas3/accountd/internal/http/helpers"
	"github.com/dropDatabas3/accountd/internal/http/middlewares"
	svc "github.com/dropDatabas3/accountd/internal/http/services/users"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
)

// UsernameController maneja los flujos de cambio y reset del identificador
// de login.
type UsernameController struct {
	service svc.Service
}

// NewUsernameController crea el controller de username.
func NewUsernameController(service svc.Service) *UsernameController {
	return &UsernameController{service: service}
}

// Set maneja POST /users/set_username/
func (c *UsernameController) Set(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller := middlewares.GetUser(ctx)
	if caller == nil {
		apierr.WriteError(w, apierr.ErrNotAuthenticated)
		return
	}

	var req dto.SetUsernameRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	if err := c.service.SetUsername(ctx, caller, req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	helpers.NoContent(w)
}

// Reset maneja POST /users/reset_username/
func (c *UsernameController) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.EmailRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	if err := c.service.ResetUsername(ctx, req.Email); err != nil {
		apierr.WriteError(w, err)
		return
	}

	helpers.NoContent(w)
}

// ResetConfirm maneja POST /users/reset_username_confirm/
func (c *UsernameController) ResetConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsernameController.ResetConfirm"))

	var req dto.UsernameResetConfirmRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	if err := c.service.ResetUsernameConfirm(ctx, req); err != nil {
		log.Debug("username reset confirm rejected", logger.Err(err))
		apierr.WriteError(w, err)
		return
	}

	helpers.NoContent(w)
}
