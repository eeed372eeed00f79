// Package webauthn contiene los controllers del flujo FIDO2.
package webauthn

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/accountd/internal/http/apierr"
	tokendto "github.com/dropDatabas3/accountd/internal/http/dto/token"
	usersdto "github.com/dropDatabas3/accountd/internal/http/dto/users"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/webauthn"
	"github.com/dropDatabas3/accountd/internal/http/helpers"
	svc "github.com/dropDatabas3/accountd/internal/http/services/webauthn"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
)

// Controllers agrupa los controllers webauthn.
type Controllers struct {
	Signup *SignupController
	Login  *LoginController
}

// NewControllers crea el agregador de controllers webauthn.
func NewControllers(s svc.Service) *Controllers {
	return &Controllers{
		Signup: NewSignupController(s),
		Login:  NewLoginController(s),
	}
}

// SignupController maneja el registro de credenciales.
type SignupController struct {
	service svc.Service
}

// NewSignupController crea el controller de signup.
func NewSignupController(service svc.Service) *SignupController {
	return &SignupController{service: service}
}

// Request maneja POST /webauthn/signup_request/
func (c *SignupController) Request(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SignupController.Request"))

	var req dto.SignupRequestBody
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	opts, ukey, err := c.service.SignupRequest(ctx, req)
	if err != nil {
		log.Debug("signup request rejected", logger.Err(err))
		apierr.WriteError(w, err)
		return
	}

	// el ukey viaja en un header propio: el cliente lo necesita para el
	// segundo paso y no es parte de las opciones estándar
	w.Header().Set("X-Webauthn-Ukey", ukey)
	helpers.WriteJSON(w, http.StatusOK, opts)
}

// Complete maneja POST /webauthn/signup/{ukey}/
func (c *SignupController) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SignupController.Complete"))

	var req dto.SignupBody
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	u, err := c.service.Signup(ctx, chi.URLParam(r, "ukey"), req)
	if err != nil {
		log.Debug("signup rejected", logger.Err(err))
		apierr.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, usersdto.UserResponse{
		ID: u.ID, Username: u.Username, Email: u.Email, Mobile: u.Mobile,
	})
}

// LoginController maneja la autenticación por assertion.
type LoginController struct {
	service svc.Service
}

// NewLoginController crea el controller de login webauthn.
func NewLoginController(service svc.Service) *LoginController {
	return &LoginController{service: service}
}

// Request maneja POST /webauthn/login_request/
func (c *LoginController) Request(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Request"))

	var req dto.LoginRequestBody
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	opts, err := c.service.LoginRequest(ctx, req)
	if err != nil {
		log.Debug("login challenge rejected", logger.Err(err))
		apierr.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, opts)
}

// Login maneja POST /webauthn/login/
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	var req dto.LoginBody
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	key, err := c.service.Login(ctx, req)
	if err != nil {
		log.Debug("webauthn login failed", logger.Err(err))
		apierr.WriteError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, tokendto.Response{AuthToken: key})
}
