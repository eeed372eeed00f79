// Package passwordless contiene los controllers del flujo de login por token.
package passwordless

import (
	"net/http"

	"github.com/dropDatabas3/accountd/internal/config"
	"github.com/dropDatabas3/accountd/internal/http/apierr"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/passwordless"
	tokendto "github.com/dropDatabas3/accountd/internal/http/dto/token"
	"github.com/dropDatabas3/accountd/internal/http/helpers"
	svc "github.com/dropDatabas3/accountd/internal/http/services/passwordless"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
)

// Controllers agrupa los controllers passwordless.
type Controllers struct {
	Request  *RequestController
	Exchange *ExchangeController
}

// NewControllers crea el agregador de controllers passwordless.
func NewControllers(s svc.Service, cfg *config.Config) *Controllers {
	return &Controllers{
		Request:  NewRequestController(s, cfg),
		Exchange: NewExchangeController(s),
	}
}

// RequestController maneja la emisión de challenges.
type RequestController struct {
	service svc.Service
	cfg     *config.Config
}

// NewRequestController crea el controller de request.
func NewRequestController(service svc.Service, cfg *config.Config) *RequestController {
	return &RequestController{service: service, cfg: cfg}
}

// Email maneja POST /passwordless/request/email/
func (c *RequestController) Email(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}
	c.request(w, r, config.MethodEmail, req.Email)
}

// Mobile maneja POST /passwordless/request/mobile/
func (c *RequestController) Mobile(w http.ResponseWriter, r *http.Request) {
	var req dto.MobileRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}
	c.request(w, r, config.MethodMobile, req.Mobile)
}

func (c *RequestController) request(w http.ResponseWriter, r *http.Request, method, identifier string) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RequestController"))

	// método deshabilitado: el endpoint no existe para el cliente
	if !c.cfg.PasswordlessAllowed(method) {
		apierr.WriteError(w, apierr.ErrNotFound)
		return
	}

	if err := c.service.Request(ctx, method, identifier); err != nil {
		log.Debug("challenge request rejected", logger.Err(err))
		apierr.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.DetailResponse{Detail: apierr.MsgTokenSent})
}

// ExchangeController maneja el canje del challenge por un token de sesión.
type ExchangeController struct {
	service svc.Service
}

// NewExchangeController crea el controller de exchange.
func NewExchangeController(service svc.Service) *ExchangeController {
	return &ExchangeController{service: service}
}

// Exchange maneja POST /passwordless/exchange/
func (c *ExchangeController) Exchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ExchangeController.Exchange"))

	var req dto.ExchangeRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	key, err := c.service.Exchange(ctx, req)
	if err != nil {
		log.Debug("exchange rejected", logger.Err(err))
		apierr.WriteError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, tokendto.Response{AuthToken: key})
}
