// Package health contiene el controller de health checks.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/accountd/internal/http/helpers"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
)

// Pinger comprueba la salud del backend de datos.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controllers agrupa los controllers de health.
type Controllers struct {
	Health *HealthController
}

// NewControllers crea el agregador de controllers de health.
func NewControllers(p Pinger) *Controllers {
	return &Controllers{Health: NewHealthController(p)}
}

// HealthController responde el estado del servicio.
type HealthController struct {
	pinger Pinger
}

// NewHealthController crea el controller de health.
func NewHealthController(p Pinger) *HealthController {
	return &HealthController{pinger: p}
}

// Healthz maneja GET /healthz
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := c.pinger.Ping(ctx); err != nil {
		logger.From(r.Context()).Warn("health check failed", logger.Err(err))
		helpers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
