// Package helpers contiene utilidades compartidas por los controllers.
package helpers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dropDatabas3/accountd/internal/http/apierr"
)

const maxBodySize = 1 << 20 // 1MB

// ReadJSON decodifica el body JSON en dst. Limita el body a 1MB y exige
// Content-Type application/json cuando hay body.
func ReadJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if ct != "" && !strings.Contains(ct, "application/json") {
		return apierr.NonField(http.StatusBadRequest, "invalid_content_type", "Expected application/json.")
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apierr.ErrInvalidJSON
	}
	return nil
}

// WriteJSON escribe una respuesta JSON con el status dado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NoContent responde 204 sin cuerpo.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
