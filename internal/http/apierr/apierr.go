// Package apierr define los errores del contrato HTTP. Los errores de
// validación serializan como {campo: [mensajes]} o {"non_field_errors": [...]};
// los de autenticación y permisos como {"detail": "..."}.
package apierr

import (
	"encoding/json"
	"net/http"
)

// Error es un error API serializable. Code identifica el error en logs y
// tests; el cuerpo de la respuesta sale de Fields o Detail.
type Error struct {
	Status int
	Code   string
	// Fields agrupa mensajes por campo ("non_field_errors" para los que no
	// pertenecen a ninguno). Si está vacío se usa Detail.
	Fields map[string][]string
	Detail string
}

func (e *Error) Error() string { return e.Code }

// WithField retorna una copia con un campo adicional.
func (e *Error) WithField(field string, msgs ...string) *Error {
	out := &Error{Status: e.Status, Code: e.Code, Detail: e.Detail, Fields: map[string][]string{}}
	for k, v := range e.Fields {
		out.Fields[k] = append([]string(nil), v...)
	}
	out.Fields[field] = append(out.Fields[field], msgs...)
	return out
}

// NonField construye un error de validación sin campo.
func NonField(status int, code string, msgs ...string) *Error {
	return &Error{Status: status, Code: code, Fields: map[string][]string{NonFieldErrorsKey: msgs}}
}

// Field construye un error de validación de un campo concreto.
func Field(status int, code, field string, msgs ...string) *Error {
	return &Error{Status: status, Code: code, Fields: map[string][]string{field: msgs}}
}

// Detail construye un error con cuerpo {"detail": msg}.
func Detail(status int, code, msg string) *Error {
	return &Error{Status: status, Code: code, Detail: msg}
}

// Validation construye un error 400 a partir de un mapa campo -> mensajes.
func Validation(fields map[string][]string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "validation_error", Fields: fields}
}

// NonFieldErrorsKey es la clave para errores de validación sin campo.
const NonFieldErrorsKey = "non_field_errors"

// Mensajes canónicos del contrato.
const (
	MsgInvalidCredentials = "Unable to login with provided credentials."
	MsgInactiveAccount    = "User account is disabled."
	MsgInvalidToken       = "Invalid token for given user."
	MsgInvalidUID         = "Invalid user id or user doesn't exist."
	MsgStaleToken         = "Stale token for given user."
	MsgPasswordMismatch   = "The two password fields didn't match."
	MsgInvalidPassword    = "Invalid password."
	MsgEmailNotFound      = "User with given email does not exist."
	MsgCannotCreateUser   = "Unable to create account."
	MsgTokenSent          = "A login token has been sent to you."
	MsgCannotSendToken    = "Unable to send you a login code. Try again later."
	MsgTokenModelNone     = "Unable to login or logout when session tokens are disabled."
	MsgNotAuthenticated   = "Authentication credentials were not provided."
	MsgPermissionDenied   = "You do not have permission to perform this action."
	MsgNotFound           = "Not found."
)

// Catálogo. Los codes son parte del contrato externo.
var (
	ErrInvalidCredentials = NonField(http.StatusBadRequest, "invalid_credentials", MsgInvalidCredentials)
	ErrInactiveAccount    = NonField(http.StatusBadRequest, "inactive_account", MsgInactiveAccount)
	ErrInvalidToken       = Field(http.StatusBadRequest, "invalid_token", "token", MsgInvalidToken)
	ErrInvalidUID         = Field(http.StatusBadRequest, "invalid_uid", "uid", MsgInvalidUID)
	ErrStaleToken         = Detail(http.StatusForbidden, "stale_token", MsgStaleToken)
	ErrPasswordMismatch   = NonField(http.StatusBadRequest, "password_mismatch", MsgPasswordMismatch)
	ErrInvalidPassword    = Field(http.StatusBadRequest, "invalid_password", "current_password", MsgInvalidPassword)
	ErrEmailNotFound      = Field(http.StatusBadRequest, "email_not_found", "email", MsgEmailNotFound)
	ErrCannotCreateUser   = NonField(http.StatusBadRequest, "cannot_create_user", MsgCannotCreateUser)
	ErrCannotSendToken    = Detail(http.StatusBadRequest, "cannot_send_token", MsgCannotSendToken)
	ErrTokenModelNone     = NonField(http.StatusBadRequest, "token_model_none", MsgTokenModelNone)
	ErrActivationDisabled = NonField(http.StatusBadRequest, "activation_disabled", "Activation emails are disabled.")

	ErrNotAuthenticated = Detail(http.StatusUnauthorized, "not_authenticated", MsgNotAuthenticated)
	ErrPermissionDenied = Detail(http.StatusForbidden, "permission_denied", MsgPermissionDenied)
	ErrNotFound         = Detail(http.StatusNotFound, "not_found", MsgNotFound)

	ErrInvalidJSON      = NonField(http.StatusBadRequest, "invalid_json", "Malformed request body.")
	ErrMethodNotAllowed = Detail(http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed.")
	ErrRateLimited      = Detail(http.StatusTooManyRequests, "rate_limited", "Request was throttled.")
	ErrInternal         = Detail(http.StatusInternalServerError, "internal_error", "Internal server error.")
)

// UsernameMismatch construye el error de retype del identificador de login.
// El mensaje nombra el campo configurado, igual que el resto del contrato.
func UsernameMismatch(field string) *Error {
	return NonField(http.StatusBadRequest, "username_mismatch",
		"The two "+field+" fields didn't match.")
}

// WriteError serializa el error al ResponseWriter. Errores desconocidos se
// colapsan a 500 sin filtrar detalle interno.
func WriteError(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*Error)
	if !ok {
		apiErr = ErrInternal
	}

	var body any
	if len(apiErr.Fields) > 0 {
		body = apiErr.Fields
	} else {
		body = map[string]string{"detail": apiErr.Detail}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(apiErr.Status)
	_ = json.NewEncoder(w).Encode(body)
}
