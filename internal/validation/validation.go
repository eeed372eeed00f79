// Package validation contiene validadores de formato de identificadores.
// Cada función retorna "" si el valor es válido, o el mensaje de error.
package validation

import "regexp"

var (
	usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	mobileRe   = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

const maxUsernameLen = 150

// Username valida el formato del nombre de usuario.
func Username(v string) string {
	if v == "" {
		return "This field may not be blank."
	}
	if len(v) > maxUsernameLen {
		return "Ensure this field has no more than 150 characters."
	}
	if !usernameRe.MatchString(v) {
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	}
	return ""
}

// Email valida el formato de una dirección de email.
func Email(v string) string {
	if v == "" {
		return "This field may not be blank."
	}
	if !emailRe.MatchString(v) {
		return "Enter a valid email address."
	}
	return ""
}

// Mobile valida el formato de un número móvil (E.164 laxo).
func Mobile(v string) string {
	if v == "" {
		return "This field may not be blank."
	}
	if !mobileRe.MatchString(v) {
		return "Enter a valid mobile number."
	}
	return ""
}

// Required retorna el mensaje estándar de campo faltante.
func Required() string { return "This field is required." }
