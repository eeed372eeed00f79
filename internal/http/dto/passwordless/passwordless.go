// Package passwordless define los cuerpos de request/response de /passwordless/.
package passwordless

// EmailRequest es el body de POST /passwordless/request/email/.
type EmailRequest struct {
	Email string `json:"email"`
}

// MobileRequest es el body de POST /passwordless/request/mobile/.
type MobileRequest struct {
	Mobile string `json:"mobile"`
}

// ExchangeRequest es el body de POST /passwordless/exchange/. El token puede
// ser el largo (solo) o el corto acompañado del identificador al que se envió.
type ExchangeRequest struct {
	Token  string `json:"token"`
	Email  string `json:"email,omitempty"`
	Mobile string `json:"mobile,omitempty"`
}

// DetailResponse es la respuesta de un request de challenge.
type DetailResponse struct {
	Detail string `json:"detail"`
}
