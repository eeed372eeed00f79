// Package token define los cuerpos de request/response de /token/.
package token

// CreateRequest es el body de POST /token/login/. El identificador de login
// llega en username o email según la configuración del despliegue.
type CreateRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// Response es la respuesta de un login exitoso.
type Response struct {
	AuthToken string `json:"auth_token"`
}
